package apperr

import "errors"

// Kind classifies an error for the transport layer.
type Kind uint8

const (
	KindUpstream Kind = iota
	KindAuth
	KindForbidden
	KindValidation
	KindNotFound
	KindConflict
	KindNotImplemented
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "invalid_request"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindNotImplemented:
		return "not_implemented"
	default:
		return "internal_error"
	}
}

type Error struct {
	kind    Kind
	message string
	cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Wrap keeps cause reachable through errors.Is/As while reporting kind and message.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{kind: kind, message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.message
	}
	return e.message + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Kind() Kind {
	return e.kind
}

func (e *Error) Message() string {
	return e.message
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

// KindOf returns the kind of the outermost *Error in the chain, KindUpstream otherwise.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.kind
	}
	return KindUpstream
}

// Message returns the client-facing message for err.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.kind != KindUpstream {
		return appErr.message
	}
	return "internal error"
}
