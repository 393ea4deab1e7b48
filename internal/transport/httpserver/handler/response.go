package handler

import (
	"encoding/json"
	"net/http"

	"cozy-dates-go/internal/apperr"
	"cozy-dates-go/internal/transport/httpserver/middleware"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func invalidJSON(w http.ResponseWriter) {
	writeError(w, http.StatusBadRequest, apperr.KindValidation.String(), "invalid json body")
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, apperr.KindAuth.String(), "unauthorized")
}

// currentUser writes a 401 when the auth middleware did not run.
func currentUser(w http.ResponseWriter, r *http.Request) (middleware.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return middleware.User{}, false
	}
	return user, true
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindValidation, apperr.KindNotImplemented:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err as a business or internal error depending on its kind and
// writes the matching response. Upstream details never reach the client.
func (h *Handlers) fail(w http.ResponseWriter, message string, err error, args ...any) {
	kind := apperr.KindOf(err)
	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		h.log.InternalError(message, err, args...)
	} else {
		h.log.BusinessError(message, err, args...)
	}
	writeError(w, status, kind.String(), apperr.Message(err))
}
