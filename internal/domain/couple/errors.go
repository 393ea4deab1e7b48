package couple

import "cozy-dates-go/internal/apperr"

var (
	ErrActiveCoupleExists   = apperr.New(apperr.KindConflict, "active couple exists")
	ErrInviteCodeTaken      = apperr.New(apperr.KindConflict, "invite code collision, please retry")
	ErrInviteCodeNotFound   = apperr.New(apperr.KindNotFound, "invalid invite code")
	ErrInviteCodeRequired   = apperr.Validation("invite code is required")
	ErrCoupleNotFound       = apperr.New(apperr.KindNotFound, "couple not found")
	ErrNoActiveCouple       = apperr.New(apperr.KindNotFound, "no active couple")
	ErrMembershipNotFound   = apperr.New(apperr.KindNotFound, "membership not found")
	ErrInvitationNotFound   = apperr.New(apperr.KindNotFound, "invitation not found")
	ErrInviteeNotFound      = apperr.New(apperr.KindNotFound, "no account with that email")
	ErrInviteeAlreadyPaired = apperr.New(apperr.KindConflict, "invitee already has an active couple")
	ErrCannotInviteSelf     = apperr.Validation("cannot invite yourself")
	ErrEmailRequired        = apperr.Validation("email is required")
	ErrNameRequired         = apperr.Validation("name is required")
	ErrNameTooLong          = apperr.Validation("name is too long")
	ErrCodeGenerationFailed = apperr.New(apperr.KindConflict, "could not allocate a unique invite code, please retry")
	ErrLeaveNotImplemented  = apperr.New(apperr.KindNotImplemented, "leave is not implemented")
)
