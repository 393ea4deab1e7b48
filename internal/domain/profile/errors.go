package profile

import "cozy-dates-go/internal/apperr"

var (
	ErrProfileNotFound  = apperr.New(apperr.KindNotFound, "profile not found")
	ErrNoFieldsToUpdate = apperr.Validation("no fields to update")
	ErrInvalidTheme     = apperr.Validation("theme must be light, dark or system")
	ErrInvalidAge       = apperr.Validation("age must be between 0 and 150")
	ErrInvalidEmail     = apperr.Validation("contact email is invalid")
	ErrNameTooLong      = apperr.Validation("name is too long")
)
