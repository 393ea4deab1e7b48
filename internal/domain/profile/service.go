package profile

import (
	"context"
	"net/mail"
	"strings"
	"unicode/utf8"

	"cozy-dates-go/internal/apperr"
)

const (
	maxNameLength  = 80
	maxEmailLength = 254
	maxAge         = 150
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// EnsureProfile creates the caller's profile on first sight and refreshes the account email.
func (s *Service) EnsureProfile(ctx context.Context, userID, email, name, avatarURL string) error {
	if userID == "" {
		return apperr.Validation("user id is required")
	}

	profile := Profile{ID: userID}
	if email = NormalizeEmail(email); email != "" {
		profile.Email = &email
	}
	if name = strings.TrimSpace(name); name != "" {
		profile.DisplayName = &name
	}
	if avatarURL = strings.TrimSpace(avatarURL); avatarURL != "" {
		profile.AvatarURL = &avatarURL
	}

	return s.repo.UpsertProfile(ctx, &profile)
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, input UpdateInput) (*Profile, error) {
	if input.empty() {
		return nil, ErrNoFieldsToUpdate
	}

	normalized, err := normalizeUpdate(input)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetProfile(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProfile(ctx, userID, normalized); err != nil {
		return nil, err
	}
	return s.repo.GetProfile(ctx, userID)
}

// normalizeUpdate trims every text field; an empty string clears the field.
func normalizeUpdate(input UpdateInput) (UpdateInput, error) {
	for _, field := range []**string{&input.DisplayName, &input.FirstName, &input.LastName, &input.Nickname} {
		if *field == nil {
			continue
		}
		trimmed := strings.TrimSpace(**field)
		if utf8.RuneCountInString(trimmed) > maxNameLength {
			return UpdateInput{}, ErrNameTooLong
		}
		*field = &trimmed
	}

	if input.AvatarURL != nil {
		trimmed := strings.TrimSpace(*input.AvatarURL)
		input.AvatarURL = &trimmed
	}

	if input.Theme != nil {
		theme := strings.ToLower(strings.TrimSpace(*input.Theme))
		switch theme {
		case "", ThemeLight, ThemeDark, ThemeSystem:
		default:
			return UpdateInput{}, ErrInvalidTheme
		}
		input.Theme = &theme
	}

	if input.Age != nil && (*input.Age < 0 || *input.Age > maxAge) {
		return UpdateInput{}, ErrInvalidAge
	}

	if input.ContactEmail != nil {
		email := NormalizeEmail(*input.ContactEmail)
		if email != "" && !validEmail(email) {
			return UpdateInput{}, ErrInvalidEmail
		}
		input.ContactEmail = &email
	}

	return input, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if len(email) > maxEmailLength {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
