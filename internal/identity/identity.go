package identity

import (
	"context"
	"errors"
	"strings"

	"cozy-dates-go/internal/apperr"
	"cozy-dates-go/internal/config"
)

// Session is the verified identity behind an access token.
type Session struct {
	UserID         string
	Email          string
	Name           string
	AvatarURL      string
	EmailConfirmed bool
}

type Verifier interface {
	VerifySession(ctx context.Context, token string) (Session, error)
}

var (
	ErrMissingToken        = apperr.New(apperr.KindAuth, "missing bearer token")
	ErrInvalidToken        = apperr.New(apperr.KindAuth, "invalid token")
	ErrProviderUnavailable = apperr.New(apperr.KindUpstream, "identity provider unavailable")
)

// NewVerifier picks the verifier for cfg: the mock user when auth is skipped,
// local JWT verification when a secret is set, the Supabase API otherwise.
func NewVerifier(cfg config.SupabaseConfig) (Verifier, error) {
	if cfg.SkipAuth {
		session := Session{
			UserID:         strings.TrimSpace(cfg.MockUserID),
			Email:          strings.TrimSpace(cfg.MockUserEmail),
			Name:           strings.TrimSpace(cfg.MockUserName),
			AvatarURL:      strings.TrimSpace(cfg.MockUserAvatar),
			EmailConfirmed: true,
		}
		if session.UserID == "" {
			return nil, errors.New("auth mock user id not configured")
		}
		return NewMockVerifier(session), nil
	}

	if cfg.JWTSecret != "" {
		return NewJWTVerifier(cfg.JWTSecret), nil
	}

	if cfg.URL == "" || cfg.PublishableKey == "" {
		return nil, errors.New("auth not configured: set SUPABASE_URL and SUPABASE_PUBLISHABLE_KEY, SUPABASE_JWT_SECRET or AUTH_SKIP")
	}
	return NewSupabaseVerifier(cfg.URL, cfg.PublishableKey, cfg.AuthTimeout), nil
}

type MockVerifier struct {
	session Session
}

func NewMockVerifier(session Session) *MockVerifier {
	return &MockVerifier{session: session}
}

// VerifySession ignores the token and always returns the configured user.
func (v *MockVerifier) VerifySession(ctx context.Context, token string) (Session, error) {
	return v.session, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func stringFromMap(values map[string]interface{}, key string) string {
	if values == nil {
		return ""
	}
	value, ok := values[key]
	if !ok {
		return ""
	}
	parsed, ok := value.(string)
	if !ok {
		return ""
	}
	return parsed
}

func boolFromMap(values map[string]interface{}, key string) bool {
	if values == nil {
		return false
	}
	parsed, ok := values[key].(bool)
	return ok && parsed
}
