package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultAuthTimeout = 5 * time.Second

// SupabaseVerifier resolves tokens through the Supabase auth API.
type SupabaseVerifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type userResponse struct {
	ID               string                 `json:"id"`
	Email            string                 `json:"email"`
	Sub              string                 `json:"sub"`
	EmailConfirmedAt string                 `json:"email_confirmed_at"`
	ConfirmedAt      string                 `json:"confirmed_at"`
	UserMetadata     map[string]interface{} `json:"user_metadata"`
	User             struct {
		ID  string `json:"id"`
		Sub string `json:"sub"`
	} `json:"user"`
}

func NewSupabaseVerifier(baseURL, apiKey string, timeout time.Duration) *SupabaseVerifier {
	if timeout == 0 {
		timeout = defaultAuthTimeout
	}
	return &SupabaseVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (v *SupabaseVerifier) VerifySession(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrMissingToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.apiKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return Session{}, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return Session{}, ErrInvalidToken
	}

	var payload userResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Session{}, fmt.Errorf("%w: decode user: %v", ErrProviderUnavailable, err)
	}

	userID := firstNonEmpty(payload.ID, payload.Sub, payload.User.ID, payload.User.Sub)
	if userID == "" {
		return Session{}, ErrInvalidToken
	}

	confirmed := payload.EmailConfirmedAt != "" || payload.ConfirmedAt != "" ||
		boolFromMap(payload.UserMetadata, "email_verified")

	return Session{
		UserID:         userID,
		Email:          payload.Email,
		Name:           firstNonEmpty(stringFromMap(payload.UserMetadata, "name"), stringFromMap(payload.UserMetadata, "full_name")),
		AvatarURL:      stringFromMap(payload.UserMetadata, "avatar_url"),
		EmailConfirmed: confirmed,
	}, nil
}
