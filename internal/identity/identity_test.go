package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cozy-dates-go/internal/apperr"
	"cozy-dates-go/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func TestSupabaseVerifierSuccess(t *testing.T) {
	var gotAuth, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("apikey")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "user-1",
			"email": "alex@example.com",
			"email_confirmed_at": "2026-01-01T00:00:00Z",
			"user_metadata": {"full_name": "Alex Doe", "avatar_url": "https://img/a.png"}
		}`))
	}))
	defer server.Close()

	verifier := NewSupabaseVerifier(server.URL+"/", "anon-key", time.Second)
	session, err := verifier.VerifySession(context.Background(), "token-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotAuth != "Bearer token-1" || gotKey != "anon-key" {
		t.Fatalf("unexpected headers %q %q", gotAuth, gotKey)
	}
	want := Session{
		UserID:         "user-1",
		Email:          "alex@example.com",
		Name:           "Alex Doe",
		AvatarURL:      "https://img/a.png",
		EmailConfirmed: true,
	}
	if session != want {
		t.Fatalf("expected %+v, got %+v", want, session)
	}
}

func TestSupabaseVerifierUnconfirmedEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "user-1", "email": "a@example.com", "email_confirmed_at": null}`))
	}))
	defer server.Close()

	session, err := NewSupabaseVerifier(server.URL, "key", 0).VerifySession(context.Background(), "t")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session.EmailConfirmed {
		t.Fatalf("expected unconfirmed email")
	}
}

func TestSupabaseVerifierErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		token  string
		kind   apperr.Kind
	}{
		{name: "missing token", status: http.StatusOK, body: `{}`, token: "", kind: apperr.KindAuth},
		{name: "rejected", status: http.StatusUnauthorized, body: `{"msg":"bad jwt"}`, token: "t", kind: apperr.KindAuth},
		{name: "no user id", status: http.StatusOK, body: `{"email":"a@example.com"}`, token: "t", kind: apperr.KindAuth},
		{name: "provider down", status: http.StatusBadGateway, body: ``, token: "t", kind: apperr.KindUpstream},
		{name: "garbage body", status: http.StatusOK, body: `not json`, token: "t", kind: apperr.KindUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewSupabaseVerifier(server.URL, "key", time.Second).VerifySession(context.Background(), tt.token)
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := apperr.KindOf(err); got != tt.kind {
				t.Fatalf("expected kind %v, got %v (%v)", tt.kind, got, err)
			}
		})
	}
}

func TestSupabaseVerifierUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewSupabaseVerifier(url, "key", time.Second).VerifySession(context.Background(), "t")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "user-1",
		"aud":   "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"email": "alex@example.com",
		"user_metadata": map[string]interface{}{
			"name":           "Alex",
			"email_verified": true,
		},
	}
}

func TestJWTVerifierSuccess(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, testSecret, validClaims())

	session, err := NewJWTVerifier(testSecret).VerifySession(context.Background(), token)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session.UserID != "user-1" || session.Email != "alex@example.com" || session.Name != "Alex" || !session.EmailConfirmed {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestJWTVerifierRejects(t *testing.T) {
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	noExpiry := validClaims()
	delete(noExpiry, "exp")
	wrongAudience := validClaims()
	wrongAudience["aud"] = "anon"
	noSubject := validClaims()
	delete(noSubject, "sub")

	tests := []struct {
		name  string
		token string
	}{
		{name: "expired", token: signToken(t, jwt.SigningMethodHS256, testSecret, expired)},
		{name: "no expiry", token: signToken(t, jwt.SigningMethodHS256, testSecret, noExpiry)},
		{name: "wrong audience", token: signToken(t, jwt.SigningMethodHS256, testSecret, wrongAudience)},
		{name: "no subject", token: signToken(t, jwt.SigningMethodHS256, testSecret, noSubject)},
		{name: "wrong secret", token: signToken(t, jwt.SigningMethodHS256, "another-secret-another-secret-123", validClaims())},
		{name: "wrong algorithm", token: signToken(t, jwt.SigningMethodHS512, testSecret, validClaims())},
		{name: "garbage", token: "not.a.jwt"},
	}

	verifier := NewJWTVerifier(testSecret)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.VerifySession(context.Background(), tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
			if apperr.KindOf(err) != apperr.KindAuth {
				t.Fatalf("expected auth kind")
			}
		})
	}
}

func TestNewVerifierSelection(t *testing.T) {
	mock, err := NewVerifier(config.SupabaseConfig{SkipAuth: true, MockUserID: "dev-user"})
	if err != nil {
		t.Fatalf("expected mock verifier, got %v", err)
	}
	session, _ := mock.VerifySession(context.Background(), "")
	if session.UserID != "dev-user" || !session.EmailConfirmed {
		t.Fatalf("unexpected mock session %+v", session)
	}

	if _, err := NewVerifier(config.SupabaseConfig{SkipAuth: true}); err == nil {
		t.Fatalf("expected error without mock user id")
	}

	if v, err := NewVerifier(config.SupabaseConfig{JWTSecret: testSecret}); err != nil {
		t.Fatalf("expected jwt verifier, got %v", err)
	} else if _, ok := v.(*JWTVerifier); !ok {
		t.Fatalf("expected *JWTVerifier, got %T", v)
	}

	if v, err := NewVerifier(config.SupabaseConfig{URL: "https://x.supabase.co", PublishableKey: "k"}); err != nil {
		t.Fatalf("expected supabase verifier, got %v", err)
	} else if _, ok := v.(*SupabaseVerifier); !ok {
		t.Fatalf("expected *SupabaseVerifier, got %T", v)
	}

	if _, err := NewVerifier(config.SupabaseConfig{}); err == nil {
		t.Fatalf("expected error when nothing is configured")
	}
}
