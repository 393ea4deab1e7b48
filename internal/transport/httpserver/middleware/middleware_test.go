package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cozy-dates-go/internal/identity"
	"cozy-dates-go/pkg/logger"
)

type stubVerifier struct {
	sessions map[string]identity.Session
	err      error
}

func (v stubVerifier) VerifySession(ctx context.Context, token string) (identity.Session, error) {
	if v.err != nil {
		return identity.Session{}, v.err
	}
	if token == "" {
		return identity.Session{}, identity.ErrMissingToken
	}
	session, ok := v.sessions[token]
	if !ok {
		return identity.Session{}, identity.ErrInvalidToken
	}
	return session, nil
}

type recordingSaver struct {
	calls []string
	err   error
}

func (s *recordingSaver) EnsureProfile(ctx context.Context, userID, email, name, avatarURL string) error {
	s.calls = append(s.calls, userID+"|"+email+"|"+name)
	return s.err
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(user.ID))
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	saver := &recordingSaver{}
	verifier := stubVerifier{sessions: map[string]identity.Session{
		"tok": {UserID: "user-1", Email: "a@example.com", Name: "Alex"},
	}}
	handler := NewAuth(verifier, saver, logger.Nop()).Middleware(echoUser())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "bearer tok")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "user-1" {
		t.Fatalf("expected user-1, got %d %q", rec.Code, rec.Body.String())
	}
	if len(saver.calls) != 1 || saver.calls[0] != "user-1|a@example.com|Alex" {
		t.Fatalf("expected profile ensured once, got %v", saver.calls)
	}
}

func TestAuthMiddlewareRejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic tok"},
		{name: "unknown token", header: "Bearer nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saver := &recordingSaver{}
			verifier := stubVerifier{sessions: map[string]identity.Session{"tok": {UserID: "user-1"}}}
			handler := NewAuth(verifier, saver, logger.Nop()).Middleware(echoUser())

			req := httptest.NewRequest(http.MethodPost, "/api/couple-actions", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if body := decodeError(t, rec); body["error"] == "" {
				t.Fatalf("expected error message, got %v", body)
			}
			if len(saver.calls) != 0 {
				t.Fatalf("expected no profile writes, got %v", saver.calls)
			}
		})
	}
}

func TestAuthMiddlewareProviderFailure(t *testing.T) {
	verifier := stubVerifier{err: identity.ErrProviderUnavailable}
	handler := NewAuth(verifier, nil, logger.Nop()).Middleware(echoUser())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body["error"] != "internal error" {
		t.Fatalf("expected generic message, got %v", body)
	}
}

func TestAuthMiddlewareProfileFailureIsNotFatal(t *testing.T) {
	saver := &recordingSaver{err: errors.New("db down")}
	verifier := stubVerifier{sessions: map[string]identity.Session{"tok": {UserID: "user-1"}}}
	handler := NewAuth(verifier, saver, logger.Nop()).Middleware(echoUser())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected request to proceed, got %d", rec.Code)
	}
}

type countingObserver map[string]int

func (o countingObserver) ObserveIdentity(outcome string) {
	o[outcome]++
}

func TestAuthMiddlewareReportsOutcomes(t *testing.T) {
	observer := countingObserver{}
	verifier := stubVerifier{sessions: map[string]identity.Session{"tok": {UserID: "user-1"}}}
	handler := NewAuth(verifier, nil, logger.Nop()).WithObserver(observer).Middleware(echoUser())

	for _, header := range []string{"Bearer tok", "Bearer tok", "Bearer nope"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if observer["ok"] != 2 || observer["unauthorized"] != 1 {
		t.Fatalf("unexpected outcomes: %v", observer)
	}
}

func TestRequireVerified(t *testing.T) {
	handler := RequireVerified(echoUser())

	tests := []struct {
		name string
		ctx  context.Context
		want int
	}{
		{name: "no user", ctx: context.Background(), want: http.StatusUnauthorized},
		{name: "unconfirmed", ctx: WithUser(context.Background(), User{ID: "u"}), want: http.StatusForbidden},
		{name: "confirmed", ctx: WithUser(context.Background(), User{ID: "u", EmailConfirmed: true}), want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/onboarding/activate", nil).WithContext(tt.ctx)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestUserRateLimitIsPerUser(t *testing.T) {
	limiter := UserRateLimit(2, time.Minute, logger.Nop())
	handler := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/couple-actions", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req = req.WithContext(WithUser(req.Context(), User{ID: userID}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("user-a"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, code)
		}
	}
	if code := send("user-a"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", code)
	}
	if code := send("user-b"); code != http.StatusOK {
		t.Fatalf("expected other user unaffected, got %d", code)
	}
}

func TestCORS(t *testing.T) {
	handler := NewCORS([]string{"http://localhost:5173/"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	preflight := httptest.NewRequest(http.MethodOptions, "/api/couple-actions", nil)
	preflight.Header.Set("Origin", "http://localhost:5173")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, preflight)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected origin echoed, got %q", got)
	}

	other := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	other.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("expected no CORS headers for unknown origin")
	}
}
