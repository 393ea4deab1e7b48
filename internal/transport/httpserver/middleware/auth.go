package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"cozy-dates-go/internal/apperr"
	"cozy-dates-go/internal/identity"
	"cozy-dates-go/pkg/logger"
)

type contextKey int

const (
	userIDKey contextKey = iota
	userKey
)

type User struct {
	ID             string
	Email          string
	Name           string
	AvatarURL      string
	EmailConfirmed bool
}

// ProfileSaver creates or refreshes the caller's profile after each verified request.
type ProfileSaver interface {
	EnsureProfile(ctx context.Context, userID, email, name, avatarURL string) error
}

// IdentityObserver counts session verification outcomes.
type IdentityObserver interface {
	ObserveIdentity(outcome string)
}

type Auth struct {
	verifier identity.Verifier
	profiles ProfileSaver
	observer IdentityObserver
	log      logger.Logger
}

func NewAuth(verifier identity.Verifier, profiles ProfileSaver, log logger.Logger) *Auth {
	return &Auth{verifier: verifier, profiles: profiles, log: log}
}

func (a *Auth) WithObserver(observer IdentityObserver) *Auth {
	a.observer = observer
	return a
}

func (a *Auth) observe(outcome string) {
	if a.observer != nil {
		a.observer.ObserveIdentity(outcome)
	}
}

func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A missing header reaches the verifier as an empty token; only the
		// mock verifier accepts it.
		token, _ := bearerToken(r.Header.Get("Authorization"))

		session, err := a.verifier.VerifySession(r.Context(), token)
		if err != nil {
			a.observe(apperr.KindOf(err).String())
			if apperr.KindOf(err) == apperr.KindAuth {
				a.log.BusinessError("auth: session rejected", err, "path", r.URL.Path)
				unauthorized(w)
				return
			}
			a.log.InternalError("auth: session verification failed", err, "path", r.URL.Path)
			writeError(w, http.StatusInternalServerError, apperr.KindUpstream.String(), apperr.Message(err))
			return
		}

		a.observe("ok")

		user := User{
			ID:             session.UserID,
			Email:          session.Email,
			Name:           session.Name,
			AvatarURL:      session.AvatarURL,
			EmailConfirmed: session.EmailConfirmed,
		}

		if a.profiles != nil {
			if err := a.profiles.EnsureProfile(r.Context(), user.ID, user.Email, user.Name, user.AvatarURL); err != nil {
				a.log.Error("auth: ensure profile failed", "user_id", user.ID, "err", err)
			}
		}

		ctx := WithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireVerified rejects callers whose email is not confirmed. Must run after Auth.
func RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			unauthorized(w)
			return
		}
		if !user.EmailConfirmed {
			writeError(w, http.StatusForbidden, apperr.KindForbidden.String(), "email confirmation required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, apperr.KindAuth.String(), "unauthorized")
}

func WithUser(ctx context.Context, user User) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, userIDKey, user.ID)
}

func UserFromContext(ctx context.Context) (User, bool) {
	value := ctx.Value(userKey)
	user, ok := value.(User)
	if !ok || user.ID == "" {
		return User{}, false
	}
	return user, true
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(userIDKey)
	userID, ok := value.(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  code,
	})
}
