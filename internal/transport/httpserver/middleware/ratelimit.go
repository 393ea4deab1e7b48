package middleware

import (
	"net/http"
	"time"

	"cozy-dates-go/pkg/logger"
	"github.com/go-chi/httprate"
)

// UserRateLimit limits mutating calls per authenticated user, falling back to
// the client IP when no user is on the context.
func UserRateLimit(requests int, window time.Duration, log logger.Logger) func(http.Handler) http.Handler {
	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(userOrIPKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserIDFromContext(r.Context())
			log.Warn("ratelimit: limit exceeded", "user_id", userID, "path", r.URL.Path, "method", r.Method)
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		}),
	)
}

func NoRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

func userOrIPKey(r *http.Request) (string, error) {
	if userID, ok := UserIDFromContext(r.Context()); ok {
		return "user:" + userID, nil
	}
	return httprate.KeyByIP(r)
}
