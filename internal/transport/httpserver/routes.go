package httpserver

import (
	"net/http"
	"time"

	"cozy-dates-go/internal/config"
	"cozy-dates-go/internal/identity"
	"cozy-dates-go/internal/metrics"
	"cozy-dates-go/internal/transport/httpserver/handler"
	authmw "cozy-dates-go/internal/transport/httpserver/middleware"
	"cozy-dates-go/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, verifier identity.Verifier, profiles authmw.ProfileSaver, m *metrics.Metrics, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	if cfg.HTTP.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.HTTP.RequestTimeout))
	}
	if cfg.HTTP.MaxBodyBytes > 0 {
		r.Use(chimw.RequestSize(cfg.HTTP.MaxBodyBytes))
	}
	r.Use(authmw.NewCORS(cfg.HTTP.AllowedOrigins))

	auth := authmw.NewAuth(verifier, profiles, log).WithObserver(m)
	limit := authmw.NoRateLimit()
	if cfg.RateLimit.Enabled && cfg.RateLimit.ActionsPerMinute > 0 {
		limit = authmw.UserRateLimit(cfg.RateLimit.ActionsPerMinute, time.Minute, log)
	}

	if cfg.Metrics.Enabled {
		r.Get("/metrics", handlers.Metrics)
	}

	// Path used by existing clients of the action endpoint.
	r.With(auth.Middleware, limit).Post("/couple-actions", handlers.CoupleAction)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.AuthMe)

			r.Get("/profile", handlers.GetProfile)
			r.Patch("/profile", handlers.UpdateProfile)
			r.With(authmw.RequireVerified).Post("/onboarding/activate", handlers.ActivateOnboarding)

			r.With(limit).Post("/couple-actions", handlers.CoupleAction)

			r.Get("/couples/me", handlers.GetCoupleMe)
			r.Patch("/couples/me", handlers.RenameCouple)
			r.With(limit).Post("/couples/me/invitations", handlers.InvitePartner)

			r.Get("/invitations", handlers.ListInvitations)
			r.With(limit).Post("/invitations/{couple_id}/accept", handlers.AcceptInvitation)
			r.Post("/invitations/{couple_id}/decline", handlers.DeclineInvitation)
		})
	})

	return r
}
