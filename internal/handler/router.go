package handler

import (
	"time"

	"leaguevote/internal/middleware"
	"leaguevote/internal/service"
	"leaguevote/pkg/logger"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig carries everything the HTTP surface is built from
type RouterConfig struct {
	AllowedOrigins []string
	CronSecret     string
	Version        string

	AuthService   service.AuthService
	VotingService *service.VotingService
	AwardService  *service.AwardService
	Realtime      *RealtimeHandler
	HealthChecks  []HealthCheck

	Logger *logger.Logger
}

// NewRouter wires the public, authenticated and internal routes
func NewRouter(cfg RouterConfig) *chi.Mux {
	log := cfg.Logger

	r := chi.NewRouter()

	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RequestID(log))
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)

	healthHandler := NewHealthHandler(log, cfg.Version, cfg.HealthChecks...)
	authHandler := NewAuthHandler(log)
	votingHandler := NewVotingHandler(cfg.VotingService, log)
	awardHandler := NewAwardHandler(cfg.AwardService, log)

	// Health check (no auth required)
	r.Get("/health", healthHandler.Check)

	// Websocket connections outlive the request timeout
	if cfg.Realtime != nil {
		r.Get("/ws/matches/{matchID}", cfg.Realtime.Subscribe)
	}

	r.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Compress(5))
		r.Use(chiMiddleware.Timeout(60 * time.Second))

		r.Route("/api/v1", func(r chi.Router) {
			r.Route("/matches/{matchID}", func(r chi.Router) {
				// Public endpoints; a token only personalises the response
				r.Group(func(r chi.Router) {
					r.Use(middleware.OptionalAuth(cfg.AuthService, log))

					r.Get("/voting", votingHandler.GetVotingStatus)
					r.Get("/award", awardHandler.GetAward)
				})

				// Protected voting endpoints (require authentication)
				r.Group(func(r chi.Router) {
					r.Use(middleware.Auth(cfg.AuthService, log))

					r.Post("/votes", votingHandler.CastVote)
					r.Get("/votes/me", votingHandler.GetMyVote)
					r.Get("/results", votingHandler.GetResults)
				})
			})

			r.With(middleware.Auth(cfg.AuthService, log)).Get("/me", authHandler.GetProfile)

			// Called by the scheduler and operators only
			r.Route("/internal", func(r chi.Router) {
				r.Use(middleware.CronSecret(cfg.CronSecret, log))

				r.Post("/awards/run", awardHandler.Run)
				r.Delete("/awards/{matchID}", awardHandler.Revoke)
			})
		})
	})

	return r
}
