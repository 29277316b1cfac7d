// Package api serves matches and profiles over HTTP for the presentation
// layer.
package api

import (
	"context"
	"net/http"

	"sponsorloop-workers/internal/common/config"
	"sponsorloop-workers/internal/common/database"
	"sponsorloop-workers/internal/common/events"
	"sponsorloop-workers/internal/common/logger"
	"sponsorloop-workers/internal/common/observability"
	"sponsorloop-workers/internal/matching"
	"sponsorloop-workers/internal/models"
	"sponsorloop-workers/internal/profilestore"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ViewerResolver turns a bearer token into the requesting viewer.
type ViewerResolver interface {
	Resolve(ctx context.Context, token string) (models.ViewerContext, error)
}

type Dependencies struct {
	Store         profilestore.Store
	Writer        profilestore.Writer // nil when the backend is read-only
	Engine        *matching.Engine
	Resolver      ViewerResolver
	Bus           events.Bus
	Health        *database.HealthChecker
	Observability *observability.Observability
	Matching      config.MatchingConfig
	Logger        logger.Logger
}

type Handler struct {
	deps   Dependencies
	logger logger.Logger
}

func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		deps:   deps,
		logger: deps.Logger.WithFields(map[string]interface{}{"component": "api"}),
	}
}

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.loggingMiddleware)
	r.Use(h.recoverMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ok") })
	r.Get("/readyz", h.ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", h.listProfiles)
			r.Post("/", h.createProfile)
			r.Get("/{id}", h.getProfile)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware)
			r.Get("/matches", h.getMatches)
			r.Post("/events/{topic}", h.publishEvent)
		})
	})
	return r
}

// NewServer wraps handler with the configured timeouts.
func NewServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
	}
}
