// Package api provides the HTTP API for skycast.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/api/handler"
	"github.com/skycast/skycast/internal/api/middleware"
	"github.com/skycast/skycast/internal/forecast"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version         string
	Logger          zerolog.Logger
	Metrics         *middleware.Metrics
	ForecastService *forecast.Service
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware, outermost first
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)

	opsHandler := handler.NewOpsHandler(cfg.Version)
	forecastHandler := handler.NewForecastHandler(cfg.ForecastService, cfg.Logger)

	forecastRateLimit := middleware.RateLimitByIP(middleware.ForecastRateLimit)
	invalidateRateLimit := middleware.RateLimitByIP(middleware.InvalidateRateLimit)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		r.Route("/forecast", func(r chi.Router) {
			r.With(forecastRateLimit).Get("/", forecastHandler.Get)
			r.With(invalidateRateLimit).Post("/invalidate", forecastHandler.Invalidate)
		})
	})

	return r
}
