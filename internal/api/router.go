// Package api provides the HTTP API for AQInsight.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/aqinsight/aqinsight/internal/airquality"
	"github.com/aqinsight/aqinsight/internal/analytics"
	"github.com/aqinsight/aqinsight/internal/api/handler"
	"github.com/aqinsight/aqinsight/internal/api/middleware"
	"github.com/aqinsight/aqinsight/internal/api/response"
	"github.com/aqinsight/aqinsight/internal/heatmap"
	"github.com/aqinsight/aqinsight/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	Resolver     *airquality.Resolver
	Interpolator *heatmap.Interpolator
	Analytics    *analytics.Service

	// Storage is pinged by the readiness check. Optional.
	Storage handler.Pinger

	// Registry reports provider circuit state on readiness. Optional.
	Registry *resilience.Registry

	// LiveCache reports live cache usage on readiness. Optional.
	LiveCache handler.CacheStatter

	// RateLimit and HeatmapRateLimit are requests per minute per IP. Zero disables.
	RateLimit        int
	HeatmapRateLimit int

	RequireTLS bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "aqinsight-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no resource at "+r.URL.Path)
	})
	r.MethodNotAllowed(response.MethodNotAllowed)

	opsHandler := handler.NewOpsHandler(handler.OpsHandlerConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Storage:   cfg.Storage,
		Registry:  cfg.Registry,
		LiveCache: cfg.LiveCache,
	})
	aqiHandler := handler.NewAQIHandler(cfg.Resolver, cfg.Interpolator)
	historyHandler := handler.NewHistoryHandler(cfg.Analytics)

	standardRateLimit := middleware.RateLimitByIP(middleware.PerMinute(cfg.RateLimit))
	heatmapRateLimit := middleware.RateLimitByIP(middleware.PerMinute(cfg.HeatmapRateLimit))

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public, unlimited)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		r.Route("/aqi", func(r chi.Router) {
			r.With(standardRateLimit).Get("/coords", aqiHandler.GetByCoords)

			// Each heatmap request fans out into many provider calls
			r.With(heatmapRateLimit).Get("/heatmap/smooth", aqiHandler.GetHeatmap)

			r.Route("/history", func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/raw", historyHandler.Raw)
				r.Get("/timeseries", historyHandler.Timeseries)
				r.Get("/summary", historyHandler.Summary)
				r.Get("/daily", historyHandler.Daily)
			})
		})
	})

	return r
}
