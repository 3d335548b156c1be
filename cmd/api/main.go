// Package main provides the entrypoint for the AQInsight API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aqinsight/aqinsight/internal/airquality"
	"github.com/aqinsight/aqinsight/internal/airquality/livecache"
	"github.com/aqinsight/aqinsight/internal/airquality/openweathermap"
	"github.com/aqinsight/aqinsight/internal/analytics"
	"github.com/aqinsight/aqinsight/internal/api"
	"github.com/aqinsight/aqinsight/internal/api/handler"
	"github.com/aqinsight/aqinsight/internal/api/middleware"
	"github.com/aqinsight/aqinsight/internal/config"
	"github.com/aqinsight/aqinsight/internal/database"
	"github.com/aqinsight/aqinsight/internal/heatmap"
	"github.com/aqinsight/aqinsight/internal/provider/resilience"
	"github.com/aqinsight/aqinsight/internal/store"
	"github.com/aqinsight/aqinsight/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "aqinsight-api"

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup structured logging
	log := telemetry.NewLogger(os.Stdout, serviceName, Version, cfg.LogLevel)

	log.Info().
		Str("build_time", BuildTime).
		Str("environment", cfg.Environment).
		Msg("starting AQInsight API")

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		Telemetry:      cfg.Telemetry,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize HTTP metrics")
	}
	resolverMetrics, err := airquality.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize resolver metrics")
	}
	heatmapMetrics, err := heatmap.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize heatmap metrics")
	}

	// Connect to database
	pool, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := store.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("failed to apply schema")
		}
		log.Info().Msg("schema applied")
	}
	repo := store.NewPostgresRepository(pool)

	// Live provider behind circuit breaker, retry and rate limiting
	registry := resilience.NewRegistry()
	live, liveCache := newLiveProvider(cfg.Provider, registry, log)

	resolver := airquality.NewResolver(airquality.ResolverConfig{
		Live:           live,
		Cache:          repo,
		Grid:           repo,
		Persister:      repo,
		Logger:         log,
		Metrics:        resolverMetrics,
		CacheRadiusDeg: cfg.Resolver.CacheRadiusDeg,
		CacheWindow:    cfg.Resolver.CacheWindow,
		GridRegion: airquality.Region{
			MinLat: cfg.Resolver.GridMinLat,
			MaxLat: cfg.Resolver.GridMaxLat,
			MinLon: cfg.Resolver.GridMinLon,
			MaxLon: cfg.Resolver.GridMaxLon,
		},
		StepTimeout:    cfg.Resolver.StepTimeout,
		PersistTimeout: cfg.Resolver.PersistTimeout,
		FallbackAQI:    cfg.Resolver.FallbackAQI,
	})

	interpolator := heatmap.NewInterpolator(heatmap.InterpolatorConfig{
		Live:         live,
		Logger:       log,
		Metrics:      heatmapMetrics,
		Concurrency:  cfg.Heatmap.ProbeConcurrency,
		ProbeTimeout: cfg.Heatmap.ProbeTimeout,
	})

	analyticsService := analytics.NewService(analytics.ServiceConfig{
		History: repo,
		Logger:  log,
	})

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:          Version,
		BuildTime:        BuildTime,
		Logger:           log,
		ServiceName:      serviceName,
		Metrics:          httpMetrics,
		Resolver:         resolver,
		Interpolator:     interpolator,
		Analytics:        analyticsService,
		Storage:          repo,
		Registry:         registry,
		LiveCache:        liveCache,
		RateLimit:        cfg.Server.RateLimit,
		HeatmapRateLimit: cfg.Server.HeatmapLimit,
		RequireTLS:       cfg.Server.RequireTLS,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// Let background observation writes finish before the pool closes.
	resolver.Wait()

	log.Info().Msg("server stopped")
}

// newLiveProvider builds the OpenWeatherMap client, registers it for readiness
// reporting and fronts it with a short-lived memory cache unless disabled. The
// returned stats source is nil when the cache is off.
func newLiveProvider(cfg config.ProviderConfig, registry *resilience.Registry, log zerolog.Logger) (airquality.LiveProvider, handler.CacheStatter) {
	if cfg.OWMAPIKey == "" {
		log.Warn().Msg("OWM_API_KEY not set - live lookups will miss and fall through")
	}

	clientCfg := resilience.DefaultClientConfig(openweathermap.ProviderName)
	clientCfg.Timeout = cfg.Timeout
	clientCfg.MaxRetries = cfg.MaxRetries
	clientCfg.RequestsPerSecond = cfg.RequestsPerSecond
	clientCfg.Registry = registry
	clientCfg.CircuitBreaker.OnStateChange = resilience.LogStateChanges(log)

	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     cfg.OWMAPIKey,
		BaseURL:    cfg.OWMBaseURL,
		HTTPClient: resilience.NewClient(clientCfg),
		Logger:     log,
	})
	if cfg.CacheTTL <= 0 {
		return client, nil
	}

	cache := livecache.New(livecache.Config{
		Provider: client,
		Logger:   log,
		TTL:      cfg.CacheTTL,
	})
	return cache, cache
}
