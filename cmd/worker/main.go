// Package main provides the entrypoint for the AQInsight grid refresh worker.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aqinsight/aqinsight/internal/airquality/openweathermap"
	"github.com/aqinsight/aqinsight/internal/config"
	"github.com/aqinsight/aqinsight/internal/database"
	"github.com/aqinsight/aqinsight/internal/provider/resilience"
	"github.com/aqinsight/aqinsight/internal/store"
	"github.com/aqinsight/aqinsight/internal/telemetry"
	"github.com/aqinsight/aqinsight/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "aqinsight-worker"

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := telemetry.NewLogger(os.Stdout, serviceName, Version, cfg.LogLevel)
	log.Info().
		Str("build_time", BuildTime).
		Msg("starting AQInsight worker")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	pool, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := store.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("failed to apply schema")
		}
	}
	repo := store.NewPostgresRepository(pool)

	registry := resilience.NewRegistry()
	clientCfg := resilience.DefaultClientConfig(openweathermap.ProviderName)
	clientCfg.Timeout = cfg.Provider.Timeout
	clientCfg.MaxRetries = cfg.Provider.MaxRetries
	clientCfg.RequestsPerSecond = cfg.Provider.RequestsPerSecond
	clientCfg.Registry = registry
	clientCfg.CircuitBreaker.OnStateChange = resilience.LogStateChanges(log)

	live := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     cfg.Provider.OWMAPIKey,
		BaseURL:    cfg.Provider.OWMBaseURL,
		HTTPClient: resilience.NewClient(clientCfg),
		Logger:     log,
	})

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Grid:   worker.GridConfigFrom(cfg.Grid),
		Live:   live,
		Store:  repo,
		Logger: log,
	})

	scheduler := worker.NewScheduler(worker.SchedulerConfig{
		Job:        job,
		Interval:   cfg.Grid.Interval,
		RunOnStart: cfg.Grid.RunOnStart,
		Logger:     log,
	})
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	// Optional Pub/Sub trigger for on-demand refreshes
	var pubsubHandler *worker.PubSubHandler
	if cfg.PubSub.ProjectID != "" {
		pubsubHandler, err = worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSub.ProjectID,
			SubscriptionName: cfg.PubSub.Subscription,
			RefreshJob:       job,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}

		go func() {
			if err := pubsubHandler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	}

	// Worker also exposes health endpoints for Cloud Run
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"version": Version,
		})
	})
	mux.HandleFunc("/metrics/refresh", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(job.MetricsSnapshot())
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()
	scheduler.Stop()

	if pubsubHandler != nil {
		if err := pubsubHandler.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close pubsub client")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
