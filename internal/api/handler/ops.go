// Package handler provides HTTP handlers for the AQInsight API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/aqinsight/aqinsight/internal/airquality/livecache"
	"github.com/aqinsight/aqinsight/internal/api/models"
	"github.com/aqinsight/aqinsight/internal/api/response"
	"github.com/aqinsight/aqinsight/internal/provider/resilience"
)

const readinessTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheStatter reports live cache usage.
type CacheStatter interface {
	Stats() livecache.Stats
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	storage   Pinger
	registry  *resilience.Registry
	liveCache CacheStatter
}

// OpsHandlerConfig holds configuration for the ops handler.
type OpsHandlerConfig struct {
	Version   string
	BuildTime string

	// Storage is checked on readiness. Optional.
	Storage Pinger

	// Registry reports upstream provider health. Optional.
	Registry *resilience.Registry

	// LiveCache is reported on readiness when set.
	LiveCache CacheStatter
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsHandlerConfig) *OpsHandler {
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		storage:   cfg.Storage,
		registry:  cfg.Registry,
		liveCache: cfg.LiveCache,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready. Unreachable storage fails the
// check with 503; unhealthy providers only degrade it.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ready := models.Readiness{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{},
		Providers:  []models.ProviderStatus{},
	}

	if h.storage != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		err := h.storage.Ping(ctx)
		cancel()

		sub := models.SubsystemStatus{Name: "storage", Status: models.HealthStatusOK}
		if err != nil {
			detail := err.Error()
			sub.Status = models.HealthStatusFail
			sub.Detail = &detail
			ready.Status = models.HealthStatusFail
		}
		ready.Subsystems = append(ready.Subsystems, sub)
	}

	if h.registry != nil {
		for _, ph := range h.registry.Snapshot() {
			ps := providerStatus(ph)
			if ps.Status != models.HealthStatusOK && ready.Status == models.HealthStatusOK {
				ready.Status = models.HealthStatusDegraded
			}
			ready.Providers = append(ready.Providers, ps)
		}
	}

	if h.liveCache != nil {
		stats := h.liveCache.Stats()
		ready.LiveCache = &models.CacheStatus{
			Entries: stats.Entries,
			Fresh:   stats.Fresh,
			Hits:    stats.Hits,
			Misses:  stats.Misses,
		}
	}

	status := http.StatusOK
	if ready.Status == models.HealthStatusFail {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, r, status, ready)
}

func providerStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:     ph.Name,
		Status:       models.HealthStatusOK,
		CircuitState: ph.CircuitState.String(),
	}
	switch {
	case ph.IsUnhealthy():
		ps.Status = models.HealthStatusFail
	case ph.IsDegraded():
		ps.Status = models.HealthStatusDegraded
	}
	if ph.LastSuccessAt != nil {
		ps.LastSuccessAt = models.TimestampPtr(*ph.LastSuccessAt)
	}
	if ph.LastFailureAt != nil {
		ps.LastFailureAt = models.TimestampPtr(*ph.LastFailureAt)
	}
	if ph.LastError != "" {
		msg := ph.LastError
		ps.Message = &msg
	}
	return ps
}
