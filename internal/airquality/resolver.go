package airquality

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aqinsight/aqinsight/internal/aqi"
)

// LiveProvider fetches current pollutant concentrations from an external service.
type LiveProvider interface {
	ObserveLive(ctx context.Context, lat, lon float64) (*aqi.Reading, error)
}

// CacheReader returns the most recent stored reading within radiusDeg of a point.
// A zero since means no time bound. An error or a nil reading is a miss.
type CacheReader interface {
	ReadCached(ctx context.Context, lat, lon, radiusDeg float64, since time.Time) (*aqi.Reading, error)
}

// GridReader returns the nearest precomputed grid cell. An error or a nil
// reading is a miss.
type GridReader interface {
	ReadGrid(ctx context.Context, lat, lon float64) (*aqi.Reading, error)
}

// Persister stores live observations. Failures are logged and otherwise ignored.
type Persister interface {
	Persist(ctx context.Context, r *aqi.Reading, overall int) error
}

// ResolverConfig holds configuration for the resolver.
type ResolverConfig struct {
	// Live is the live observation provider. Optional.
	Live LiveProvider

	// Cache is the stored observation reader. Optional.
	Cache CacheReader

	// Grid is the precomputed grid reader. Optional.
	Grid GridReader

	// Persister stores live hits. Optional.
	Persister Persister

	// Logger for resolution outcomes.
	Logger zerolog.Logger

	// Metrics records resolution outcomes. Optional.
	Metrics *Metrics

	// CacheRadiusDeg is the cache search radius in degrees (default: 1.0).
	CacheRadiusDeg float64

	// CacheWindow bounds the age of cached readings. Zero means unbounded.
	CacheWindow time.Duration

	// GridRegion limits the grid step (default: DefaultGridRegion).
	GridRegion Region

	// StepTimeout bounds every collaborator call (default: 8s).
	StepTimeout time.Duration

	// PersistTimeout bounds background persistence (default: 5s).
	PersistTimeout time.Duration

	// FallbackAQI is the constant returned when every step misses (default: 50).
	FallbackAQI int

	// Now is the clock used for cache windows (default: time.Now).
	Now func() time.Time
}

// Resolver walks the resolution steps in order and returns the first hit.
type Resolver struct {
	steps          []Step
	persister      Persister
	logger         zerolog.Logger
	metrics        *Metrics
	stepTimeout    time.Duration
	persistTimeout time.Duration
	fallbackAQI    int

	pending sync.WaitGroup
}

// NewResolver creates a resolver. Steps whose collaborator is nil are left out;
// the fallback step is always last.
func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.CacheRadiusDeg <= 0 {
		cfg.CacheRadiusDeg = 1.0
	}
	if cfg.GridRegion.IsZero() {
		cfg.GridRegion = DefaultGridRegion
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = 8 * time.Second
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 5 * time.Second
	}
	if cfg.FallbackAQI <= 0 {
		cfg.FallbackAQI = DefaultFallbackAQI
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var steps []Step
	if cfg.Live != nil {
		steps = append(steps, &liveStep{provider: cfg.Live})
	}
	if cfg.Cache != nil {
		steps = append(steps, &cacheStep{
			reader: cfg.Cache,
			radius: cfg.CacheRadiusDeg,
			window: cfg.CacheWindow,
			now:    cfg.Now,
		})
	}
	if cfg.Grid != nil {
		steps = append(steps, &gridStep{reader: cfg.Grid, region: cfg.GridRegion})
	}
	steps = append(steps, &fallbackStep{aqi: cfg.FallbackAQI})

	return &Resolver{
		steps:          steps,
		persister:      cfg.Persister,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		stepTimeout:    cfg.StepTimeout,
		persistTimeout: cfg.PersistTimeout,
		fallbackAQI:    cfg.FallbackAQI,
	}
}

// Resolve returns the best available AQI record for the point. It never fails:
// collaborator errors and timeouts only advance the chain.
func (r *Resolver) Resolve(ctx context.Context, lat, lon float64) Record {
	start := time.Now()

	for _, step := range r.steps {
		res := r.run(ctx, step, lat, lon)
		if res.Record == nil {
			r.logger.Debug().
				Str("step", string(step.Provenance())).
				Float64("lat", lat).
				Float64("lon", lon).
				AnErr("reason", res.Miss).
				Msg("resolution step missed")
			continue
		}

		rec := *res.Record
		if rec.Provenance == ProvenanceLive {
			r.persist(rec)
		}
		r.metrics.recordResolution(ctx, rec.Provenance, time.Since(start))
		return rec
	}

	// Reached only when the caller's context expired before the fallback step reported.
	rec := fallbackRecord(lat, lon, r.fallbackAQI)
	r.metrics.recordResolution(ctx, rec.Provenance, time.Since(start))
	return rec
}

// Wait blocks until background persistence started by Resolve has finished.
func (r *Resolver) Wait() {
	r.pending.Wait()
}

// run executes one step under the step timeout. A step that panics or outlives
// the timeout is reported as a miss.
func (r *Resolver) run(ctx context.Context, step Step, lat, lon float64) StepResult {
	stepCtx, cancel := context.WithTimeout(ctx, r.stepTimeout)
	defer cancel()

	done := make(chan StepResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- miss(fmt.Errorf("step %s panicked: %v", step.Provenance(), p))
			}
		}()
		done <- step.Resolve(stepCtx, lat, lon)
	}()

	select {
	case res := <-done:
		return res
	case <-stepCtx.Done():
		return miss(fmt.Errorf("step %s: %w", step.Provenance(), stepCtx.Err()))
	}
}

// persist stores a live observation in the background.
func (r *Resolver) persist(rec Record) {
	if r.persister == nil {
		return
	}

	reading := rec.Reading
	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error().Interface("panic", p).Msg("observation persistence panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.persistTimeout)
		defer cancel()

		if err := r.persister.Persist(ctx, &reading, rec.AQI); err != nil {
			r.logger.Warn().
				Err(err).
				Float64("lat", reading.Lat).
				Float64("lon", reading.Lon).
				Msg("failed to persist live observation")
		}
	}()
}
