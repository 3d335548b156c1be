package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aqinsight/aqinsight/internal/airquality"
	"github.com/aqinsight/aqinsight/internal/aqi"
)

// ErrNoProvider is returned when a refresh runs without a live provider.
var ErrNoProvider = errors.New("no live provider configured")

// GridWriter stores computed grid cells.
type GridWriter interface {
	SaveGridCell(ctx context.Context, r *aqi.Reading, overall int) (inserted bool, err error)
}

// RefreshJob walks the grid lattice and stores one cell per point.
type RefreshJob struct {
	config  GridConfig
	logger  zerolog.Logger
	live    airquality.LiveProvider
	store   GridWriter
	limiter *rate.Limiter

	// serializes runs triggered by the scheduler and by pub/sub
	runMu sync.Mutex

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRefreshes int64
	StoredCells    int64
	DuplicateCells int64
	FailedPoints   int64

	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	TotalDuration       time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Grid   GridConfig
	Live   airquality.LiveProvider
	Store  GridWriter
	Logger zerolog.Logger
}

// NewRefreshJob creates a new grid refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	grid := cfg.Grid.withDefaults()

	return &RefreshJob{
		config:  grid,
		logger:  cfg.Logger,
		live:    cfg.Live,
		store:   cfg.Store,
		limiter: rate.NewLimiter(rate.Limit(grid.RequestsPerSecond), 1),
		metrics: &RefreshMetrics{},
	}
}

// Config returns the effective grid configuration.
func (j *RefreshJob) Config() GridConfig {
	return j.config
}

// RefreshResult contains the result of a refresh run.
type RefreshResult struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalPoints int

	// Stored counts newly inserted cells, Duplicates counts cells already present.
	Stored     int
	Duplicates int
	Failed     int

	// Skipped counts points never attempted because the run was cancelled.
	Skipped int

	Errors []RefreshError
}

// Successful returns the number of points that produced a cell.
func (r *RefreshResult) Successful() int {
	return r.Stored + r.Duplicates
}

// RefreshError represents a failed point.
type RefreshError struct {
	Point Point
	Error string
}

// Run executes one refresh over all lattice points. It never returns early on
// a per-point failure; failures are counted and logged.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	j.runMu.Lock()
	defer j.runMu.Unlock()

	startTime := time.Now()
	points := j.config.AllPoints()
	result := &RefreshResult{
		StartTime:   startTime,
		TotalPoints: len(points),
	}

	j.logger.Info().
		Int("total_points", result.TotalPoints).
		Int("concurrency", j.config.Concurrency).
		Float64("step", j.config.Step).
		Msg("starting grid refresh")

	pointsChan := make(chan Point, len(points))
	resultsChan := make(chan pointResult, len(points))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, pointsChan, resultsChan)
		}()
	}

	for _, p := range points {
		pointsChan <- p
	}
	close(pointsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	processed := 0
	for pr := range resultsChan {
		processed++
		switch {
		case pr.err != nil:
			result.Failed++
			result.Errors = append(result.Errors, RefreshError{Point: pr.point, Error: pr.err.Error()})
		case pr.inserted:
			result.Stored++
		default:
			result.Duplicates++
		}
	}
	result.Skipped = result.TotalPoints - processed

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("stored", result.Stored).
		Int("duplicates", result.Duplicates).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("grid refresh completed")

	return result
}

type pointResult struct {
	point    Point
	inserted bool
	err      error
}

func (j *RefreshJob) refreshWorker(ctx context.Context, points <-chan Point, results chan<- pointResult) {
	for point := range points {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.refreshPoint(ctx, point)
		}
	}
}

func (j *RefreshJob) refreshPoint(ctx context.Context, point Point) pointResult {
	result := pointResult{point: point}

	if j.live == nil || j.store == nil {
		result.err = ErrNoProvider
		return result
	}

	if err := j.limiter.Wait(ctx); err != nil {
		result.err = fmt.Errorf("rate limiter: %w", err)
		return result
	}

	pointCtx, cancel := context.WithTimeout(ctx, j.config.PointTimeout)
	defer cancel()

	reading, err := j.live.ObserveLive(pointCtx, point.Lat, point.Lon)
	if err != nil {
		result.err = err
		j.logger.Warn().Err(err).
			Float64("lat", point.Lat).
			Float64("lon", point.Lon).
			Msg("grid point fetch failed")
		return result
	}
	if reading == nil {
		result.err = airquality.ErrNoReading
		return result
	}

	// Cells are keyed on the lattice, not on whatever the provider echoes back.
	cell := *reading
	cell.Lat = point.Lat
	cell.Lon = point.Lon
	if cell.ObservedAt.IsZero() {
		cell.ObservedAt = time.Now().UTC()
	}

	_, overall, err := aqi.Compute(&cell)
	if err != nil {
		result.err = err
		return result
	}

	inserted, err := j.store.SaveGridCell(pointCtx, &cell, overall)
	if err != nil {
		result.err = fmt.Errorf("saving grid cell: %w", err)
		j.logger.Error().Err(err).
			Float64("lat", point.Lat).
			Float64("lon", point.Lon).
			Msg("grid cell write failed")
		return result
	}
	result.inserted = inserted

	j.logger.Debug().
		Float64("lat", point.Lat).
		Float64("lon", point.Lon).
		Int("aqi", overall).
		Bool("inserted", inserted).
		Msg("grid cell stored")

	return result
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRefreshes++
	j.metrics.StoredCells += int64(result.Stored)
	j.metrics.DuplicateCells += int64(result.Duplicates)
	j.metrics.FailedPoints += int64(result.Failed)
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastRefreshDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRefreshes:      j.metrics.TotalRefreshes,
		StoredCells:         j.metrics.StoredCells,
		DuplicateCells:      j.metrics.DuplicateCells,
		FailedPoints:        j.metrics.FailedPoints,
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		TotalDuration:       j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_refreshes":       m.TotalRefreshes,
		"stored_cells":          m.StoredCells,
		"duplicate_cells":       m.DuplicateCells,
		"failed_points":         m.FailedPoints,
		"last_refresh_at":       m.LastRefreshAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"total_duration":        m.TotalDuration.String(),
	}
}
