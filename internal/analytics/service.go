package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aqinsight/aqinsight/internal/aqi"
	"github.com/aqinsight/aqinsight/internal/store"
)

// Query bounds.
const (
	DefaultDays     = 30
	MinDays         = 1
	MaxDays         = 365
	DefaultWindow   = 3
	MinWindow       = 1
	MaxWindow       = 30
	DefaultRadiusKm = 70.0
)

// HistoryReader loads stored observations near a point.
type HistoryReader interface {
	History(ctx context.Context, lat, lon float64, since time.Time, limit int) ([]store.Observation, error)
}

// Query selects the history of a point.
type Query struct {
	Lat      float64
	Lon      float64
	Days     int
	RadiusKm float64
	Window   int
}

// Validate checks the query against the accepted ranges.
func (q Query) Validate() error {
	if math.IsNaN(q.Lat) || q.Lat < -90 || q.Lat > 90 {
		return fmt.Errorf("%w: lat must be within [-90, 90]", aqi.ErrInvalidInput)
	}
	if math.IsNaN(q.Lon) || q.Lon < -180 || q.Lon > 180 {
		return fmt.Errorf("%w: lon must be within [-180, 180]", aqi.ErrInvalidInput)
	}
	if q.Days < MinDays || q.Days > MaxDays {
		return fmt.Errorf("%w: days must be within [%d, %d]", aqi.ErrInvalidInput, MinDays, MaxDays)
	}
	if q.Window < MinWindow || q.Window > MaxWindow {
		return fmt.Errorf("%w: rolling window must be within [%d, %d]", aqi.ErrInvalidInput, MinWindow, MaxWindow)
	}
	if !(q.RadiusKm > 0) || math.IsInf(q.RadiusKm, 0) {
		return fmt.Errorf("%w: radius_km must be positive", aqi.ErrInvalidInput)
	}
	return nil
}

// ServiceConfig holds configuration for the analytics service.
type ServiceConfig struct {
	// History is the observation source (required).
	History HistoryReader

	// Logger for analytics operations.
	Logger zerolog.Logger

	// Limit caps the rows loaded per query (default: store.DefaultHistoryLimit).
	Limit int

	// Now is the clock used to compute the history window (default: time.Now).
	Now func() time.Time
}

// Service answers history queries for a point.
type Service struct {
	history HistoryReader
	logger  zerolog.Logger
	limit   int
	now     func() time.Time
}

// NewService creates an analytics service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Limit <= 0 {
		cfg.Limit = store.DefaultHistoryLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		history: cfg.History,
		logger:  cfg.Logger,
		limit:   cfg.Limit,
		now:     cfg.Now,
	}
}

// Raw returns the history rows in ascending time order.
func (s *Service) Raw(ctx context.Context, q Query) ([]store.Observation, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	since := s.now().UTC().Add(-time.Duration(q.Days) * 24 * time.Hour)
	obs, err := s.history.History(ctx, q.Lat, q.Lon, since, s.limit)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].ObservedAt.Before(obs[j].ObservedAt)
	})

	s.logger.Debug().
		Float64("lat", q.Lat).
		Float64("lon", q.Lon).
		Int("days", q.Days).
		Int("rows", len(obs)).
		Msg("history loaded")

	return obs, nil
}

// Timeseries returns the chartable series with rolling overlays.
func (s *Service) Timeseries(ctx context.Context, q Query) ([]Point, error) {
	obs, err := s.Raw(ctx, q)
	if err != nil {
		return nil, err
	}
	return Timeseries(obs, q.Window)
}

// Summary returns per-metric statistics, or nil when there is no history.
func (s *Service) Summary(ctx context.Context, q Query) (*Summary, error) {
	obs, err := s.Raw(ctx, q)
	if err != nil {
		return nil, err
	}
	return Summarize(obs), nil
}

// Daily returns per-day averages.
func (s *Service) Daily(ctx context.Context, q Query) ([]Day, error) {
	obs, err := s.Raw(ctx, q)
	if err != nil {
		return nil, err
	}
	return Daily(obs), nil
}
