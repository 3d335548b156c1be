package store

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/aqinsight/aqinsight/internal/aqi"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and local runs. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu           sync.RWMutex
	observations []Observation
	grid         []Observation
	obsKeys      map[pointKey]struct{}
	gridKeys     map[pointKey]struct{}
	now          func() time.Time
}

// pointKey identifies an observation by place and time.
type pointKey struct {
	lat, lon   float64
	observedAt int64
}

// NewInMemoryRepository creates a new in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		obsKeys:  make(map[pointKey]struct{}),
		gridKeys: make(map[pointKey]struct{}),
		now:      time.Now,
	}
}

func keyOf(obs Observation) pointKey {
	return pointKey{lat: obs.Lat, lon: obs.Lon, observedAt: obs.ObservedAt.UnixNano()}
}

func (r *InMemoryRepository) record(reading *aqi.Reading, overall int, source Source) Observation {
	obs := Observation{Reading: *reading, AQI: aqi.Int(overall), Source: source}
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = r.now().UTC()
	}
	return obs
}

// Persist appends a live observation. A repeat of an observation already
// stored at the same place and time is ignored.
func (r *InMemoryRepository) Persist(_ context.Context, reading *aqi.Reading, overall int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	obs := r.record(reading, overall, SourceObservations)
	key := keyOf(obs)
	if _, ok := r.obsKeys[key]; ok {
		return nil
	}
	r.obsKeys[key] = struct{}{}
	r.observations = append(r.observations, obs)
	return nil
}

// ReadCached returns the newest live observation within radiusDeg of the point.
func (r *InMemoryRepository) ReadCached(_ context.Context, lat, lon, radiusDeg float64, since time.Time) (*aqi.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *Observation
	for i := range r.observations {
		o := &r.observations[i]
		if math.Abs(o.Lat-lat) >= radiusDeg || math.Abs(o.Lon-lon) >= radiusDeg {
			continue
		}
		if !since.IsZero() && o.ObservedAt.Before(since) {
			continue
		}
		if best == nil || o.ObservedAt.After(best.ObservedAt) {
			best = o
		}
	}

	if best == nil {
		return nil, ErrNotFound
	}
	cpy := best.Reading
	return &cpy, nil
}

// ReadGrid returns the nearest grid cell by Manhattan distance, newest first on ties.
func (r *InMemoryRepository) ReadGrid(_ context.Context, lat, lon float64) (*aqi.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *Observation
	bestDist := math.Inf(1)
	for i := range r.grid {
		o := &r.grid[i]
		d := manhattan(o, lat, lon)
		if d < bestDist || (d == bestDist && o.ObservedAt.After(best.ObservedAt)) {
			best = o
			bestDist = d
		}
	}

	if best == nil {
		return nil, ErrNotFound
	}
	cpy := best.Reading
	return &cpy, nil
}

// SaveGridCell appends a grid cell, ignoring duplicates.
func (r *InMemoryRepository) SaveGridCell(_ context.Context, reading *aqi.Reading, overall int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	obs := r.record(reading, overall, SourceGrid)
	key := keyOf(obs)
	if _, ok := r.gridKeys[key]; ok {
		return false, nil
	}
	r.gridKeys[key] = struct{}{}
	r.grid = append(r.grid, obs)
	return true, nil
}

// History returns the nearest grid cells observed since the given time.
func (r *InMemoryRepository) History(_ context.Context, lat, lon float64, since time.Time, limit int) ([]Observation, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Observation
	for _, o := range r.grid {
		if o.ObservedAt.Before(since) {
			continue
		}
		out = append(out, o)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return manhattan(&out[i], lat, lon) < manhattan(&out[j], lat, lon)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Ping always succeeds.
func (r *InMemoryRepository) Ping(context.Context) error {
	return nil
}

// Observations returns a copy of the persisted live observations.
func (r *InMemoryRepository) Observations() []Observation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Observation, len(r.observations))
	copy(out, r.observations)
	return out
}

// GridSize returns the number of stored grid cells.
func (r *InMemoryRepository) GridSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.grid)
}

func manhattan(o *Observation, lat, lon float64) float64 {
	return math.Abs(o.Lat-lat) + math.Abs(o.Lon-lon)
}
