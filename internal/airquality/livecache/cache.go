// Package livecache memoizes live pollutant readings for a short time so that
// overlapping heatmaps and repeated lookups do not hit the provider again.
package livecache

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/aqinsight/aqinsight/internal/airquality"
	"github.com/aqinsight/aqinsight/internal/aqi"
)

// Config holds configuration for the live reading cache.
type Config struct {
	// Provider is the wrapped live provider (required).
	Provider airquality.LiveProvider

	// Logger for cache operations.
	Logger zerolog.Logger

	// TTL is how long a reading is served from memory (default: 5 minutes).
	TTL time.Duration

	// CellSize is the cache grid cell size in degrees (default: 0.01).
	// Points within the same cell share a reading.
	CellSize float64

	// Now is the clock used for expiry (default: time.Now).
	Now func() time.Time
}

// Stats reports cache usage.
type Stats struct {
	Entries int
	Fresh   int
	Hits    int64
	Misses  int64
}

// Cache is a LiveProvider that serves recent readings from memory.
type Cache struct {
	provider airquality.LiveProvider
	logger   zerolog.Logger
	ttl      time.Duration
	cellSize float64
	now      func() time.Time

	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64

	mu              sync.RWMutex
	entries         map[string]*entry
	lastCleanup     time.Time
	cleanupInterval time.Duration
}

type entry struct {
	reading   aqi.Reading
	expiresAt time.Time
}

var _ airquality.LiveProvider = (*Cache)(nil)

// New creates a live reading cache.
func New(cfg Config) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.CellSize <= 0 {
		cfg.CellSize = 0.01 // ~1km at the equator
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Cache{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		ttl:             cfg.TTL,
		cellSize:        cfg.CellSize,
		now:             cfg.Now,
		entries:         make(map[string]*entry),
		cleanupInterval: cfg.TTL,
	}
}

// ObserveLive returns a cached reading for the cell containing the point, or
// fetches one. Concurrent misses on the same cell share one provider call.
// Errors are never cached.
func (c *Cache) ObserveLive(ctx context.Context, lat, lon float64) (*aqi.Reading, error) {
	key := c.cacheKey(lat, lon)

	if r, ok := c.lookup(key); ok {
		c.hits.Add(1)
		return r, nil
	}
	c.misses.Add(1)

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Double-check cache
		if r, ok := c.lookup(key); ok {
			return r, nil
		}

		c.logger.Debug().
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("fetching live reading from provider")

		reading, err := c.provider.ObserveLive(ctx, lat, lon)
		if err != nil {
			return nil, err
		}
		if reading == nil {
			return nil, airquality.ErrNoReading
		}
		c.store(key, reading)
		return copyReading(reading), nil
	})
	if err != nil {
		return nil, err
	}

	return copyReading(v.(*aqi.Reading)), nil
}

func (c *Cache) lookup(key string) (*aqi.Reading, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return copyReading(&e.reading), true
}

func (c *Cache) store(key string, r *aqi.Reading) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = &entry{reading: *r, expiresAt: now.Add(c.ttl)}
	c.cleanupIfNeeded(now)
}

// cacheKey snaps a point to its grid cell.
func (c *Cache) cacheKey(lat, lon float64) string {
	cellLat := math.Floor(lat / c.cellSize)
	cellLon := math.Floor(lon / c.cellSize)
	return fmt.Sprintf("%.0f:%.0f", cellLat, cellLon)
}

// cleanupIfNeeded removes expired entries once per cleanup interval. Callers
// hold mu.
func (c *Cache) cleanupIfNeeded(now time.Time) {
	if now.Sub(c.lastCleanup) < c.cleanupInterval {
		return
	}
	c.lastCleanup = now

	expired := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			expired++
		}
	}

	if expired > 0 {
		c.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired live readings")
	}
}

// Stats returns cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	fresh := 0
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			fresh++
		}
	}

	return Stats{
		Entries: len(c.entries),
		Fresh:   fresh,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

// copyReading returns a deep copy so callers cannot mutate cached values.
func copyReading(r *aqi.Reading) *aqi.Reading {
	out := *r
	for _, p := range []**float64{&out.PM25, &out.PM10, &out.CO, &out.NO2, &out.SO2, &out.O3} {
		if *p != nil {
			v := **p
			*p = &v
		}
	}
	return &out
}
