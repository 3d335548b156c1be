// Package worker refreshes the precomputed AQI grid in the background.
package worker

import (
	"math"
	"time"

	"github.com/aqinsight/aqinsight/internal/config"
)

// Point represents a geographic coordinate on the refresh lattice.
type Point struct {
	Lat float64
	Lon float64
}

// GridConfig describes the lattice walked by a refresh run.
type GridConfig struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64

	// Step is the lattice spacing in degrees.
	// Default: 1.0
	Step float64

	// Concurrency is the number of concurrent provider fetches.
	// Default: 4
	Concurrency int

	// PointTimeout bounds a single fetch and store.
	// Default: 10 seconds
	PointTimeout time.Duration

	// RequestsPerSecond caps the provider request rate across all workers.
	// Default: 1
	RequestsPerSecond float64
}

// DefaultGridConfig returns the 1-degree lattice over the Indian subcontinent.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		MinLat:            6,
		MaxLat:            38,
		MinLon:            68,
		MaxLon:            98,
		Step:              1.0,
		Concurrency:       4,
		PointTimeout:      10 * time.Second,
		RequestsPerSecond: 1,
	}
}

// GridConfigFrom maps the environment configuration onto a GridConfig.
func GridConfigFrom(c config.GridConfig) GridConfig {
	return GridConfig{
		MinLat:            c.MinLat,
		MaxLat:            c.MaxLat,
		MinLon:            c.MinLon,
		MaxLon:            c.MaxLon,
		Step:              c.Step,
		Concurrency:       c.Concurrency,
		PointTimeout:      c.PointTimeout,
		RequestsPerSecond: c.RequestsPerSecond,
	}
}

func (c GridConfig) withDefaults() GridConfig {
	d := DefaultGridConfig()
	if c.MinLat == 0 && c.MaxLat == 0 && c.MinLon == 0 && c.MaxLon == 0 {
		c.MinLat, c.MaxLat, c.MinLon, c.MaxLon = d.MinLat, d.MaxLat, d.MinLon, d.MaxLon
	}
	if c.Step <= 0 {
		c.Step = d.Step
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.PointTimeout <= 0 {
		c.PointTimeout = d.PointTimeout
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = d.RequestsPerSecond
	}
	return c
}

// AllPoints returns every lattice point, latitude-major, both bounds included.
// Coordinates are rounded to three decimals so repeated runs hit the same keys.
func (c GridConfig) AllPoints() []Point {
	lats := axis(c.MinLat, c.MaxLat, c.Step)
	lons := axis(c.MinLon, c.MaxLon, c.Step)

	points := make([]Point, 0, len(lats)*len(lons))
	for _, lat := range lats {
		for _, lon := range lons {
			points = append(points, Point{Lat: lat, Lon: lon})
		}
	}
	return points
}

// TotalPoints returns the number of lattice points.
func (c GridConfig) TotalPoints() int {
	return len(axis(c.MinLat, c.MaxLat, c.Step)) * len(axis(c.MinLon, c.MaxLon, c.Step))
}

func axis(from, to, step float64) []float64 {
	if step <= 0 || to < from {
		return nil
	}
	n := int(math.Floor((to-from)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = round3(from + float64(i)*step)
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
