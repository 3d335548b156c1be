// Package heatmap turns scattered AQI probes over a bounding box into a smooth,
// dense grid using radial basis function interpolation.
package heatmap

import (
	"fmt"
	"math"

	"github.com/aqinsight/aqinsight/internal/aqi"
)

// ErrInvalidBBox is returned for a bounding box that cannot be sampled.
var ErrInvalidBBox = fmt.Errorf("%w: invalid bounding box", aqi.ErrInvalidInput)

// Probe and output resolution limits.
const (
	MinDensity     = 3
	MaxDensity     = 11
	DefaultDensity = 5

	MinOutRes     = 40
	MaxOutRes     = 200
	DefaultOutRes = 80

	// MinSamples is the number of distinct samples needed for a fit.
	MinSamples = 4

	// FlatAQI fills degenerate grids.
	FlatAQI = 50.0
)

// Notes attached to degenerate grids.
const (
	NoteInsufficientSamples = "fallback - insufficient samples"
	NoteSingularSamples     = "fallback - singular sample configuration"
)

// BBox is a bounding box given by two opposite corners in any order.
type BBox struct {
	Lat1 float64
	Lon1 float64
	Lat2 float64
	Lon2 float64
}

// bounds is a normalized bounding box.
type bounds struct {
	minLat, maxLat float64
	minLon, maxLon float64
}

// normalize orders the corners and validates the box.
func (b BBox) normalize() (bounds, error) {
	for _, v := range []float64{b.Lat1, b.Lon1, b.Lat2, b.Lon2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return bounds{}, fmt.Errorf("%w: non-finite corner", ErrInvalidBBox)
		}
	}
	if math.Abs(b.Lat1) > 90 || math.Abs(b.Lat2) > 90 {
		return bounds{}, fmt.Errorf("%w: latitude out of range", ErrInvalidBBox)
	}
	if math.Abs(b.Lon1) > 180 || math.Abs(b.Lon2) > 180 {
		return bounds{}, fmt.Errorf("%w: longitude out of range", ErrInvalidBBox)
	}

	bb := bounds{
		minLat: math.Min(b.Lat1, b.Lat2),
		maxLat: math.Max(b.Lat1, b.Lat2),
		minLon: math.Min(b.Lon1, b.Lon2),
		maxLon: math.Max(b.Lon1, b.Lon2),
	}
	if bb.minLat == bb.maxLat || bb.minLon == bb.maxLon {
		return bounds{}, fmt.Errorf("%w: zero area", ErrInvalidBBox)
	}
	return bb, nil
}

// Sample is one successful probe.
type Sample struct {
	Lon float64
	Lat float64
	AQI float64
}

// Grid is an interpolated AQI field. Values is indexed [lat][lon].
type Grid struct {
	Lats       []float64   `json:"grid_lats"`
	Lons       []float64   `json:"grid_lons"`
	Values     [][]float64 `json:"grid_aqi"`
	Degenerate bool        `json:"degenerate"`
	Note       string      `json:"note,omitempty"`
	Samples    int         `json:"samples"`
}

// clamp limits v to [lo, hi].
func clamp[T int | float64](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampDensity limits the probe density to [MinDensity, MaxDensity].
func ClampDensity(n int) int {
	return clamp(n, MinDensity, MaxDensity)
}

// ClampOutRes limits the output resolution to [MinOutRes, MaxOutRes].
func ClampOutRes(n int) int {
	return clamp(n, MinOutRes, MaxOutRes)
}
