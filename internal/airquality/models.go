// Package airquality resolves a best-effort AQI for any coordinate by walking an
// ordered chain of data sources.
package airquality

import (
	"errors"
	"time"

	"github.com/aqinsight/aqinsight/internal/aqi"
)

// Resolution errors. They describe why a step missed and never escape Resolve.
var (
	ErrProviderUnavailable = errors.New("air quality provider unavailable")
	ErrNoReading           = errors.New("no reading available")
	ErrOutsideGridRegion   = errors.New("point outside grid region")
)

// Provenance identifies which resolution step produced a record.
type Provenance string

const (
	ProvenanceLive     Provenance = "live"
	ProvenanceCache    Provenance = "cache"
	ProvenanceGrid     Provenance = "grid"
	ProvenanceFallback Provenance = "fallback"
)

// DefaultFallbackAQI is returned when every other source misses ("Good").
const DefaultFallbackAQI = 50

// Record is a resolved AQI value at a point.
type Record struct {
	// Lat and Lon are the queried coordinates.
	Lat float64
	Lon float64

	// ObservedAt is when the source reading was taken. Zero for fallback records.
	ObservedAt time.Time

	// Reading holds the source concentrations. All fields are nil for fallback records.
	Reading aqi.Reading

	SubIndices aqi.SubIndices
	AQI        int
	Category   aqi.Category
	Provenance Provenance
}

// newRecord converts a reading into a record tagged with the given provenance.
func newRecord(lat, lon float64, r *aqi.Reading, p Provenance) (*Record, error) {
	subs, overall, err := aqi.Compute(r)
	if err != nil {
		return nil, err
	}
	return &Record{
		Lat:        lat,
		Lon:        lon,
		ObservedAt: r.ObservedAt,
		Reading:    *r,
		SubIndices: subs,
		AQI:        overall,
		Category:   aqi.CategoryOf(overall),
		Provenance: p,
	}, nil
}

// Region is a latitude/longitude bounding box.
type Region struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// DefaultGridRegion covers the precomputed grid of the reference deployment.
var DefaultGridRegion = Region{MinLat: 6, MaxLat: 38, MinLon: 68, MaxLon: 98}

// Contains reports whether the point lies inside the region, edges included.
func (r Region) Contains(lat, lon float64) bool {
	return lat >= r.MinLat && lat <= r.MaxLat && lon >= r.MinLon && lon <= r.MaxLon
}

// IsZero reports whether the region is unset.
func (r Region) IsZero() bool {
	return r == Region{}
}
