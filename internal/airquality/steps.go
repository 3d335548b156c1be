package airquality

import (
	"context"
	"time"

	"github.com/aqinsight/aqinsight/internal/aqi"
)

// Step is one source in the resolution chain.
type Step interface {
	Provenance() Provenance
	Resolve(ctx context.Context, lat, lon float64) StepResult
}

// StepResult is either a hit (Record set) or a miss (Miss explains why).
type StepResult struct {
	Record *Record
	Miss   error
}

func hit(r *Record) StepResult {
	return StepResult{Record: r}
}

func miss(err error) StepResult {
	return StepResult{Miss: err}
}

// fromReading turns a collaborator response into a step result.
func fromReading(lat, lon float64, reading *aqi.Reading, err error, p Provenance) StepResult {
	if err != nil {
		return miss(err)
	}
	if reading == nil {
		return miss(ErrNoReading)
	}
	rec, err := newRecord(lat, lon, reading, p)
	if err != nil {
		return miss(err)
	}
	return hit(rec)
}

type liveStep struct {
	provider LiveProvider
}

func (s *liveStep) Provenance() Provenance { return ProvenanceLive }

func (s *liveStep) Resolve(ctx context.Context, lat, lon float64) StepResult {
	reading, err := s.provider.ObserveLive(ctx, lat, lon)
	return fromReading(lat, lon, reading, err, ProvenanceLive)
}

type cacheStep struct {
	reader CacheReader
	radius float64
	window time.Duration
	now    func() time.Time
}

func (s *cacheStep) Provenance() Provenance { return ProvenanceCache }

func (s *cacheStep) Resolve(ctx context.Context, lat, lon float64) StepResult {
	var since time.Time
	if s.window > 0 {
		since = s.now().Add(-s.window)
	}
	reading, err := s.reader.ReadCached(ctx, lat, lon, s.radius, since)
	return fromReading(lat, lon, reading, err, ProvenanceCache)
}

type gridStep struct {
	reader GridReader
	region Region
}

func (s *gridStep) Provenance() Provenance { return ProvenanceGrid }

func (s *gridStep) Resolve(ctx context.Context, lat, lon float64) StepResult {
	if !s.region.Contains(lat, lon) {
		return miss(ErrOutsideGridRegion)
	}
	reading, err := s.reader.ReadGrid(ctx, lat, lon)
	return fromReading(lat, lon, reading, err, ProvenanceGrid)
}

type fallbackStep struct {
	aqi int
}

func (s *fallbackStep) Provenance() Provenance { return ProvenanceFallback }

func (s *fallbackStep) Resolve(_ context.Context, lat, lon float64) StepResult {
	rec := fallbackRecord(lat, lon, s.aqi)
	return hit(&rec)
}

func fallbackRecord(lat, lon float64, value int) Record {
	return Record{
		Lat:        lat,
		Lon:        lon,
		Reading:    aqi.Reading{Lat: lat, Lon: lon},
		AQI:        value,
		Category:   aqi.CategoryOf(value),
		Provenance: ProvenanceFallback,
	}
}
