package heatmap

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/aqinsight/aqinsight/internal/airquality"
	"github.com/aqinsight/aqinsight/internal/aqi"
)

// InterpolatorConfig holds configuration for the interpolator.
type InterpolatorConfig struct {
	// Live provides probe readings. Probes never fall back to cache or grid.
	Live airquality.LiveProvider

	// Logger for probe and fit outcomes.
	Logger zerolog.Logger

	// Metrics records probe outcomes. Optional.
	Metrics *Metrics

	// Concurrency bounds in-flight probes (default: 8).
	Concurrency int

	// ProbeTimeout bounds each probe (default: 8s).
	ProbeTimeout time.Duration
}

// Interpolator builds heatmaps from live probes.
type Interpolator struct {
	live         airquality.LiveProvider
	logger       zerolog.Logger
	metrics      *Metrics
	concurrency  int
	probeTimeout time.Duration
}

// NewInterpolator creates an interpolator.
func NewInterpolator(cfg InterpolatorConfig) *Interpolator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 8 * time.Second
	}

	return &Interpolator{
		live:         cfg.Live,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		concurrency:  cfg.Concurrency,
		probeTimeout: cfg.ProbeTimeout,
	}
}

// Interpolate probes a density x density grid over the box and fits a smooth
// outRes x outRes field. Density and outRes are clamped. Only an invalid box fails;
// too few probes yield a flat degenerate grid.
func (in *Interpolator) Interpolate(ctx context.Context, box BBox, density, outRes int) (*Grid, error) {
	bb, err := box.normalize()
	if err != nil {
		return nil, err
	}
	density = ClampDensity(density)
	outRes = ClampOutRes(outRes)

	start := time.Now()
	samples := in.probe(ctx, bb, density)

	grid := Fit(bb.minLat, bb.maxLat, bb.minLon, bb.maxLon, samples, outRes)

	in.logger.Info().
		Int("density", density).
		Int("out_res", outRes).
		Int("probes", density*density).
		Int("samples", grid.Samples).
		Bool("degenerate", grid.Degenerate).
		Dur("duration", time.Since(start)).
		Msg("heatmap interpolated")
	in.metrics.recordGrid(ctx, grid.Degenerate, time.Since(start))

	return grid, nil
}

// probe resolves every probe point concurrently. Results are kept in probe order.
func (in *Interpolator) probe(ctx context.Context, bb bounds, density int) []Sample {
	lats := linspace(bb.minLat, bb.maxLat, density)
	lons := linspace(bb.minLon, bb.maxLon, density)

	if in.live == nil {
		return nil
	}
	results := make([]*Sample, density*density)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.concurrency)

	for i, lat := range lats {
		for j, lon := range lons {
			idx := i*density + j
			g.Go(func() error {
				// Probe failures are dropped, never propagated to the group.
				results[idx] = in.probeOne(gctx, lat, lon)
				return nil
			})
		}
	}
	_ = g.Wait()

	samples := make([]Sample, 0, len(results))
	for _, s := range results {
		if s != nil {
			samples = append(samples, *s)
		}
	}
	return samples
}

func (in *Interpolator) probeOne(ctx context.Context, lat, lon float64) *Sample {
	ctx, cancel := context.WithTimeout(ctx, in.probeTimeout)
	defer cancel()

	reading, err := in.live.ObserveLive(ctx, lat, lon)
	if err == nil && reading == nil {
		err = airquality.ErrNoReading
	}
	if err != nil {
		in.logger.Debug().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("probe dropped")
		in.metrics.recordProbe(ctx, false)
		return nil
	}

	_, overall, err := aqi.Compute(reading)
	if err != nil {
		in.logger.Debug().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("probe dropped")
		in.metrics.recordProbe(ctx, false)
		return nil
	}

	in.metrics.recordProbe(ctx, true)
	return &Sample{Lon: lon, Lat: lat, AQI: clamp(float64(overall), 0, aqi.MaxAQI)}
}

// Fit interpolates samples over the given bounds onto an outRes x outRes mesh.
// Duplicate coordinates keep their first sample. With fewer than MinSamples distinct
// samples, or a singular system, the grid is flat at FlatAQI and marked degenerate.
func Fit(minLat, maxLat, minLon, maxLon float64, samples []Sample, outRes int) *Grid {
	grid := &Grid{
		Lats:   linspace(minLat, maxLat, outRes),
		Lons:   linspace(minLon, maxLon, outRes),
		Values: make([][]float64, outRes),
	}

	distinct := dedupe(samples)
	grid.Samples = len(distinct)

	var f *rbf
	if len(distinct) < MinSamples {
		grid.Degenerate = true
		grid.Note = NoteInsufficientSamples
	} else {
		var err error
		if f, err = fitRBF(distinct); err != nil {
			grid.Degenerate = true
			grid.Note = NoteSingularSamples
		}
	}

	for i, lat := range grid.Lats {
		row := make([]float64, outRes)
		for j, lon := range grid.Lons {
			if f == nil {
				row[j] = FlatAQI
				continue
			}
			row[j] = clamp(f.at(lon, lat), 0, aqi.MaxAQI)
		}
		grid.Values[i] = row
	}

	return grid
}

func dedupe(samples []Sample) []Sample {
	type key struct{ lon, lat float64 }
	seen := make(map[key]struct{}, len(samples))
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		k := key{s.Lon, s.Lat}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

// linspace returns n evenly spaced values over [lo, hi], endpoints included.
func linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}
