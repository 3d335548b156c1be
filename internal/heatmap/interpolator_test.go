package heatmap_test

import (
	"context"
	"errors"
	"io"
	"math"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqinsight/aqinsight/internal/aqi"
	"github.com/aqinsight/aqinsight/internal/heatmap"
)

type liveFunc func(ctx context.Context, lat, lon float64) (*aqi.Reading, error)

func (f liveFunc) ObserveLive(ctx context.Context, lat, lon float64) (*aqi.Reading, error) {
	return f(ctx, lat, lon)
}

// pm10Field returns a reading whose PM10 grows with latitude and longitude.
func pm10Field(_ context.Context, lat, lon float64) (*aqi.Reading, error) {
	return &aqi.Reading{Lat: lat, Lon: lon, PM10: aqi.Float(10 + 20*lat + 30*lon)}, nil
}

func newInterpolator(live liveFunc) *heatmap.Interpolator {
	return heatmap.NewInterpolator(heatmap.InterpolatorConfig{
		Live:        live,
		Logger:      zerolog.New(io.Discard),
		Concurrency: 4,
	})
}

func gridSamples(n int, f func(lat, lon float64) float64) []heatmap.Sample {
	var samples []heatmap.Sample
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			lat := float64(i) / float64(n-1)
			lon := float64(j) / float64(n-1)
			samples = append(samples, heatmap.Sample{Lat: lat, Lon: lon, AQI: f(lat, lon)})
		}
	}
	return samples
}

func TestFit_ReproducesSamplesAtAlignedNodes(t *testing.T) {
	surface := func(lat, lon float64) float64 {
		return 40 + 120*lat + 60*lon + 80*math.Sin(3*lat*lon)
	}
	samples := gridSamples(5, surface)

	grid := heatmap.Fit(0, 1, 0, 1, samples, 41)

	require.False(t, grid.Degenerate)
	assert.Empty(t, grid.Note)
	assert.Equal(t, 25, grid.Samples)
	require.Len(t, grid.Lats, 41)
	require.Len(t, grid.Lons, 41)
	require.Len(t, grid.Values, 41)

	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			lat := float64(i) / 4
			lon := float64(j) / 4
			assert.InDelta(t, surface(lat, lon), grid.Values[i*10][j*10], 1e-6,
				"node (%v, %v)", lat, lon)
		}
	}
}

func TestFit_Axes(t *testing.T) {
	grid := heatmap.Fit(10, 20, 70, 80, nil, 41)

	assert.Equal(t, 10.0, grid.Lats[0])
	assert.Equal(t, 20.0, grid.Lats[40])
	assert.Equal(t, 70.0, grid.Lons[0])
	assert.Equal(t, 80.0, grid.Lons[40])
	assert.InDelta(t, 10.25, grid.Lats[1], 1e-12)
}

func TestFit_InsufficientSamples(t *testing.T) {
	samples := []heatmap.Sample{
		{Lat: 0, Lon: 0, AQI: 120},
		{Lat: 1, Lon: 0, AQI: 80},
		{Lat: 0, Lon: 1, AQI: 200},
	}

	grid := heatmap.Fit(0, 1, 0, 1, samples, 40)

	assert.True(t, grid.Degenerate)
	assert.Equal(t, heatmap.NoteInsufficientSamples, grid.Note)
	for _, row := range grid.Values {
		require.Len(t, row, 40)
		for _, v := range row {
			assert.Equal(t, heatmap.FlatAQI, v)
		}
	}
}

func TestFit_DuplicateSamplesCountOnce(t *testing.T) {
	samples := []heatmap.Sample{
		{Lat: 0, Lon: 0, AQI: 120},
		{Lat: 0, Lon: 0, AQI: 125},
		{Lat: 1, Lon: 0, AQI: 80},
		{Lat: 0, Lon: 1, AQI: 200},
	}

	grid := heatmap.Fit(0, 1, 0, 1, samples, 40)

	assert.True(t, grid.Degenerate)
	assert.Equal(t, 3, grid.Samples)
}

func TestFit_ClampsToScale(t *testing.T) {
	samples := []heatmap.Sample{
		{Lat: 0, Lon: 0, AQI: 500},
		{Lat: 0, Lon: 1, AQI: 500},
		{Lat: 1, Lon: 0, AQI: 500},
		{Lat: 1, Lon: 1, AQI: 500},
		{Lat: 0.5, Lon: 0.5, AQI: 0},
		{Lat: 0.5, Lon: 0.4, AQI: 500},
	}

	grid := heatmap.Fit(-1, 2, -1, 2, samples, 60)

	require.False(t, grid.Degenerate)
	for _, row := range grid.Values {
		for _, v := range row {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 500.0)
		}
	}
}

func TestInterpolate_InvalidBBox(t *testing.T) {
	in := newInterpolator(pm10Field)

	boxes := map[string]heatmap.BBox{
		"zero height": {Lat1: 10, Lon1: 70, Lat2: 10, Lon2: 80},
		"zero width":  {Lat1: 10, Lon1: 70, Lat2: 20, Lon2: 70},
		"nan corner":  {Lat1: math.NaN(), Lon1: 70, Lat2: 20, Lon2: 80},
		"inf corner":  {Lat1: 10, Lon1: math.Inf(1), Lat2: 20, Lon2: 80},
		"latitude":    {Lat1: -91, Lon1: 70, Lat2: 20, Lon2: 80},
		"longitude":   {Lat1: 10, Lon1: 70, Lat2: 20, Lon2: 181},
	}

	for name, box := range boxes {
		t.Run(name, func(t *testing.T) {
			grid, err := in.Interpolate(context.Background(), box, 5, 80)
			assert.Nil(t, grid)
			assert.ErrorIs(t, err, heatmap.ErrInvalidBBox)
			assert.ErrorIs(t, err, aqi.ErrInvalidInput)
		})
	}
}

func TestInterpolate_BBoxOrderIndependent(t *testing.T) {
	in := newInterpolator(pm10Field)

	a, err := in.Interpolate(context.Background(), heatmap.BBox{Lat1: 0, Lon1: 0, Lat2: 1, Lon2: 1}, 5, 40)
	require.NoError(t, err)
	b, err := in.Interpolate(context.Background(), heatmap.BBox{Lat1: 1, Lon1: 1, Lat2: 0, Lon2: 0}, 5, 40)
	require.NoError(t, err)
	c, err := in.Interpolate(context.Background(), heatmap.BBox{Lat1: 1, Lon1: 0, Lat2: 0, Lon2: 1}, 5, 40)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestInterpolate_ProbeValuesAtNodes(t *testing.T) {
	in := newInterpolator(pm10Field)

	grid, err := in.Interpolate(context.Background(), heatmap.BBox{Lat1: 0, Lon1: 0, Lat2: 1, Lon2: 1}, 5, 41)
	require.NoError(t, err)
	require.False(t, grid.Degenerate)
	assert.Equal(t, 25, grid.Samples)

	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			lat, lon := float64(i)/4, float64(j)/4
			reading, _ := pm10Field(context.Background(), lat, lon)
			_, want, err := aqi.Compute(reading)
			require.NoError(t, err)
			assert.InDelta(t, float64(want), grid.Values[i*10][j*10], 1e-6)
		}
	}
}

func TestInterpolate_ClampsDensityAndOutRes(t *testing.T) {
	tests := []struct {
		name       string
		density    int
		outRes     int
		wantProbes int32
		wantRes    int
	}{
		{"below minimum", 1, 2, 9, 40},
		{"above maximum", 50, 1000, 121, 200},
		{"in range", 4, 64, 16, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			in := newInterpolator(func(ctx context.Context, lat, lon float64) (*aqi.Reading, error) {
				calls.Add(1)
				return pm10Field(ctx, lat, lon)
			})

			grid, err := in.Interpolate(context.Background(), heatmap.BBox{Lat1: 8, Lon1: 70, Lat2: 12, Lon2: 74}, tt.density, tt.outRes)
			require.NoError(t, err)

			assert.Equal(t, tt.wantProbes, calls.Load())
			assert.Len(t, grid.Lats, tt.wantRes)
			assert.Len(t, grid.Lons, tt.wantRes)
			assert.Len(t, grid.Values, tt.wantRes)
		})
	}
}

func TestInterpolate_AllProbesFail(t *testing.T) {
	in := newInterpolator(func(context.Context, float64, float64) (*aqi.Reading, error) {
		return nil, errors.New("provider down")
	})

	grid, err := in.Interpolate(context.Background(), heatmap.BBox{Lat1: 0, Lon1: 0, Lat2: 1, Lon2: 1}, 5, 80)
	require.NoError(t, err)

	assert.True(t, grid.Degenerate)
	assert.Equal(t, heatmap.NoteInsufficientSamples, grid.Note)
	assert.Equal(t, 0, grid.Samples)
	assert.Equal(t, heatmap.FlatAQI, grid.Values[40][40])
}

func TestInterpolate_FailedProbesDropped(t *testing.T) {
	in := newInterpolator(func(ctx context.Context, lat, lon float64) (*aqi.Reading, error) {
		if lat == 0 {
			return nil, errors.New("timeout")
		}
		if lon == 0 {
			// Readings without any pollutant cannot be scored.
			return &aqi.Reading{Lat: lat, Lon: lon}, nil
		}
		return pm10Field(ctx, lat, lon)
	})

	grid, err := in.Interpolate(context.Background(), heatmap.BBox{Lat1: 0, Lon1: 0, Lat2: 1, Lon2: 1}, 3, 40)
	require.NoError(t, err)

	assert.False(t, grid.Degenerate)
	assert.Equal(t, 4, grid.Samples)
}

func TestInterpolate_NoProvider(t *testing.T) {
	in := heatmap.NewInterpolator(heatmap.InterpolatorConfig{Logger: zerolog.New(io.Discard)})

	grid, err := in.Interpolate(context.Background(), heatmap.BBox{Lat1: 0, Lon1: 0, Lat2: 1, Lon2: 1}, 5, 40)
	require.NoError(t, err)
	assert.True(t, grid.Degenerate)
}

func TestClampHelpers(t *testing.T) {
	assert.Equal(t, heatmap.MinDensity, heatmap.ClampDensity(-1))
	assert.Equal(t, 7, heatmap.ClampDensity(7))
	assert.Equal(t, heatmap.MaxDensity, heatmap.ClampDensity(12))
	assert.Equal(t, heatmap.MinOutRes, heatmap.ClampOutRes(0))
	assert.Equal(t, heatmap.MaxOutRes, heatmap.ClampOutRes(201))
}
