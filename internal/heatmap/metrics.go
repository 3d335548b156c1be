package heatmap

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/aqinsight/aqinsight/internal/heatmap"

// Metrics holds heatmap instruments.
type Metrics struct {
	probes   metric.Int64Counter
	grids    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics creates heatmap instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	probes, err := meter.Int64Counter(
		"heatmap.probe.total",
		metric.WithDescription("Heatmap probes by outcome"),
		metric.WithUnit("{probe}"),
	)
	if err != nil {
		return nil, err
	}

	grids, err := meter.Int64Counter(
		"heatmap.grid.total",
		metric.WithDescription("Interpolated grids by degeneracy"),
		metric.WithUnit("{grid}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"heatmap.interpolate.duration",
		metric.WithDescription("Time to probe and fit a heatmap"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{probes: probes, grids: grids, duration: duration}, nil
}

func (m *Metrics) recordProbe(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "dropped"
	}
	m.probes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) recordGrid(ctx context.Context, degenerate bool, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("degenerate", degenerate))
	m.grids.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(d.Microseconds())/1000.0, attrs)
}
