package airquality

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/aqinsight/aqinsight/internal/airquality"

// Metrics holds the instruments for resolution outcomes.
type Metrics struct {
	resolutions metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewMetrics creates resolution instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	resolutions, err := meter.Int64Counter(
		"aqi.resolution.total",
		metric.WithDescription("Resolved AQI values by provenance"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"aqi.resolution.duration",
		metric.WithDescription("Time spent walking the resolution chain"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{resolutions: resolutions, duration: duration}, nil
}

func (m *Metrics) recordResolution(ctx context.Context, p Provenance, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("provenance", string(p)))
	m.resolutions.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}
