// Package analytics derives rolling averages, summary statistics and daily
// aggregates from a point's stored history.
package analytics

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/aqinsight/aqinsight/internal/aqi"
)

// Stats summarises the present values of a series. Everything except Count is
// nil when no value is present.
type Stats struct {
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
}

// RollingAverage returns, for each position i, the mean of the present values among
// positions max(0, i-window+1)..i, or nil when none are present.
func RollingAverage(series []*float64, window int) ([]*float64, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: rolling window must be at least 1, got %d", aqi.ErrInvalidInput, window)
	}

	out := make([]*float64, len(series))
	for i := range series {
		var sum float64
		var n int
		for j := max(0, i-window+1); j <= i; j++ {
			if series[j] != nil {
				sum += *series[j]
				n++
			}
		}
		if n > 0 {
			out[i] = aqi.Float(sum / float64(n))
		}
	}
	return out, nil
}

// SummaryStats computes count, mean, median, population standard deviation, min and
// max over the present values.
func SummaryStats(values []*float64) Stats {
	present := compact(values)
	if len(present) == 0 {
		return Stats{}
	}

	mean, std := stat.PopMeanStdDev(present, nil)
	sort.Float64s(present)

	return Stats{
		Count:  len(present),
		Mean:   aqi.Float(mean),
		Median: aqi.Float(median(present)),
		Std:    aqi.Float(std),
		Min:    aqi.Float(floats.Min(present)),
		Max:    aqi.Float(floats.Max(present)),
	}
}

// median of a sorted, non-empty slice. Even lengths average the middle pair.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// compact drops absent values.
func compact(values []*float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// RadiusDegrees converts a search radius in km to degrees, 1° ≈ 111 km, minimum 0.01°.
func RadiusDegrees(km float64) float64 {
	return max(0.01, km/111.0)
}
