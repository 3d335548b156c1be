package analytics

import (
	"sort"
	"time"

	"github.com/aqinsight/aqinsight/internal/aqi"
	"github.com/aqinsight/aqinsight/internal/store"
)

// MaxDailyBuckets caps the number of days Daily returns.
const MaxDailyBuckets = 365

// Point is one time-aligned entry of a chartable series.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	AQI       *float64  `json:"aqi"`
	AQIRoll   *float64  `json:"aqi_roll"`
	PM25      *float64  `json:"pm25"`
	PM25Roll  *float64  `json:"pm25_roll"`
	PM10      *float64  `json:"pm10"`
	CO        *float64  `json:"co"`
	NO2       *float64  `json:"no2"`
	SO2       *float64  `json:"so2"`
	O3        *float64  `json:"o3"`
}

// Summary holds per-metric statistics and the most recent observation.
type Summary struct {
	Stats  map[string]Stats   `json:"stats"`
	Latest *store.Observation `json:"-"`
}

// Day is one UTC day of averaged history.
type Day struct {
	Day     time.Time `json:"day"`
	AvgAQI  *float64  `json:"avg_aqi"`
	AvgPM25 *float64  `json:"avg_pm25"`
	AvgPM10 *float64  `json:"avg_pm10"`
	Count   int       `json:"count"`
}

// Metric names used as Summary.Stats keys.
const (
	MetricAQI  = "aqi"
	MetricPM25 = "pm25"
	MetricPM10 = "pm10"
	MetricCO   = "co"
	MetricNO2  = "no2"
	MetricSO2  = "so2"
	MetricO3   = "o3"
)

// column extracts one metric from every observation, in order.
func column(obs []store.Observation, metric string) []*float64 {
	out := make([]*float64, len(obs))
	for i := range obs {
		out[i] = value(&obs[i], metric)
	}
	return out
}

func value(o *store.Observation, metric string) *float64 {
	switch metric {
	case MetricAQI:
		if o.AQI == nil {
			return nil
		}
		return aqi.Float(float64(*o.AQI))
	case MetricPM25:
		return o.PM25
	case MetricPM10:
		return o.PM10
	case MetricCO:
		return o.CO
	case MetricNO2:
		return o.NO2
	case MetricSO2:
		return o.SO2
	case MetricO3:
		return o.O3
	default:
		return nil
	}
}

// Timeseries aligns observations into chartable points with rolling AQI and PM2.5
// overlays. Observations are expected in ascending time order.
func Timeseries(obs []store.Observation, window int) ([]Point, error) {
	aqiCol := column(obs, MetricAQI)
	pm25Col := column(obs, MetricPM25)

	aqiRoll, err := RollingAverage(aqiCol, window)
	if err != nil {
		return nil, err
	}
	pm25Roll, err := RollingAverage(pm25Col, window)
	if err != nil {
		return nil, err
	}

	points := make([]Point, len(obs))
	for i := range obs {
		o := &obs[i]
		points[i] = Point{
			Timestamp: o.ObservedAt,
			AQI:       aqiCol[i],
			AQIRoll:   aqiRoll[i],
			PM25:      pm25Col[i],
			PM25Roll:  pm25Roll[i],
			PM10:      o.PM10,
			CO:        o.CO,
			NO2:       o.NO2,
			SO2:       o.SO2,
			O3:        o.O3,
		}
	}
	return points, nil
}

// Summarize computes SummaryStats for every metric. It returns nil for an empty history.
func Summarize(obs []store.Observation) *Summary {
	if len(obs) == 0 {
		return nil
	}

	metrics := []string{MetricAQI, MetricPM25, MetricPM10, MetricCO, MetricNO2, MetricSO2, MetricO3}
	s := &Summary{Stats: make(map[string]Stats, len(metrics))}
	for _, m := range metrics {
		s.Stats[m] = SummaryStats(column(obs, m))
	}

	latest := obs[0]
	for _, o := range obs[1:] {
		if !o.ObservedAt.Before(latest.ObservedAt) {
			latest = o
		}
	}
	s.Latest = &latest
	return s
}

// Daily groups observations by UTC day and averages AQI, PM2.5 and PM10 over the
// present values. Days are ascending; at most MaxDailyBuckets are returned.
func Daily(obs []store.Observation) []Day {
	type acc struct {
		aqi, pm25, pm10 []*float64
		count           int
	}

	buckets := make(map[time.Time]*acc)
	for i := range obs {
		o := &obs[i]
		day := o.ObservedAt.UTC().Truncate(24 * time.Hour)
		b, ok := buckets[day]
		if !ok {
			b = &acc{}
			buckets[day] = b
		}
		b.aqi = append(b.aqi, value(o, MetricAQI))
		b.pm25 = append(b.pm25, o.PM25)
		b.pm10 = append(b.pm10, o.PM10)
		b.count++
	}

	days := make([]time.Time, 0, len(buckets))
	for d := range buckets {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	if len(days) > MaxDailyBuckets {
		days = days[:MaxDailyBuckets]
	}

	out := make([]Day, 0, len(days))
	for _, d := range days {
		b := buckets[d]
		out = append(out, Day{
			Day:     d,
			AvgAQI:  SummaryStats(b.aqi).Mean,
			AvgPM25: SummaryStats(b.pm25).Mean,
			AvgPM10: SummaryStats(b.pm10).Mean,
			Count:   b.count,
		})
	}
	return out
}
