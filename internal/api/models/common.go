// Package models provides request and response models for the AQInsight API.
package models

import "time"

// HealthStatus represents the health status of a service or dependency.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// Timestamp is a time.Time that marshals as RFC 3339 in UTC.
type Timestamp time.Time

// MarshalJSON implements json.Marshaler for Timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).UTC().Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	parsed, err := time.Parse(`"`+time.RFC3339+`"`, string(data))
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// TimestampPtr returns nil for the zero time.
func TimestampPtr(t time.Time) *Timestamp {
	if t.IsZero() {
		return nil
	}
	ts := Timestamp(t)
	return &ts
}

// CoordsQuery selects a single point.
type CoordsQuery struct {
	Lat *float64 `query:"lat" validate:"required,gte=-90,lte=90"`
	Lon *float64 `query:"lon" validate:"required,gte=-180,lte=180"`
}

// HeatmapQuery selects a bounding box and sampling resolution. Out-of-range
// SampleGrid and OutRes values are clamped, not rejected.
type HeatmapQuery struct {
	Lat1       *float64 `query:"lat1" validate:"required,gte=-90,lte=90"`
	Lon1       *float64 `query:"lon1" validate:"required,gte=-180,lte=180"`
	Lat2       *float64 `query:"lat2" validate:"required,gte=-90,lte=90"`
	Lon2       *float64 `query:"lon2" validate:"required,gte=-180,lte=180"`
	SampleGrid int      `query:"sample_grid"`
	OutRes     int      `query:"out_res"`
}

// HistoryQuery selects the history around a point.
type HistoryQuery struct {
	Lat           *float64 `query:"lat" validate:"required,gte=-90,lte=90"`
	Lon           *float64 `query:"lon" validate:"required,gte=-180,lte=180"`
	Days          int      `query:"days" validate:"gte=1,lte=365"`
	RadiusKm      float64  `query:"radius_km" validate:"gt=0"`
	RollingWindow int      `query:"rolling_window" validate:"gte=1,lte=30"`
}
