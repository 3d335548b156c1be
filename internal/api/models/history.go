package models

import (
	"github.com/aqinsight/aqinsight/internal/analytics"
	"github.com/aqinsight/aqinsight/internal/store"
)

// SourceNone marks a history response with no backing rows.
const SourceNone = "none"

// HistoryEnvelope echoes the query of every history response.
type HistoryEnvelope struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Days      int     `json:"days"`
	RadiusKm  float64 `json:"radius_km"`
	Source    string  `json:"source"`
}

// HistoryRow is one stored observation.
type HistoryRow struct {
	Timestamp *Timestamp `json:"timestamp"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	AQI       *int       `json:"aqi"`
	PM25      *float64   `json:"pm25"`
	PM10      *float64   `json:"pm10"`
	CO        *float64   `json:"co"`
	NO2       *float64   `json:"no2"`
	SO2       *float64   `json:"so2"`
	O3        *float64   `json:"o3"`
}

// NewHistoryRow maps a stored observation onto a row.
func NewHistoryRow(o *store.Observation) HistoryRow {
	return HistoryRow{
		Timestamp: TimestampPtr(o.ObservedAt),
		Latitude:  o.Lat,
		Longitude: o.Lon,
		AQI:       o.AQI,
		PM25:      o.PM25,
		PM10:      o.PM10,
		CO:        o.CO,
		NO2:       o.NO2,
		SO2:       o.SO2,
		O3:        o.O3,
	}
}

// RawHistoryResponse lists stored rows in ascending time order.
type RawHistoryResponse struct {
	HistoryEnvelope
	Rows []HistoryRow `json:"rows"`
}

// TimeseriesResponse is the chartable series.
type TimeseriesResponse struct {
	HistoryEnvelope
	Series []analytics.Point `json:"series"`
}

// SummaryBody holds per-metric statistics and the latest row.
type SummaryBody struct {
	Stats  map[string]analytics.Stats `json:"stats"`
	Latest *HistoryRow                `json:"latest"`
}

// SummaryResponse is nil-summary when no rows matched.
type SummaryResponse struct {
	HistoryEnvelope
	Summary *SummaryBody `json:"summary"`
}

// DailyResponse lists per-day averages.
type DailyResponse struct {
	HistoryEnvelope
	Daily []analytics.Day `json:"daily"`
}
