package models

import (
	"github.com/aqinsight/aqinsight/internal/airquality"
	"github.com/aqinsight/aqinsight/internal/aqi"
	"github.com/aqinsight/aqinsight/internal/heatmap"
)

// AQIResponse is the resolved AQI at a coordinate.
type AQIResponse struct {
	Latitude        float64        `json:"latitude"`
	Longitude       float64        `json:"longitude"`
	AQI             int            `json:"aqi"`
	Category        aqi.Category   `json:"category"`
	Source          string         `json:"source"`
	PM25            *float64       `json:"pm25"`
	PM10            *float64       `json:"pm10"`
	CarbonMonoxide  *float64       `json:"carbon_monoxide"`
	NitrogenDioxide *float64       `json:"nitrogen_dioxide"`
	SulphurDioxide  *float64       `json:"sulphur_dioxide"`
	Ozone           *float64       `json:"ozone"`
	SubIndices      aqi.SubIndices `json:"sub_indices"`
	Timestamp       *Timestamp     `json:"timestamp"`
}

// NewAQIResponse maps a resolved record onto the response shape.
func NewAQIResponse(rec airquality.Record) AQIResponse {
	return AQIResponse{
		Latitude:        rec.Lat,
		Longitude:       rec.Lon,
		AQI:             rec.AQI,
		Category:        rec.Category,
		Source:          string(rec.Provenance),
		PM25:            rec.Reading.PM25,
		PM10:            rec.Reading.PM10,
		CarbonMonoxide:  rec.Reading.CO,
		NitrogenDioxide: rec.Reading.NO2,
		SulphurDioxide:  rec.Reading.SO2,
		Ozone:           rec.Reading.O3,
		SubIndices:      rec.SubIndices,
		Timestamp:       TimestampPtr(rec.ObservedAt),
	}
}

// HeatmapResponse is an interpolated grid plus the effective resolution.
type HeatmapResponse struct {
	*heatmap.Grid
	SampleGrid int `json:"sample_grid"`
	OutRes     int `json:"out_res"`
}
