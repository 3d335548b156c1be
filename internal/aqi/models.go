// Package aqi converts pollutant concentrations into US EPA style Air Quality Index values.
package aqi

import (
	"errors"
	"time"
)

// ErrInvalidInput is returned for inputs that violate the conversion contract,
// such as a negative concentration or an all-absent set of sub-indices.
var ErrInvalidInput = errors.New("invalid input")

// Pollutant identifies one of the six pollutants that feed the index.
type Pollutant string

const (
	PollutantPM25 Pollutant = "PM25"
	PollutantPM10 Pollutant = "PM10"
	PollutantNO2  Pollutant = "NO2"
	PollutantO3   Pollutant = "O3"
	PollutantSO2  Pollutant = "SO2"
	PollutantCO   Pollutant = "CO"
)

// Pollutants lists every supported pollutant in combination order.
var Pollutants = []Pollutant{
	PollutantPM25,
	PollutantPM10,
	PollutantNO2,
	PollutantO3,
	PollutantSO2,
	PollutantCO,
}

// Reading is a set of pollutant concentrations observed at a point in time.
// A nil concentration means the pollutant was not measured.
type Reading struct {
	Lat        float64
	Lon        float64
	ObservedAt time.Time

	PM25 *float64 // µg/m³
	PM10 *float64 // µg/m³
	NO2  *float64 // µg/m³
	O3   *float64 // µg/m³
	SO2  *float64 // µg/m³
	CO   *float64 // mg/m³
}

// Concentration returns the concentration recorded for p, or nil.
func (r *Reading) Concentration(p Pollutant) *float64 {
	switch p {
	case PollutantPM25:
		return r.PM25
	case PollutantPM10:
		return r.PM10
	case PollutantNO2:
		return r.NO2
	case PollutantO3:
		return r.O3
	case PollutantSO2:
		return r.SO2
	case PollutantCO:
		return r.CO
	default:
		return nil
	}
}

// HasData reports whether at least one pollutant was measured.
func (r *Reading) HasData() bool {
	for _, p := range Pollutants {
		if r.Concentration(p) != nil {
			return true
		}
	}
	return false
}

// SubIndices holds the per-pollutant index values. A nil entry means the
// source concentration was absent.
type SubIndices struct {
	PM25 *int `json:"pm25_aqi"`
	PM10 *int `json:"pm10_aqi"`
	NO2  *int `json:"no2_aqi"`
	O3   *int `json:"o3_aqi"`
	SO2  *int `json:"so2_aqi"`
	CO   *int `json:"co_aqi"`
}

// Values returns the six sub-indices in combination order.
func (s SubIndices) Values() []*int {
	return []*int{s.PM25, s.PM10, s.NO2, s.O3, s.SO2, s.CO}
}

// set stores v as the sub-index for p.
func (s *SubIndices) set(p Pollutant, v *int) {
	switch p {
	case PollutantPM25:
		s.PM25 = v
	case PollutantPM10:
		s.PM10 = v
	case PollutantNO2:
		s.NO2 = v
	case PollutantO3:
		s.O3 = v
	case PollutantSO2:
		s.SO2 = v
	case PollutantCO:
		s.CO = v
	}
}

// Float returns a pointer to v. Handy when building readings by hand.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
