package aqi

import (
	"fmt"
	"math"
)

// MaxAQI is the top of the index scale. Concentrations beyond every published
// breakpoint map to it.
const MaxAQI = 500

// Breakpoint maps a closed concentration interval onto a closed AQI interval.
type Breakpoint struct {
	ConcLo float64
	ConcHi float64
	AQILo  int
	AQIHi  int
}

// Table is the breakpoint table of a single pollutant. Scale is the number of
// table units per concentration unit: 10 for tables published to 0.1, 1 for
// integer tables. Concentrations are truncated to that precision before lookup,
// which closes the gaps between consecutive rows.
type Table struct {
	Pollutant Pollutant
	Scale     float64
	Rows      []Breakpoint
}

var tables = map[Pollutant]Table{
	PollutantPM25: {
		Pollutant: PollutantPM25,
		Scale:     10,
		Rows: []Breakpoint{
			{0.0, 12.0, 0, 50},
			{12.1, 35.4, 51, 100},
			{35.5, 55.4, 101, 150},
			{55.5, 150.4, 151, 200},
			{150.5, 250.4, 201, 300},
			{250.5, 350.4, 301, 400},
			{350.5, 500.4, 401, 500},
		},
	},
	PollutantPM10: {
		Pollutant: PollutantPM10,
		Scale:     1,
		Rows: []Breakpoint{
			{0, 54, 0, 50},
			{55, 154, 51, 100},
			{155, 254, 101, 150},
			{255, 354, 151, 200},
			{355, 424, 201, 300},
			{425, 504, 301, 400},
			{505, 604, 401, 500},
		},
	},
	PollutantNO2: {
		Pollutant: PollutantNO2,
		Scale:     1,
		Rows: []Breakpoint{
			{0, 53, 0, 50},
			{54, 100, 51, 100},
			{101, 360, 101, 150},
			{361, 649, 151, 200},
			{650, 1249, 201, 300},
			{1250, 1649, 301, 400},
			{1650, 2049, 401, 500},
		},
	},
	PollutantO3: {
		Pollutant: PollutantO3,
		Scale:     1,
		Rows: []Breakpoint{
			{0, 54, 0, 50},
			{55, 70, 51, 100},
			{71, 85, 101, 150},
			{86, 105, 151, 200},
			{106, 200, 201, 300},
		},
	},
	PollutantSO2: {
		Pollutant: PollutantSO2,
		Scale:     1,
		Rows: []Breakpoint{
			{0, 35, 0, 50},
			{36, 75, 51, 100},
			{76, 185, 101, 150},
			{186, 304, 151, 200},
			{305, 604, 201, 300},
			{605, 804, 301, 400},
			{805, 1004, 401, 500},
		},
	},
	PollutantCO: {
		Pollutant: PollutantCO,
		Scale:     10,
		Rows: []Breakpoint{
			{0.0, 4.4, 0, 50},
			{4.5, 9.4, 51, 100},
			{9.5, 12.4, 101, 150},
			{12.5, 15.4, 151, 200},
			{15.5, 30.4, 201, 300},
			{30.5, 40.4, 301, 400},
			{40.5, 50.4, 401, 500},
		},
	},
}

// TableFor returns the breakpoint table for p.
func TableFor(p Pollutant) (Table, bool) {
	t, ok := tables[p]
	return t, ok
}

// Convert maps a single pollutant concentration onto its sub-index.
// A nil concentration yields a nil sub-index. Values above the last row yield MaxAQI.
func Convert(p Pollutant, conc *float64) (*int, error) {
	table, ok := tables[p]
	if !ok {
		return nil, fmt.Errorf("unknown pollutant %q: %w", p, ErrInvalidInput)
	}
	if conc == nil {
		return nil, nil
	}
	c := *conc
	if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
		return nil, fmt.Errorf("%s concentration %v: %w", p, c, ErrInvalidInput)
	}

	v := table.convert(c)
	return &v, nil
}

// convert performs the lookup and linear interpolation for a valid concentration.
// The row is chosen on the concentration truncated to table units, so values
// between two rows fall into the lower one. The interpolation itself runs on the
// raw concentration and truncates toward zero; row edges map exactly to
// AQILo/AQIHi.
func (t Table) convert(c float64) int {
	top := t.Rows[len(t.Rows)-1]
	if c > top.ConcHi {
		return MaxAQI
	}

	units := int64(math.Floor(c*t.Scale + 1e-9))
	for _, row := range t.Rows {
		if units < t.units(row.ConcLo) || units > t.units(row.ConcHi) {
			continue
		}
		switch {
		case c <= row.ConcLo:
			return row.AQILo
		case c >= row.ConcHi:
			return row.AQIHi
		}
		slope := float64(row.AQIHi-row.AQILo) / (row.ConcHi - row.ConcLo)
		// The explicit conversion keeps the product from being fused into an FMA.
		return int(float64(slope*(c-row.ConcLo)) + float64(row.AQILo))
	}
	return MaxAQI
}

func (t Table) units(conc float64) int64 {
	return int64(math.Round(conc * t.Scale))
}
