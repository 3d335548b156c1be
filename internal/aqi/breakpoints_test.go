package aqi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqinsight/aqinsight/internal/aqi"
)

func TestConvert_RowBoundaries(t *testing.T) {
	for _, p := range aqi.Pollutants {
		table, ok := aqi.TableFor(p)
		require.True(t, ok, "missing table for %s", p)

		for _, row := range table.Rows {
			lo, err := aqi.Convert(p, aqi.Float(row.ConcLo))
			require.NoError(t, err)
			require.NotNil(t, lo)
			assert.Equal(t, row.AQILo, *lo, "%s at %v", p, row.ConcLo)

			hi, err := aqi.Convert(p, aqi.Float(row.ConcHi))
			require.NoError(t, err)
			require.NotNil(t, hi)
			assert.Equal(t, row.AQIHi, *hi, "%s at %v", p, row.ConcHi)
		}
	}
}

func TestConvert_TablesAreContinuous(t *testing.T) {
	for _, p := range aqi.Pollutants {
		table, _ := aqi.TableFor(p)
		unit := 1 / table.Scale

		for i := 1; i < len(table.Rows); i++ {
			prev, cur := table.Rows[i-1], table.Rows[i]
			assert.InDelta(t, prev.ConcHi+unit, cur.ConcLo, 1e-9, "%s row %d", p, i)
			assert.Equal(t, prev.AQIHi+1, cur.AQILo, "%s row %d", p, i)
		}
	}
}

func TestConvert_Interpolates(t *testing.T) {
	tests := []struct {
		name      string
		pollutant aqi.Pollutant
		conc      float64
		want      int
	}{
		{"pm25 first row", aqi.PollutantPM25, 6.0, 25},
		{"pm25 truncates", aqi.PollutantPM25, 20.0, 67},
		{"pm10 second row", aqi.PollutantPM10, 100, 73},
		{"no2 third row", aqi.PollutantNO2, 200, 119},
		{"o3 fifth row", aqi.PollutantO3, 150, 247},
		{"so2 first row", aqi.PollutantSO2, 20, 28},
		{"co second row", aqi.PollutantCO, 7.0, 76},
		{"zero", aqi.PollutantPM25, 0, 0},
		{"pm10 between units", aqi.PollutantPM10, 30.7, 28},
		{"pm25 between tenths", aqi.PollutantPM25, 5.09, 21},
		{"no2 between units", aqi.PollutantNO2, 26.9, 25},
		{"pm25 fourth row fractional", aqi.PollutantPM25, 100.37, 174},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := aqi.Convert(tt.pollutant, aqi.Float(tt.conc))
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestConvert_GapBetweenRowsUsesLowerRow(t *testing.T) {
	// 12.05 sits between 12.0 and 12.1 and is truncated to 12.0.
	got, err := aqi.Convert(aqi.PollutantPM25, aqi.Float(12.05))
	require.NoError(t, err)
	assert.Equal(t, 50, *got)

	got, err = aqi.Convert(aqi.PollutantPM10, aqi.Float(54.7))
	require.NoError(t, err)
	assert.Equal(t, 50, *got)
}

func TestConvert_AboveTable(t *testing.T) {
	got, err := aqi.Convert(aqi.PollutantO3, aqi.Float(201))
	require.NoError(t, err)
	assert.Equal(t, aqi.MaxAQI, *got)

	got, err = aqi.Convert(aqi.PollutantPM25, aqi.Float(9000))
	require.NoError(t, err)
	assert.Equal(t, aqi.MaxAQI, *got)
}

func TestConvert_Absent(t *testing.T) {
	got, err := aqi.Convert(aqi.PollutantNO2, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConvert_InvalidInput(t *testing.T) {
	_, err := aqi.Convert(aqi.PollutantPM25, aqi.Float(-0.5))
	assert.ErrorIs(t, err, aqi.ErrInvalidInput)

	_, err = aqi.Convert(aqi.Pollutant("NH3"), aqi.Float(1))
	assert.ErrorIs(t, err, aqi.ErrInvalidInput)
}

func TestConvert_Idempotent(t *testing.T) {
	first, err := aqi.Convert(aqi.PollutantCO, aqi.Float(11.3))
	require.NoError(t, err)
	second, err := aqi.Convert(aqi.PollutantCO, aqi.Float(11.3))
	require.NoError(t, err)
	assert.Equal(t, *first, *second)
}
