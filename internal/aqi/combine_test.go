package aqi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqinsight/aqinsight/internal/aqi"
)

func TestCombine_MaxOfPresent(t *testing.T) {
	subs := aqi.SubIndices{
		PM25: aqi.Int(50),
		NO2:  aqi.Int(100),
		CO:   aqi.Int(30),
	}

	got, err := aqi.Combine(subs)
	require.NoError(t, err)
	assert.Equal(t, 100, got)
}

func TestCombine_ZeroIsPresent(t *testing.T) {
	got, err := aqi.Combine(aqi.SubIndices{O3: aqi.Int(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestCombine_AllAbsent(t *testing.T) {
	_, err := aqi.Combine(aqi.SubIndices{})
	assert.ErrorIs(t, err, aqi.ErrInvalidInput)
}

func TestCompute(t *testing.T) {
	r := &aqi.Reading{
		PM25: aqi.Float(40),
		PM10: aqi.Float(60),
		CO:   aqi.Float(1.2),
	}

	subs, overall, err := aqi.Compute(r)
	require.NoError(t, err)

	require.NotNil(t, subs.PM25)
	require.NotNil(t, subs.PM10)
	require.NotNil(t, subs.CO)
	assert.Nil(t, subs.NO2)
	assert.Nil(t, subs.O3)
	assert.Nil(t, subs.SO2)

	assert.Equal(t, 112, *subs.PM25)
	assert.Equal(t, 53, *subs.PM10)
	assert.Equal(t, 13, *subs.CO)
	assert.Equal(t, 112, overall)
}

func TestCompute_NoData(t *testing.T) {
	_, _, err := aqi.Compute(&aqi.Reading{})
	assert.ErrorIs(t, err, aqi.ErrInvalidInput)
}

func TestCompute_NegativeConcentration(t *testing.T) {
	_, _, err := aqi.Compute(&aqi.Reading{SO2: aqi.Float(-3)})
	assert.ErrorIs(t, err, aqi.ErrInvalidInput)
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, aqi.CategoryGood, aqi.CategoryOf(50))
	assert.Equal(t, aqi.CategoryModerate, aqi.CategoryOf(51))
	assert.Equal(t, aqi.CategoryUnhealthySensitive, aqi.CategoryOf(150))
	assert.Equal(t, aqi.CategoryUnhealthy, aqi.CategoryOf(200))
	assert.Equal(t, aqi.CategoryVeryUnhealthy, aqi.CategoryOf(300))
	assert.Equal(t, aqi.CategoryHazardous, aqi.CategoryOf(500))
}
