package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqinsight/aqinsight/internal/aqi"
	"github.com/aqinsight/aqinsight/internal/store"
)

var base = time.Date(2024, 11, 3, 0, 0, 0, 0, time.UTC)

func reading(lat, lon float64, at time.Time, pm25 float64) *aqi.Reading {
	return &aqi.Reading{Lat: lat, Lon: lon, ObservedAt: at, PM25: aqi.Float(pm25)}
}

func TestInMemoryRepository_ReadCached(t *testing.T) {
	ctx := context.Background()
	repo := store.NewInMemoryRepository()

	require.NoError(t, repo.Persist(ctx, reading(28.6, 77.2, base, 40), 112))
	require.NoError(t, repo.Persist(ctx, reading(28.9, 77.5, base.Add(time.Hour), 20), 67))
	require.NoError(t, repo.Persist(ctx, reading(19.0, 72.8, base.Add(2*time.Hour), 10), 41))

	t.Run("newest within radius", func(t *testing.T) {
		got, err := repo.ReadCached(ctx, 28.61, 77.21, 1.0, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, 20.0, *got.PM25)
	})

	t.Run("radius is strict", func(t *testing.T) {
		_, err := repo.ReadCached(ctx, 27.6, 77.2, 1.0, time.Time{})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("since bound", func(t *testing.T) {
		got, err := repo.ReadCached(ctx, 28.6, 77.2, 0.1, base.Add(30*time.Minute))
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Nil(t, got)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := repo.ReadCached(ctx, 52.37, 4.89, 1.0, time.Time{})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestInMemoryRepository_ReadGrid(t *testing.T) {
	ctx := context.Background()
	repo := store.NewInMemoryRepository()

	_, err := repo.ReadGrid(ctx, 28, 77)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = repo.SaveGridCell(ctx, reading(28, 77, base, 40), 112)
	require.NoError(t, err)
	_, err = repo.SaveGridCell(ctx, reading(28, 77, base.Add(12*time.Hour), 60), 153)
	require.NoError(t, err)
	_, err = repo.SaveGridCell(ctx, reading(29, 77, base.Add(24*time.Hour), 5), 20)
	require.NoError(t, err)

	got, err := repo.ReadGrid(ctx, 28.3, 77.1)
	require.NoError(t, err)
	assert.Equal(t, 28.0, got.Lat)
	assert.Equal(t, 60.0, *got.PM25, "newest cell wins among equally near cells")

	got, err = repo.ReadGrid(ctx, 28.8, 77.0)
	require.NoError(t, err)
	assert.Equal(t, 29.0, got.Lat)
}

func TestInMemoryRepository_SaveGridCellIgnoresDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := store.NewInMemoryRepository()

	inserted, err := repo.SaveGridCell(ctx, reading(6, 68, base, 12), 50)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.SaveGridCell(ctx, reading(6, 68, base, 99), 173)
	require.NoError(t, err)
	assert.False(t, inserted)

	assert.Equal(t, 1, repo.GridSize())
}

func TestInMemoryRepository_History(t *testing.T) {
	ctx := context.Background()
	repo := store.NewInMemoryRepository()

	for i := 0; i < 5; i++ {
		_, err := repo.SaveGridCell(ctx, reading(28+float64(i), 77, base.Add(time.Duration(i)*time.Hour), 10), 41)
		require.NoError(t, err)
	}
	_, err := repo.SaveGridCell(ctx, reading(28, 77, base.Add(-48*time.Hour), 10), 41)
	require.NoError(t, err)

	history, err := repo.History(ctx, 30, 77, base, 3)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, 30.0, history[0].Lat)
	for _, o := range history {
		assert.Equal(t, store.SourceGrid, o.Source)
		require.NotNil(t, o.AQI)
		assert.Equal(t, 41, *o.AQI)
		assert.False(t, o.ObservedAt.Before(base))
	}
}

func TestInMemoryRepository_PersistDefaultsTimestamp(t *testing.T) {
	ctx := context.Background()
	repo := store.NewInMemoryRepository()

	require.NoError(t, repo.Persist(ctx, &aqi.Reading{Lat: 1, Lon: 2, PM10: aqi.Float(30)}, 27))

	observations := repo.Observations()
	require.Len(t, observations, 1)
	assert.False(t, observations[0].ObservedAt.IsZero())
	assert.Equal(t, store.SourceObservations, observations[0].Source)
	assert.NoError(t, repo.Ping(ctx))
}

func TestInMemoryRepository_PersistIgnoresRepeats(t *testing.T) {
	ctx := context.Background()
	repo := store.NewInMemoryRepository()
	at := time.Date(2024, 11, 3, 6, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Persist(ctx, reading(28.6, 77.2, at, 40), 112))
	require.NoError(t, repo.Persist(ctx, reading(28.6, 77.2, at, 40), 112))
	require.NoError(t, repo.Persist(ctx, reading(28.6, 77.2, at.Add(time.Hour), 42), 117))

	assert.Len(t, repo.Observations(), 2)
}
