package store

import (
	"context"
	"time"

	"github.com/aqinsight/aqinsight/internal/aqi"
)

// DefaultHistoryLimit caps History when no limit is given.
const DefaultHistoryLimit = 200

// Repository is the storage contract shared by the Postgres and in-memory stores.
type Repository interface {
	// Persist appends a live observation.
	Persist(ctx context.Context, r *aqi.Reading, overall int) error

	// ReadCached returns the newest live observation with |lat-x| < radiusDeg and
	// |lon-y| < radiusDeg. A zero since means no age bound.
	// Returns ErrNotFound if nothing matches.
	ReadCached(ctx context.Context, lat, lon, radiusDeg float64, since time.Time) (*aqi.Reading, error)

	// ReadGrid returns the grid cell nearest by |dlat|+|dlon|, newest first on ties.
	// Returns ErrNotFound if the grid is empty.
	ReadGrid(ctx context.Context, lat, lon float64) (*aqi.Reading, error)

	// SaveGridCell appends a grid cell. Duplicates on (lat, lon, observed_at) are
	// ignored and reported as inserted=false.
	SaveGridCell(ctx context.Context, r *aqi.Reading, overall int) (inserted bool, err error)

	// History returns up to limit grid cells observed at or after since, nearest
	// to the point first.
	History(ctx context.Context, lat, lon float64, since time.Time, limit int) ([]Observation, error)

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
}

var (
	_ Repository = (*PostgresRepository)(nil)
	_ Repository = (*InMemoryRepository)(nil)
)
