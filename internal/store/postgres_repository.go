package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aqinsight/aqinsight/internal/aqi"
)

//go:embed schema.sql
var schema string

// Migrate creates the tables and indexes if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Persist appends a live observation. Repeats of a stored observation are ignored.
func (r *PostgresRepository) Persist(ctx context.Context, reading *aqi.Reading, overall int) error {
	query := `
		INSERT INTO observations (lat, lon, observed_at, pm25, pm10, no2, o3, so2, co, aqi)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (lat, lon, observed_at) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		reading.Lat, reading.Lon, observedAt(reading),
		reading.PM25, reading.PM10, reading.NO2, reading.O3, reading.SO2, reading.CO,
		overall,
	)
	if err != nil {
		return fmt.Errorf("insert observation: %w", err)
	}
	return nil
}

// ReadCached returns the newest live observation within radiusDeg of the point.
func (r *PostgresRepository) ReadCached(ctx context.Context, lat, lon, radiusDeg float64, since time.Time) (*aqi.Reading, error) {
	query := `
		SELECT lat, lon, observed_at, pm25, pm10, no2, o3, so2, co
		FROM observations
		WHERE ABS(lat - $1) < $3
		  AND ABS(lon - $2) < $3
		  AND ($4::timestamptz IS NULL OR observed_at >= $4)
		ORDER BY observed_at DESC
		LIMIT 1
	`

	var sinceArg *time.Time
	if !since.IsZero() {
		sinceArg = &since
	}

	return r.scanReading(ctx, query, lat, lon, radiusDeg, sinceArg)
}

// ReadGrid returns the nearest grid cell by Manhattan distance.
func (r *PostgresRepository) ReadGrid(ctx context.Context, lat, lon float64) (*aqi.Reading, error) {
	query := `
		SELECT lat, lon, observed_at, pm25, pm10, no2, o3, so2, co
		FROM grid_cells
		ORDER BY ABS(lat - $1) + ABS(lon - $2), observed_at DESC
		LIMIT 1
	`

	return r.scanReading(ctx, query, lat, lon)
}

// scanReading scans a single reading row.
func (r *PostgresRepository) scanReading(ctx context.Context, query string, args ...any) (*aqi.Reading, error) {
	var reading aqi.Reading

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&reading.Lat,
		&reading.Lon,
		&reading.ObservedAt,
		&reading.PM25,
		&reading.PM10,
		&reading.NO2,
		&reading.O3,
		&reading.SO2,
		&reading.CO,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &reading, nil
}

// SaveGridCell appends a grid cell, ignoring duplicates.
func (r *PostgresRepository) SaveGridCell(ctx context.Context, reading *aqi.Reading, overall int) (bool, error) {
	query := `
		INSERT INTO grid_cells (lat, lon, observed_at, pm25, pm10, no2, o3, so2, co, aqi)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (lat, lon, observed_at) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query,
		reading.Lat, reading.Lon, observedAt(reading),
		reading.PM25, reading.PM10, reading.NO2, reading.O3, reading.SO2, reading.CO,
		overall,
	)
	if err != nil {
		return false, fmt.Errorf("insert grid cell: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// History returns the nearest grid cells observed since the given time.
func (r *PostgresRepository) History(ctx context.Context, lat, lon float64, since time.Time, limit int) ([]Observation, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `
		SELECT lat, lon, observed_at, pm25, pm10, no2, o3, so2, co, aqi
		FROM grid_cells
		WHERE observed_at >= $3
		ORDER BY ABS(lat - $1) + ABS(lon - $2)
		LIMIT $4
	`

	rows, err := r.pool.Query(ctx, query, lat, lon, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		obs := Observation{Source: SourceGrid}
		err := rows.Scan(
			&obs.Lat,
			&obs.Lon,
			&obs.ObservedAt,
			&obs.PM25,
			&obs.PM10,
			&obs.NO2,
			&obs.O3,
			&obs.SO2,
			&obs.CO,
			&obs.AQI,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, obs)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// Ping checks the database connection.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// observedAt defaults a missing timestamp to now.
func observedAt(r *aqi.Reading) time.Time {
	if r.ObservedAt.IsZero() {
		return time.Now().UTC()
	}
	return r.ObservedAt
}
