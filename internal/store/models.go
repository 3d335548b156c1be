// Package store persists live observations and regional grid cells.
package store

import (
	"errors"

	"github.com/aqinsight/aqinsight/internal/aqi"
)

// ErrNotFound is returned when no stored row matches a query.
var ErrNotFound = errors.New("no matching observation")

// Source names the table an observation was read from.
type Source string

const (
	// SourceObservations holds live observations persisted by the resolver.
	SourceObservations Source = "observations"

	// SourceGrid holds cells written by the grid refresher.
	SourceGrid Source = "grid_cells"
)

// Observation is a stored reading with its overall index as recorded.
type Observation struct {
	aqi.Reading

	// AQI is the stored overall index. Nil when it was not recorded.
	AQI *int

	Source Source
}
