// Package ingest supplies raw station readings to the report engine from
// CSV files, a local SQLite store, or a TimescaleDB/Postgres table. Dates
// are parsed here; the core never sees free-text dates.
package ingest

import (
	"context"

	"github.com/mtnhydro/opsreport/internal/timeseries"
)

// Measure selects which quantity of a station's record to ingest.
type Measure string

const (
	MeasurePrecip    Measure = "precipitation"
	MeasureSnowDepth Measure = "snow_depth"
)

// Source supplies a station's raw readings for one measure, in date order.
// A station with no data returns an empty series, not an error; errors are
// reserved for unreachable or malformed sources.
type Source interface {
	Series(ctx context.Context, station timeseries.Station, measure Measure) (timeseries.StationSeries, error)
}
