package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mtnhydro/opsreport/internal/timeseries"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS readings (
	stationname TEXT NOT NULL,
	measure     TEXT NOT NULL,
	date        TEXT NOT NULL,
	value       REAL NOT NULL,
	PRIMARY KEY (stationname, measure, date)
)`

// SQLiteStore is a local readings cache built by csv-import and read by the
// engine, so report runs don't depend on the original CSV exports.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if necessary initializes) a readings database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ImportSeries upserts a station's raw readings for one measure. Re-imports
// of the same date overwrite the previous value.
func (s *SQLiteStore) ImportSeries(ctx context.Context, series timeseries.StationSeries, measure Measure) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO readings (stationname, measure, date, value)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (stationname, measure, date)
		 DO UPDATE SET value = excluded.value`,
	)
	if err != nil {
		return fmt.Errorf("prepare import statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range series.Readings {
		day := timeseries.Day(r.Date).Format("2006-01-02")
		if _, err := stmt.ExecContext(ctx, series.Station.Name, string(measure), day, r.Value); err != nil {
			return fmt.Errorf("import reading %s/%s: %w", series.Station.Name, day, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// Series fetches a station's readings for one measure in date order.
func (s *SQLiteStore) Series(ctx context.Context, station timeseries.Station, measure Measure) (timeseries.StationSeries, error) {
	series := timeseries.StationSeries{Station: station}

	rows, err := s.db.QueryContext(ctx,
		`SELECT date, value FROM readings
		 WHERE stationname = ? AND measure = ?
		 ORDER BY date`,
		station.Name, string(measure),
	)
	if err != nil {
		return series, fmt.Errorf("station %s: query readings: %w", station.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var day string
		var value float64
		if err := rows.Scan(&day, &value); err != nil {
			return series, fmt.Errorf("station %s: scan reading: %w", station.Name, err)
		}
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			return series, fmt.Errorf("station %s: bad stored date %q: %w", station.Name, day, err)
		}
		series.Readings = append(series.Readings, timeseries.RawReading{Date: date, Value: value})
	}
	if err := rows.Err(); err != nil {
		return series, fmt.Errorf("station %s: iterate readings: %w", station.Name, err)
	}
	return series, nil
}
