package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mtnhydro/opsreport/internal/log"
	"github.com/mtnhydro/opsreport/internal/timeseries"
)

const defaultReadingsTable = "station_readings"

// PostgresSource pulls readings from a TimescaleDB/Postgres table populated
// by the station telemetry pipeline. Expected columns: stationname, measure,
// date, value.
type PostgresSource struct {
	db    *gorm.DB
	table string
}

// NewPostgresSource connects to the database. An empty table name falls back
// to the default readings table.
func NewPostgresSource(connectionString, table string) (*PostgresSource, error) {
	dbLogger := gormlogger.New(
		zap.NewStdLog(log.GetZapLogger()),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Warn,
		},
	)

	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("connect to readings database: %w", err)
	}

	if table == "" {
		table = defaultReadingsTable
	}
	return &PostgresSource{db: db, table: table}, nil
}

type readingRow struct {
	Date  time.Time `gorm:"column:date"`
	Value float64   `gorm:"column:value"`
}

// Series fetches a station's readings for one measure in date order.
func (s *PostgresSource) Series(ctx context.Context, station timeseries.Station, measure Measure) (timeseries.StationSeries, error) {
	series := timeseries.StationSeries{Station: station}

	var rows []readingRow
	err := s.db.WithContext(ctx).
		Table(s.table).
		Select("date", "value").
		Where("stationname = ? AND measure = ?", station.Name, string(measure)).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return series, fmt.Errorf("station %s: fetch readings: %w", station.Name, err)
	}

	for _, r := range rows {
		series.Readings = append(series.Readings, timeseries.RawReading{
			Date:  timeseries.Day(r.Date),
			Value: r.Value,
		})
	}
	return series, nil
}
