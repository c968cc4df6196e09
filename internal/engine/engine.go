// Package engine coordinates one reporting run: ingest raw station records,
// normalize each station independently, align everything onto the reporting
// calendar, compare treatment against control, and emit the report bundle.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mtnhydro/opsreport/internal/align"
	"github.com/mtnhydro/opsreport/internal/compare"
	"github.com/mtnhydro/opsreport/internal/config"
	"github.com/mtnhydro/opsreport/internal/ingest"
	"github.com/mtnhydro/opsreport/internal/normalize"
	"github.com/mtnhydro/opsreport/internal/ops"
	"github.com/mtnhydro/opsreport/internal/report"
	"github.com/mtnhydro/opsreport/internal/timeseries"
)

// Engine runs the normalization and comparison pipeline for one report
// period.
type Engine struct {
	cfg      config.Config
	source   ingest.Source
	schedule *ops.Schedule
	logger   *zap.SugaredLogger
}

// New creates an engine. A nil schedule means no operating annotations.
func New(cfg config.Config, source ingest.Source, schedule *ops.Schedule, logger *zap.SugaredLogger) *Engine {
	if schedule == nil {
		schedule = ops.Empty()
	}
	return &Engine{
		cfg:      cfg,
		source:   source,
		schedule: schedule,
		logger:   logger,
	}
}

// stationResult is the output of one station's independent normalization
// task.
type stationResult struct {
	precip timeseries.DailyIncrementSeries
	depth  timeseries.DailyIncrementSeries
	notes  []timeseries.Note
}

// Run executes the pipeline and returns the report bundle. Per-station and
// per-pair problems become notes on the bundle; only a structurally invalid
// request fails the run.
func (e *Engine) Run(ctx context.Context, month time.Month, year int) (*report.Bundle, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid report month %d", month)
	}

	cal, err := align.MonthWindow(year, month).Calendar()
	if err != nil {
		return nil, err
	}

	treatments := e.cfg.TreatmentStations()
	controls := e.cfg.ControlStations()
	stations := append(append([]timeseries.Station{}, treatments...), controls...)

	params := normalize.Params{
		ResetTolerance:      e.cfg.Normalize.ResetTolerance,
		JitterTolerance:     e.cfg.Normalize.JitterTolerance,
		CumulativeFraction:  e.cfg.Normalize.CumulativeFraction,
		WaterYearStartMonth: time.Month(e.cfg.WaterYear.StartMonth),
		WaterYearStartDay:   e.cfg.WaterYear.StartDay,
	}

	// Each station normalizes independently; results merge by index so
	// completion order never affects output.
	results := make([]stationResult, len(stations))
	var wg sync.WaitGroup
	for i, station := range stations {
		wg.Add(1)
		go func(i int, station timeseries.Station) {
			defer wg.Done()
			results[i] = e.normalizeStation(ctx, station, params)
		}(i, station)
	}
	wg.Wait()

	var notes []timeseries.Note
	precipSeries := make([]timeseries.DailyIncrementSeries, len(stations))
	depthSeries := make([]timeseries.DailyIncrementSeries, len(stations))
	for i, r := range results {
		precipSeries[i] = r.precip
		depthSeries[i] = r.depth
		notes = append(notes, r.notes...)
	}

	precipAligned := align.Project(cal, precipSeries)

	records, pairNotes := compare.Records(
		depthSeries[:len(treatments)], depthSeries[len(treatments):], month, year)
	notes = append(notes, pairNotes...)

	for _, n := range notes {
		e.logger.Warnf("run note: station=%q pair=%q kind=%s: %s", n.Station, n.Pair, n.Kind, n.Detail)
	}

	runID := uuid.NewString()
	e.logger.Infof("report run %s: %s %d, %d stations, %d comparisons, %d notes",
		runID, month, year, len(stations), len(records), len(notes))

	return report.Build(runID, month, year, precipAligned, e.schedule, records, notes), nil
}

// normalizeStation ingests and normalizes both measures for one station.
// It is a pure function of the fetched data; failures degrade to notes.
func (e *Engine) normalizeStation(ctx context.Context, station timeseries.Station, params normalize.Params) stationResult {
	res := stationResult{
		precip: timeseries.DailyIncrementSeries{Station: station},
		depth:  timeseries.DailyIncrementSeries{Station: station},
	}

	raw, err := e.source.Series(ctx, station, ingest.MeasurePrecip)
	if err != nil {
		res.notes = append(res.notes, timeseries.Note{
			Station: station.Name,
			Kind:    timeseries.NoteMissingStation,
			Detail:  fmt.Sprintf("precipitation: %v", err),
		})
	} else {
		var notes []timeseries.Note
		res.precip, notes = normalize.Daily(raw, params)
		res.notes = append(res.notes, notes...)
	}

	depth, err := e.source.Series(ctx, station, ingest.MeasureSnowDepth)
	if err != nil {
		res.notes = append(res.notes, timeseries.Note{
			Station: station.Name,
			Kind:    timeseries.NoteMissingStation,
			Detail:  fmt.Sprintf("snow depth: %v", err),
		})
		return res
	}

	// Snow depth is a level measurement, never a counter: bypass detection
	// and reset logic regardless of the station's precipitation hint.
	depth.Station.Hint = timeseries.HintIncremental
	series, depthNotes := normalize.Daily(depth, params)
	series.Station = station
	res.depth = series
	res.notes = append(res.notes, depthNotes...)
	return res
}
