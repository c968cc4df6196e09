package engine

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mtnhydro/opsreport/internal/config"
	"github.com/mtnhydro/opsreport/internal/ingest"
	"github.com/mtnhydro/opsreport/internal/timeseries"
)

// fakeSource serves canned readings keyed by station and measure.
type fakeSource struct {
	readings map[string]map[ingest.Measure][]timeseries.RawReading
	missing  map[string]bool
}

func (f *fakeSource) Series(_ context.Context, station timeseries.Station, measure ingest.Measure) (timeseries.StationSeries, error) {
	if f.missing[station.Name] {
		return timeseries.StationSeries{Station: station}, fmt.Errorf("no file for %s", station.Name)
	}
	return timeseries.StationSeries{
		Station:  station,
		Readings: f.readings[station.Name][measure],
	}, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// decemberReadings builds a cumulative precipitation record and a flat snow
// depth record covering December of the given year.
func decemberReadings(year int, depth float64) map[ingest.Measure][]timeseries.RawReading {
	var precip, snow []timeseries.RawReading
	total := 0.0
	for d := 1; d <= 31; d++ {
		total += 0.1
		precip = append(precip, timeseries.RawReading{Date: day(year, time.December, d), Value: total})
		snow = append(snow, timeseries.RawReading{Date: day(year, time.December, d), Value: depth})
	}
	return map[ingest.Measure][]timeseries.RawReading{
		ingest.MeasurePrecip:    precip,
		ingest.MeasureSnowDepth: snow,
	}
}

func testConfig() config.Config {
	cfg := config.Config{
		Stations: config.StationsConfig{
			Treatment: []config.StationConfig{
				{Name: "La Sal Mtn", Cumulative: "cumulative"},
				{Name: "Gold Basin", Cumulative: "cumulative"},
			},
			Control: []config.StationConfig{
				{Name: "Camp Jackson", Cumulative: "cumulative"},
			},
		},
		Normalize: config.NormalizeConfig{
			ResetTolerance:     config.DefaultResetTolerance,
			JitterTolerance:    config.DefaultJitterTolerance,
			CumulativeFraction: config.DefaultCumulativeFraction,
		},
		WaterYear: config.WaterYearConfig{StartMonth: 10, StartDay: 1},
	}
	return cfg
}

func TestRunFullPipeline(t *testing.T) {
	src := &fakeSource{
		readings: map[string]map[ingest.Measure][]timeseries.RawReading{
			"La Sal Mtn":   decemberReadings(2025, 30),
			"Gold Basin":   decemberReadings(2025, 35),
			"Camp Jackson": decemberReadings(2025, 20),
		},
	}

	e := New(testConfig(), src, nil, zap.NewNop().Sugar())
	bundle, err := e.Run(context.Background(), time.December, 2025)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if bundle.Month != 12 || bundle.Year != 2025 {
		t.Errorf("bundle period %d/%d", bundle.Month, bundle.Year)
	}
	if bundle.RunID == "" {
		t.Error("bundle missing run ID")
	}
	if len(bundle.Precipitation.Dates) != 31 {
		t.Errorf("expected 31 dates, got %d", len(bundle.Precipitation.Dates))
	}
	if len(bundle.Precipitation.Stations) != 3 {
		t.Fatalf("expected 3 station series, got %d", len(bundle.Precipitation.Stations))
	}
	// Configuration order: treatments then controls.
	wantOrder := []string{"La Sal Mtn", "Gold Basin", "Camp Jackson"}
	for i, s := range bundle.Precipitation.Stations {
		if s.Station != wantOrder[i] {
			t.Errorf("station %d is %q, want %q", i, s.Station, wantOrder[i])
		}
	}
	// 2 treatments x 1 control.
	if len(bundle.SnowDepth) != 2 {
		t.Fatalf("expected 2 comparisons, got %d", len(bundle.SnowDepth))
	}
	if bundle.SnowDepth[0].Treatment != "La Sal Mtn" || bundle.SnowDepth[1].Treatment != "Gold Basin" {
		t.Errorf("comparison order: %q, %q", bundle.SnowDepth[0].Treatment, bundle.SnowDepth[1].Treatment)
	}
	// Flat depths 35 vs 20: constant difference of 15.
	gb := bundle.SnowDepth[1]
	if gb.DiffStats.N != 31 || gb.DiffStats.Mean != 15 {
		t.Errorf("Gold Basin diff stats %+v, want n=31 mean=15", gb.DiffStats)
	}
	if !gb.Highlight.Valid || gb.Highlight.DiffMean != 15 {
		t.Errorf("Gold Basin highlight %+v", gb.Highlight)
	}

	// The cumulative precipitation record differences to 0.1 per day; the
	// first day of the record has no delta and must be absent, not zero.
	lasal := bundle.Precipitation.Stations[0]
	if lasal.Values[0] != nil {
		t.Errorf("Dec 1 should be absent for a cumulative record, got %v", *lasal.Values[0])
	}
	if lasal.Values[1] == nil {
		t.Fatal("Dec 2 should be present")
	}
}

func TestRunIsolatesMissingStation(t *testing.T) {
	src := &fakeSource{
		readings: map[string]map[ingest.Measure][]timeseries.RawReading{
			"La Sal Mtn":   decemberReadings(2025, 30),
			"Gold Basin":   decemberReadings(2025, 35),
			"Camp Jackson": decemberReadings(2025, 20),
		},
		missing: map[string]bool{"Gold Basin": true},
	}

	e := New(testConfig(), src, nil, zap.NewNop().Sugar())
	bundle, err := e.Run(context.Background(), time.December, 2025)
	if err != nil {
		t.Fatalf("a missing station must not fail the run: %v", err)
	}

	// The missing station still appears in the schema, all-absent.
	if len(bundle.Precipitation.Stations) != 3 {
		t.Fatalf("expected 3 station series, got %d", len(bundle.Precipitation.Stations))
	}
	for _, v := range bundle.Precipitation.Stations[1].Values {
		if v != nil {
			t.Error("missing station should project all-absent")
		}
	}
	// Only the surviving treatment pairs with the control.
	if len(bundle.SnowDepth) != 1 {
		t.Fatalf("expected 1 comparison, got %d", len(bundle.SnowDepth))
	}

	missingNotes := 0
	overlapNotes := 0
	for _, n := range bundle.Notes {
		switch n.Kind {
		case timeseries.NoteMissingStation:
			missingNotes++
		case timeseries.NoteNoOverlap:
			overlapNotes++
		}
	}
	if missingNotes != 2 {
		t.Errorf("expected 2 missing-station notes (both measures), got %d", missingNotes)
	}
	if overlapNotes != 1 {
		t.Errorf("expected 1 no-overlap note for the empty pair, got %d", overlapNotes)
	}
}

func TestRunDeterministic(t *testing.T) {
	src := &fakeSource{
		readings: map[string]map[ingest.Measure][]timeseries.RawReading{
			"La Sal Mtn":   decemberReadings(2025, 30),
			"Gold Basin":   decemberReadings(2025, 35),
			"Camp Jackson": decemberReadings(2025, 20),
		},
	}
	e := New(testConfig(), src, nil, zap.NewNop().Sugar())

	first, err := e.Run(context.Background(), time.December, 2025)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Run(context.Background(), time.December, 2025)
	if err != nil {
		t.Fatal(err)
	}

	// Everything except run metadata must be identical run to run.
	first.RunID, second.RunID = "", ""
	first.GeneratedAt, second.GeneratedAt = time.Time{}, time.Time{}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different bundles")
	}
}

func TestRunInvalidMonth(t *testing.T) {
	e := New(testConfig(), &fakeSource{}, nil, zap.NewNop().Sugar())
	if _, err := e.Run(context.Background(), time.Month(13), 2025); err == nil {
		t.Fatal("expected error for month 13")
	}
}
