package ingest

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mtnhydro/opsreport/internal/timeseries"
)

func writeStationCSV(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCSVSourceSeries(t *testing.T) {
	dir := t.TempDir()
	writeStationCSV(t, dir, "Gold Basin.csv",
		"Date,Precipitation Accumulation (in),Snow Depth (in)\n"+
			"2025-12-01,10.2,31\n"+
			"2025-12-02,10.4,33\n"+
			"bad-date,11.0,34\n"+
			"2025-12-04,not-a-number,35\n"+
			"2025-12-05,11.2,36\n")

	station := timeseries.Station{Name: "Gold Basin", Role: timeseries.RoleTreatment, Hint: timeseries.HintAuto}
	src := NewCSVSource(dir, nil)

	tests := []struct {
		name    string
		measure Measure
		dates   []string
		values  []float64
	}{
		{
			name:    "precipitation column",
			measure: MeasurePrecip,
			dates:   []string{"2025-12-01", "2025-12-02", "2025-12-05"},
			values:  []float64{10.2, 10.4, 11.2},
		},
		{
			name:    "snow depth column",
			measure: MeasureSnowDepth,
			dates:   []string{"2025-12-01", "2025-12-02", "2025-12-04", "2025-12-05"},
			values:  []float64{31, 33, 35, 36},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, err := src.Series(context.Background(), station, tt.measure)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(series.Readings) != len(tt.dates) {
				t.Fatalf("expected %d readings, got %d: %+v", len(tt.dates), len(series.Readings), series.Readings)
			}
			for i, r := range series.Readings {
				if r.Date.Format("2006-01-02") != tt.dates[i] {
					t.Errorf("reading %d date %s, want %s", i, r.Date.Format("2006-01-02"), tt.dates[i])
				}
				if math.Abs(r.Value-tt.values[i]) > 1e-9 {
					t.Errorf("reading %d value %.2f, want %.2f", i, r.Value, tt.values[i])
				}
			}
		})
	}
}

func TestCSVSourceFilenameOverride(t *testing.T) {
	dir := t.TempDir()
	writeStationCSV(t, dir, "lasal_mtn_export.csv", "Date,Precip (in)\n2025-12-01,0.4\n")

	src := NewCSVSource(dir, map[string]string{"La Sal Mtn": "lasal_mtn_export.csv"})
	series, err := src.Series(context.Background(),
		timeseries.Station{Name: "La Sal Mtn", Role: timeseries.RoleTreatment}, MeasurePrecip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series.Readings) != 1 || series.Readings[0].Value != 0.4 {
		t.Errorf("unexpected readings: %+v", series.Readings)
	}
}

func TestCSVSourceMissingMeasureColumn(t *testing.T) {
	dir := t.TempDir()
	writeStationCSV(t, dir, "Elke Ridge.csv", "Date,Precip (in)\n2025-12-01,0.4\n")

	src := NewCSVSource(dir, nil)
	series, err := src.Series(context.Background(),
		timeseries.Station{Name: "Elke Ridge", Role: timeseries.RoleControl}, MeasureSnowDepth)
	if err != nil {
		t.Fatalf("missing measure column should not error, got %v", err)
	}
	if len(series.Readings) != 0 {
		t.Errorf("expected empty series, got %+v", series.Readings)
	}
}

func TestCSVSourceMissingFile(t *testing.T) {
	src := NewCSVSource(t.TempDir(), nil)
	_, err := src.Series(context.Background(),
		timeseries.Station{Name: "Nowhere", Role: timeseries.RoleControl}, MeasurePrecip)
	if err == nil {
		t.Fatal("expected error for missing station file")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "readings.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	station := timeseries.Station{Name: "Buckboard Flat", Role: timeseries.RoleControl, Hint: timeseries.HintAuto}
	in := timeseries.StationSeries{
		Station: station,
		Readings: []timeseries.RawReading{
			{Date: time.Date(2025, time.December, 2, 0, 0, 0, 0, time.UTC), Value: 10.4},
			{Date: time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC), Value: 10.2},
		},
	}

	if err := store.ImportSeries(ctx, in, MeasurePrecip); err != nil {
		t.Fatalf("import: %v", err)
	}
	// Re-import with a corrected value; the date must not duplicate.
	in.Readings[0].Value = 10.5
	if err := store.ImportSeries(ctx, in, MeasurePrecip); err != nil {
		t.Fatalf("re-import: %v", err)
	}

	out, err := store.Series(ctx, station, MeasurePrecip)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(out.Readings) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(out.Readings))
	}
	if !out.Readings[0].Date.Before(out.Readings[1].Date) {
		t.Error("readings not in date order")
	}
	if math.Abs(out.Readings[1].Value-10.5) > 1e-9 {
		t.Errorf("re-imported value = %.2f, want 10.5", out.Readings[1].Value)
	}

	// A different measure stays separate.
	other, err := store.Series(ctx, station, MeasureSnowDepth)
	if err != nil {
		t.Fatalf("fetch other measure: %v", err)
	}
	if len(other.Readings) != 0 {
		t.Errorf("expected no snow depth readings, got %d", len(other.Readings))
	}
}
