package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mtnhydro/opsreport/internal/timeseries"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfig = `
stations:
  treatment:
    - name: La Sal Mtn
      cumulative: cumulative
    - name: Gold Basin
  control:
    - name: Camp Jackson
      cumulative: incremental
source:
  csv-dir: data/csv
schedule:
  csv: data/csv/operations.csv
`

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	treatments := cfg.TreatmentStations()
	if len(treatments) != 2 {
		t.Fatalf("expected 2 treatment stations, got %d", len(treatments))
	}
	if treatments[0].Name != "La Sal Mtn" || treatments[0].Role != timeseries.RoleTreatment {
		t.Errorf("unexpected first treatment station: %+v", treatments[0])
	}
	if treatments[0].Hint != timeseries.HintCumulative {
		t.Errorf("explicit hint not preserved: %+v", treatments[0])
	}
	if treatments[1].Hint != timeseries.HintAuto {
		t.Errorf("missing hint should default to auto: %+v", treatments[1])
	}

	controls := cfg.ControlStations()
	if len(controls) != 1 || controls[0].Hint != timeseries.HintIncremental {
		t.Errorf("unexpected controls: %+v", controls)
	}

	// Defaults.
	if cfg.Normalize.ResetTolerance != DefaultResetTolerance {
		t.Errorf("reset tolerance default: %v", cfg.Normalize.ResetTolerance)
	}
	if cfg.WaterYear.StartMonth != 10 || cfg.WaterYear.StartDay != 1 {
		t.Errorf("water year default: %+v", cfg.WaterYear)
	}
	if cfg.Output.Dir != "output" {
		t.Errorf("output dir default: %q", cfg.Output.Dir)
	}
}

func TestNewConfigRejectsStructurallyInvalid(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{
			name: "no treatment stations",
			contents: `
stations:
  control:
    - name: Camp Jackson
source:
  csv-dir: data
`,
		},
		{
			name: "no control stations",
			contents: `
stations:
  treatment:
    - name: La Sal Mtn
source:
  csv-dir: data
`,
		},
		{
			name: "bad cumulative hint",
			contents: `
stations:
  treatment:
    - name: La Sal Mtn
      cumulative: sometimes
  control:
    - name: Camp Jackson
source:
  csv-dir: data
`,
		},
		{
			name: "bad water year month",
			contents: `
stations:
  treatment:
    - name: La Sal Mtn
  control:
    - name: Camp Jackson
water-year:
  start-month: 13
source:
  csv-dir: data
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewConfig(writeConfig(t, tt.contents)); err == nil {
				t.Error("expected configuration error")
			}
		})
	}
}

func TestNewConfigMissingFile(t *testing.T) {
	if _, err := NewConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
