package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mtnhydro/opsreport/internal/align"
	"github.com/mtnhydro/opsreport/internal/compare"
	"github.com/mtnhydro/opsreport/internal/ops"
	"github.com/mtnhydro/opsreport/internal/timeseries"
)

// Build shapes a run's aligned series and comparison records into a Bundle.
// No computation happens here: every projection and every record the
// comparator produced appears in the output.
func Build(runID string, month time.Month, year int, precip align.Aligned, schedule *ops.Schedule, records []compare.Record, notes []timeseries.Note) *Bundle {
	b := &Bundle{
		RunID:       runID,
		Month:       int(month),
		Year:        year,
		GeneratedAt: time.Now().UTC(),
		Notes:       notes,
	}

	dates := make([]string, len(precip.Calendar))
	operating := make([]bool, len(precip.Calendar))
	for i, d := range precip.Calendar {
		dates[i] = d.Format("2006-01-02")
		operating[i] = schedule.Operating(d)
	}
	b.Schedule = OperatingSchedule{Dates: dates, Operating: operating}

	b.Precipitation = PrecipitationSummary{
		Dates:     dates,
		Operating: operating,
		Stations:  make([]StationValues, len(precip.Projections)),
	}
	for i, p := range precip.Projections {
		values := make([]*float64, len(p.Cells))
		for j, cell := range p.Cells {
			if cell.Present {
				v := cell.Value
				values[j] = &v
			}
		}
		b.Precipitation.Stations[i] = StationValues{
			Station: p.Station.Name,
			Role:    string(p.Station.Role),
			Values:  values,
		}
	}

	b.SnowDepth = make([]SnowDepthComparison, len(records))
	for i, rec := range records {
		b.SnowDepth[i] = SnowDepthComparison{
			Treatment:     rec.Treatment.Name,
			Control:       rec.Control.Name,
			TreatmentClim: rec.TreatmentClim,
			ControlClim:   rec.ControlClim,
			DiffClim:      rec.DiffClim,
			Diff:          rec.Diff,
			DiffStats:     rec.DiffStats,
			Highlight:     rec.Highlight,
		}
	}
	return b
}

// WriteJSON writes the bundle and its per-plot artifacts under dir, named
// by report period: "202512_bundle.json" and so on.
func (b *Bundle) WriteJSON(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	prefix := fmt.Sprintf("%04d%02d", b.Year, b.Month)
	artifacts := map[string]interface{}{
		prefix + "_bundle.json":        b,
		prefix + "_schedule.json":      b.Schedule,
		prefix + "_precipitation.json": b.Precipitation,
		prefix + "_snow_depth.json":    b.SnowDepth,
	}

	for name, v := range artifacts {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
