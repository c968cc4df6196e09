// Package report shapes the engine's computed series and comparisons into
// the stable schema consumed by the rendering pipeline. Field names and
// shapes do not vary with which stations have data in a given month.
package report

import (
	"time"

	"github.com/mtnhydro/opsreport/internal/compare"
	"github.com/mtnhydro/opsreport/internal/timeseries"
)

// Bundle is the complete output of one reporting run: one structure per
// plot type plus run metadata.
type Bundle struct {
	RunID       string    `json:"run_id"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	GeneratedAt time.Time `json:"generated_at"`

	Schedule      OperatingSchedule     `json:"operating_schedule"`
	Precipitation PrecipitationSummary  `json:"precipitation_summary"`
	SnowDepth     []SnowDepthComparison `json:"snow_depth_comparisons"`

	// Notes record every station or pair skipped during the run and why.
	Notes []timeseries.Note `json:"notes,omitempty"`
}

// OperatingSchedule drives the schedule plot: one flag per calendar day.
type OperatingSchedule struct {
	Dates     []string `json:"dates"`
	Operating []bool   `json:"operating"`
}

// StationValues is one station's calendar-aligned daily values. A nil entry
// is an absent day, which renderers must not draw as zero.
type StationValues struct {
	Station string     `json:"station"`
	Role    string     `json:"role"`
	Values  []*float64 `json:"values"`
}

// PrecipitationSummary drives the daily precipitation plot: the shared
// calendar, per-station aligned series in configuration order, and the
// operating overlay.
type PrecipitationSummary struct {
	Dates     []string        `json:"dates"`
	Operating []bool          `json:"operating"`
	Stations  []StationValues `json:"stations"`
}

// SnowDepthComparison drives one treatment-vs-control boxplot figure.
type SnowDepthComparison struct {
	Treatment string `json:"treatment"`
	Control   string `json:"control"`

	TreatmentClim compare.Climatology `json:"treatment_climatology"`
	ControlClim   compare.Climatology `json:"control_climatology"`
	DiffClim      compare.Climatology `json:"diff_climatology"`

	Diff      []compare.DiffPoint `json:"diff"`
	DiffStats compare.Stats       `json:"diff_stats"`
	Highlight compare.Highlight   `json:"highlight"`
}
