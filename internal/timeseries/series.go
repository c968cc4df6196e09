// Package timeseries defines the station series types shared by the
// normalization, alignment, and comparison stages.
package timeseries

import (
	"errors"
	"time"
)

// Role identifies which side of the comparison a station belongs to.
type Role string

const (
	RoleTreatment Role = "treatment"
	RoleControl   Role = "control"
)

// CumulativeHint declares how a station reports its values.
// HintAuto defers to the normalizer's detection heuristic.
type CumulativeHint string

const (
	HintAuto        CumulativeHint = "auto"
	HintCumulative  CumulativeHint = "cumulative"
	HintIncremental CumulativeHint = "incremental"
)

// Station identifies a reporting station and its declared role.
type Station struct {
	Name string
	Role Role
	Hint CumulativeHint
}

// RawReading is a single dated measurement as supplied by ingestion.
type RawReading struct {
	Date  time.Time
	Value float64
}

// StationSeries holds a station's raw readings in date order. It is not
// mutated after ingestion; the normalizer derives from it.
type StationSeries struct {
	Station  Station
	Readings []RawReading
}

// Increment is one day's derived accumulation. Amount is always >= 0; a day
// with no data is simply not present in the series.
type Increment struct {
	Date   time.Time
	Amount float64
}

// DailyIncrementSeries is the normalized per-day form of a station's record.
type DailyIncrementSeries struct {
	Station    Station
	Increments []Increment
}

// Datum is an explicit present/absent cell in a calendar projection.
// Absent days must never collapse to zero.
type Datum struct {
	Value   float64
	Present bool
}

// Note records a non-fatal condition encountered during a run so the
// operator can diagnose missing output.
type Note struct {
	Station string `json:"station,omitempty"`
	Pair    string `json:"pair,omitempty"`
	Kind    string `json:"kind"`
	Detail  string `json:"detail"`
}

// Note kinds.
const (
	NoteInsufficientData = "insufficient_data"
	NoteUnresolvedReset  = "unresolved_reset"
	NoteNoOverlap        = "no_overlap"
	NoteMissingStation   = "missing_station"
)

// ErrEmptyWindow is returned for a reporting window with no calendar dates.
// It is the only fatal data condition; everything else degrades to notes.
var ErrEmptyWindow = errors.New("reporting window contains no calendar dates")

// Day truncates a timestamp to its calendar day in UTC. All series dates are
// normalized through this so map keys and comparisons agree.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WaterYear returns the water year a date falls in, given the annual
// accounting boundary. With an October 1 boundary, 2024-10-01 through
// 2025-09-30 is water year 2025.
func WaterYear(t time.Time, startMonth time.Month, startDay int) int {
	if t.Month() > startMonth || (t.Month() == startMonth && t.Day() >= startDay) {
		return t.Year() + 1
	}
	return t.Year()
}
