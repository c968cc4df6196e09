// Package normalize converts raw station records into daily increment series.
// Cumulative counter records (SNOTEL-style running totals that reset each
// water year) are differenced; incremental records pass through. Either way
// the output contains only non-negative amounts on strictly increasing dates.
package normalize

import (
	"fmt"
	"sort"
	"time"

	"github.com/mtnhydro/opsreport/internal/timeseries"
)

// Params defines the normalization policy knobs.
type Params struct {
	// ResetTolerance is the raw-value drop beyond which a decrease is treated
	// as a counter reset. The boundary delta is discarded, never negative.
	ResetTolerance float64

	// JitterTolerance bounds small negative deltas (sensor corrections);
	// drops within it clamp to a zero increment instead of a reset.
	JitterTolerance float64

	// CumulativeFraction is the minimum fraction of non-negative successive
	// deltas for the auto-detection heuristic to call a record cumulative.
	CumulativeFraction float64

	// WaterYearStartMonth and WaterYearStartDay locate the annual accounting
	// boundary, used only to annotate reset diagnostics.
	WaterYearStartMonth time.Month
	WaterYearStartDay   int
}

// DefaultParams returns the documented default policy.
func DefaultParams() Params {
	return Params{
		ResetTolerance:      0.25,
		JitterTolerance:     0.05,
		CumulativeFraction:  0.90,
		WaterYearStartMonth: time.October,
		WaterYearStartDay:   1,
	}
}

// Daily converts a station's raw record into a per-day increment series.
// It is a pure function of its input: the source series is not mutated and
// identical inputs always yield identical output. Fewer than two raw
// readings yield an empty series, not an error.
func Daily(series timeseries.StationSeries, params Params) (timeseries.DailyIncrementSeries, []timeseries.Note) {
	out := timeseries.DailyIncrementSeries{Station: series.Station}
	var notes []timeseries.Note

	readings := sortedDaily(series.Readings)
	if len(readings) < 2 {
		notes = append(notes, timeseries.Note{
			Station: series.Station.Name,
			Kind:    timeseries.NoteInsufficientData,
			Detail:  fmt.Sprintf("%d raw readings, need at least 2", len(readings)),
		})
		return out, notes
	}

	cumulative := false
	switch series.Station.Hint {
	case timeseries.HintCumulative:
		cumulative = true
	case timeseries.HintIncremental:
		cumulative = false
	default:
		cumulative = looksCumulative(readings, params)
	}

	if !cumulative {
		out.Increments = passThrough(readings, params)
		return out, notes
	}

	out.Increments, notes = difference(series.Station, readings, params)
	return out, notes
}

// sortedDaily normalizes reading dates to calendar days, sorts them, and
// keeps the last reading for any duplicated day so dates are strictly
// increasing.
func sortedDaily(raw []timeseries.RawReading) []timeseries.RawReading {
	readings := make([]timeseries.RawReading, len(raw))
	for i, r := range raw {
		readings[i] = timeseries.RawReading{Date: timeseries.Day(r.Date), Value: r.Value}
	}
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Date.Before(readings[j].Date)
	})

	deduped := readings[:0]
	for _, r := range readings {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(r.Date) {
			deduped[n-1] = r
			continue
		}
		deduped = append(deduped, r)
	}
	return deduped
}

// looksCumulative applies the detection heuristic: successive deltas are
// overwhelmingly non-negative and the record trends upward overall.
func looksCumulative(readings []timeseries.RawReading, params Params) bool {
	nonNegative := 0
	for i := 1; i < len(readings); i++ {
		if readings[i].Value >= readings[i-1].Value {
			nonNegative++
		}
	}
	fraction := float64(nonNegative) / float64(len(readings)-1)
	if fraction < params.CumulativeFraction {
		return false
	}

	third := len(readings) / 3
	if third == 0 {
		return readings[len(readings)-1].Value >= readings[0].Value
	}
	var head, tail float64
	for i := 0; i < third; i++ {
		head += readings[i].Value
		tail += readings[len(readings)-third+i].Value
	}
	return tail > head
}

// passThrough treats each reading as its own daily amount. Negative values
// within the jitter tolerance clamp to zero; anything lower is invalid for a
// non-cumulative record and is skipped.
func passThrough(readings []timeseries.RawReading, params Params) []timeseries.Increment {
	increments := make([]timeseries.Increment, 0, len(readings))
	for _, r := range readings {
		amount := r.Value
		if amount < 0 {
			if amount < -params.JitterTolerance {
				continue
			}
			amount = 0
		}
		increments = append(increments, timeseries.Increment{Date: r.Date, Amount: amount})
	}
	return increments
}

// difference computes successive deltas of a cumulative record. A delta for
// a multi-day gap is attributed wholly to the later date; the days between
// stay absent. A drop beyond the reset tolerance discards the boundary delta
// and restarts accumulation from the post-reset value.
func difference(station timeseries.Station, readings []timeseries.RawReading, params Params) ([]timeseries.Increment, []timeseries.Note) {
	increments := make([]timeseries.Increment, 0, len(readings)-1)
	var notes []timeseries.Note

	for i := 1; i < len(readings); i++ {
		prev, curr := readings[i-1], readings[i]
		delta := curr.Value - prev.Value

		switch {
		case delta >= 0:
			increments = append(increments, timeseries.Increment{Date: curr.Date, Amount: delta})
		case delta >= -params.JitterTolerance:
			// Sensor correction, not a reset.
			increments = append(increments, timeseries.Increment{Date: curr.Date, Amount: 0})
		default:
			notes = append(notes, timeseries.Note{
				Station: station.Name,
				Kind:    timeseries.NoteUnresolvedReset,
				Detail:  resetDetail(prev, curr, params),
			})
		}
	}
	return increments, notes
}

func resetDetail(prev, curr timeseries.RawReading, params Params) string {
	kind := "unresolved drop"
	if curr.Value-prev.Value <= -params.ResetTolerance {
		prevWY := timeseries.WaterYear(prev.Date, params.WaterYearStartMonth, params.WaterYearStartDay)
		currWY := timeseries.WaterYear(curr.Date, params.WaterYearStartMonth, params.WaterYearStartDay)
		kind = "counter reset"
		if currWY != prevWY {
			kind = "water year reset"
		}
	}
	return fmt.Sprintf("%s: %.2f -> %.2f on %s, delta discarded",
		kind, prev.Value, curr.Value, curr.Date.Format("2006-01-02"))
}
