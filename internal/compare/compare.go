// Package compare pairs treatment stations against control stations and
// computes per-pair difference series, aggregate statistics, and monthly
// climatology baselines.
package compare

import (
	"fmt"
	"time"

	"github.com/mtnhydro/opsreport/internal/timeseries"
)

// DiffPoint is one commonly-present day in a pair's difference series.
type DiffPoint struct {
	Date      time.Time `json:"date"`
	Treatment float64   `json:"treatment"`
	Control   float64   `json:"control"`
	Diff      float64   `json:"diff"`
}

// Stats are simple aggregates over a value set.
type Stats struct {
	N    int     `json:"n"`
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Highlight carries the current period's mean values, the markers rendering
// places on top of the climatology envelopes. Valid is false when the
// requested month/year had no commonly-present days.
type Highlight struct {
	TreatmentMean float64 `json:"treatment_mean"`
	ControlMean   float64 `json:"control_mean"`
	DiffMean      float64 `json:"diff_mean"`
	Valid         bool    `json:"valid"`
}

// Record is the comparison between exactly one treatment and one control
// station: the current month's difference series plus climatology baselines
// built from every year of the shared record.
type Record struct {
	Treatment timeseries.Station
	Control   timeseries.Station

	// Diff covers the commonly-present days of the requested month/year.
	// Days absent in either series never appear here.
	Diff      []DiffPoint
	DiffStats Stats

	TreatmentClim Climatology
	ControlClim   Climatology
	DiffClim      Climatology

	Highlight Highlight
}

// PairName is the label used in notes and emitted metadata.
func (r Record) PairName() string {
	return r.Treatment.Name + " vs " + r.Control.Name
}

// Records forms every treatment x control pair, in treatment list order then
// control list order, and computes each pair's comparison. Pairs whose
// series share no dates in the target month (any year) are omitted with a
// note rather than failing the run.
func Records(treatments, controls []timeseries.DailyIncrementSeries, month time.Month, year int) ([]Record, []timeseries.Note) {
	var records []Record
	var notes []timeseries.Note

	for _, t := range treatments {
		for _, c := range controls {
			rec, ok := buildRecord(t, c, month, year)
			if !ok {
				notes = append(notes, timeseries.Note{
					Pair:   t.Station.Name + " vs " + c.Station.Name,
					Kind:   timeseries.NoteNoOverlap,
					Detail: fmt.Sprintf("no commonly-present %s dates in either record", month),
				})
				continue
			}
			records = append(records, rec)
		}
	}
	return records, notes
}

func buildRecord(t, c timeseries.DailyIncrementSeries, month time.Month, year int) (Record, bool) {
	common := commonDates(t, c, month)
	if len(common) == 0 {
		return Record{}, false
	}

	rec := Record{
		Treatment:     t.Station,
		Control:       c.Station,
		TreatmentClim: Monthly(t, month, year),
		ControlClim:   Monthly(c, month, year),
		DiffClim:      diffClimatology(common, month, year),
	}

	var currentDiffs, currentT, currentC []float64
	for _, p := range common {
		if p.Date.Month() != month || p.Date.Year() != year {
			continue
		}
		rec.Diff = append(rec.Diff, p)
		currentDiffs = append(currentDiffs, p.Diff)
		currentT = append(currentT, p.Treatment)
		currentC = append(currentC, p.Control)
	}
	rec.DiffStats = computeStats(currentDiffs)

	if len(currentDiffs) > 0 {
		rec.Highlight = Highlight{
			TreatmentMean: mean(currentT),
			ControlMean:   mean(currentC),
			DiffMean:      mean(currentDiffs),
			Valid:         true,
		}
	}
	return rec, true
}

// commonDates collects the days of the target month, across all years, that
// are present in both series, in date order.
func commonDates(t, c timeseries.DailyIncrementSeries, month time.Month) []DiffPoint {
	control := make(map[time.Time]float64, len(c.Increments))
	for _, inc := range c.Increments {
		if inc.Date.Month() == month {
			control[inc.Date] = inc.Amount
		}
	}

	var points []DiffPoint
	for _, inc := range t.Increments {
		if inc.Date.Month() != month {
			continue
		}
		cv, ok := control[inc.Date]
		if !ok {
			continue
		}
		points = append(points, DiffPoint{
			Date:      inc.Date,
			Treatment: inc.Amount,
			Control:   cv,
			Diff:      inc.Amount - cv,
		})
	}
	return points
}

func computeStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	s := Stats{N: len(values), Min: values[0], Max: values[0]}
	for _, v := range values {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean = mean(values)
	return s
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
