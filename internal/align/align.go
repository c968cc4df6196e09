// Package align projects per-station daily increment series onto a shared
// reporting calendar. Days where a station has no data stay explicitly
// absent; they are never filled with zeros.
package align

import (
	"time"

	"github.com/mtnhydro/opsreport/internal/timeseries"
)

// Window is an inclusive range of calendar days.
type Window struct {
	Start time.Time
	End   time.Time
}

// MonthWindow returns the window covering every day of the given month.
func MonthWindow(year int, month time.Month) Window {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(0, 1, -1)}
}

// Calendar is a strictly increasing sequence of days with no duplicates,
// shared by every station in a run.
type Calendar []time.Time

// Calendar expands the window into its ordered days. An inverted window
// yields ErrEmptyWindow.
func (w Window) Calendar() (Calendar, error) {
	start := timeseries.Day(w.Start)
	end := timeseries.Day(w.End)
	if end.Before(start) {
		return nil, timeseries.ErrEmptyWindow
	}

	var cal Calendar
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		cal = append(cal, d)
	}
	return cal, nil
}

// Index returns the calendar position of a day, or -1 if outside the window.
func (c Calendar) Index(day time.Time) int {
	day = timeseries.Day(day)
	if len(c) == 0 || day.Before(c[0]) || day.After(c[len(c)-1]) {
		return -1
	}
	return int(day.Sub(c[0]).Hours() / 24)
}

// Projection is one station's values indexed by the shared calendar.
type Projection struct {
	Station timeseries.Station
	Cells   []timeseries.Datum
}

// Aligned pairs the calendar with every station's projection. Projection
// order matches the order series were supplied in, which the engine fixes to
// configuration order.
type Aligned struct {
	Calendar    Calendar
	Projections []Projection
}

// Project aligns the given series onto the calendar. Increments outside the
// window are dropped; calendar days without an increment stay absent.
func Project(cal Calendar, series []timeseries.DailyIncrementSeries) Aligned {
	aligned := Aligned{
		Calendar:    cal,
		Projections: make([]Projection, len(series)),
	}

	for i, s := range series {
		cells := make([]timeseries.Datum, len(cal))
		for _, inc := range s.Increments {
			if idx := cal.Index(inc.Date); idx >= 0 {
				cells[idx] = timeseries.Datum{Value: inc.Amount, Present: true}
			}
		}
		aligned.Projections[i] = Projection{Station: s.Station, Cells: cells}
	}
	return aligned
}

// ByStation returns the projection for the named station, if present.
func (a Aligned) ByStation(name string) (Projection, bool) {
	for _, p := range a.Projections {
		if p.Station.Name == name {
			return p, true
		}
	}
	return Projection{}, false
}
