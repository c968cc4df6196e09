// Package ops loads the operating schedule used to annotate report series.
// The schedule only labels dates; it never alters computed values.
package ops

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mtnhydro/opsreport/internal/timeseries"
)

// Schedule holds per-day operating flags keyed by calendar day.
type Schedule struct {
	days map[time.Time]bool
}

// Empty returns a schedule with no entries; every lookup is false.
func Empty() *Schedule {
	return &Schedule{days: make(map[time.Time]bool)}
}

// Operating reports whether the station complex was operating on the given
// day. Days not in the schedule are not operating.
func (s *Schedule) Operating(day time.Time) bool {
	return s.days[timeseries.Day(day)]
}

// Len returns the number of scheduled days.
func (s *Schedule) Len() int {
	return len(s.days)
}

// dateFormats are tried in order when parsing schedule dates.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
}

// LoadCSV reads an operating schedule from a CSV file. The date column is
// any header containing "date"; the flag column any header containing
// "operat" or "active". When no flag column exists, every listed date counts
// as operating. Rows with unparseable dates are skipped.
func LoadCSV(path string) (*Schedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schedule: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read schedule %s: %w", path, err)
	}
	if len(rows) < 2 {
		return Empty(), nil
	}

	dateCol, opCol := -1, -1
	for i, h := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(h))
		if dateCol < 0 && strings.Contains(name, "date") {
			dateCol = i
		}
		if opCol < 0 && (strings.Contains(name, "operat") || strings.Contains(name, "active")) {
			opCol = i
		}
	}
	if dateCol < 0 {
		return nil, fmt.Errorf("schedule %s: no date column", path)
	}

	s := Empty()
	for _, row := range rows[1:] {
		if dateCol >= len(row) {
			continue
		}
		day, ok := parseDate(row[dateCol])
		if !ok {
			continue
		}
		operating := true
		if opCol >= 0 && opCol < len(row) {
			operating = parseFlag(row[opCol])
		}
		s.days[day] = operating
	}
	return s, nil
}

func parseDate(field string) (time.Time, bool) {
	field = strings.TrimSpace(field)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, field); err == nil {
			return timeseries.Day(t), true
		}
	}
	return time.Time{}, false
}

func parseFlag(field string) bool {
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	}
	return false
}
