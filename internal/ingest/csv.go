package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mtnhydro/opsreport/internal/timeseries"
)

// CSVSource reads per-station CSV files named "<station>.csv" from a
// directory. Column names vary between station networks, so the date and
// measure columns are located by header substring.
type CSVSource struct {
	dir   string
	files map[string]string // station name -> filename override
}

// NewCSVSource creates a source rooted at dir. files maps station names to
// filenames for stations whose file does not follow the "<name>.csv"
// convention; it may be nil.
func NewCSVSource(dir string, files map[string]string) *CSVSource {
	return &CSVSource{dir: dir, files: files}
}

// Series loads the station's readings for the given measure. Rows with
// unparseable dates or values are skipped. A missing measure column yields
// an empty series so a precipitation-only station can still join snow depth
// runs by absence.
func (s *CSVSource) Series(ctx context.Context, station timeseries.Station, measure Measure) (timeseries.StationSeries, error) {
	series := timeseries.StationSeries{Station: station}

	name := s.files[station.Name]
	if name == "" {
		name = station.Name + ".csv"
	}
	path := filepath.Join(s.dir, name)

	f, err := os.Open(path)
	if err != nil {
		return series, fmt.Errorf("station %s: %w", station.Name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return series, fmt.Errorf("station %s: read %s: %w", station.Name, path, err)
	}
	if len(rows) < 2 {
		return series, nil
	}

	dateCol := findColumn(rows[0], "date", "time", "timestamp")
	if dateCol < 0 {
		return series, fmt.Errorf("station %s: no date column in %s", station.Name, path)
	}
	valueCol := measureColumn(rows[0], measure)
	if valueCol < 0 {
		return series, nil
	}

	for _, row := range rows[1:] {
		if dateCol >= len(row) || valueCol >= len(row) {
			continue
		}
		date, ok := parseDate(row[dateCol])
		if !ok {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(row[valueCol]), 64)
		if err != nil {
			continue
		}
		series.Readings = append(series.Readings, timeseries.RawReading{Date: date, Value: value})
	}
	return series, nil
}

// measureColumn locates the header carrying the requested measure.
func measureColumn(header []string, measure Measure) int {
	switch measure {
	case MeasurePrecip:
		return findColumn(header, "precip", "prcp")
	case MeasureSnowDepth:
		for i, h := range header {
			name := strings.ToLower(h)
			if strings.Contains(name, "snow") && strings.Contains(name, "depth") {
				return i
			}
		}
	}
	return -1
}

func findColumn(header []string, terms ...string) int {
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		for _, term := range terms {
			if strings.Contains(name, term) {
				return i
			}
		}
	}
	return -1
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"Jan 2, 2006",
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
