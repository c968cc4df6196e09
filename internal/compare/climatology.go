package compare

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/mtnhydro/opsreport/internal/timeseries"
)

// Summary describes a distribution of daily values for one calendar period.
type Summary struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// Instance is one year's occurrence of the target calendar month. Current is
// true on at most one instance per climatology: the requested report year.
type Instance struct {
	Year    int       `json:"year"`
	Values  []float64 `json:"values"`
	Summary Summary   `json:"summary"`
	Current bool      `json:"current"`
}

// Climatology is the historical distribution of a station's values for one
// calendar month across every year its record covers. The envelope pools all
// instances and is the reference band the current period is judged against.
type Climatology struct {
	Month     time.Month `json:"month"`
	Instances []Instance `json:"instances"`
	Envelope  Summary    `json:"envelope"`
}

// Monthly builds the climatology of a series for the target month. The
// aggregation accepts however many years the record holds; currentYear only
// determines which instance carries the current flag.
func Monthly(s timeseries.DailyIncrementSeries, month time.Month, currentYear int) Climatology {
	byYear := make(map[int][]float64)
	for _, inc := range s.Increments {
		if inc.Date.Month() == month {
			byYear[inc.Date.Year()] = append(byYear[inc.Date.Year()], inc.Amount)
		}
	}
	return fromYearGroups(byYear, month, currentYear)
}

// diffClimatology groups a pair's commonly-present difference values by year.
func diffClimatology(points []DiffPoint, month time.Month, currentYear int) Climatology {
	byYear := make(map[int][]float64)
	for _, p := range points {
		byYear[p.Date.Year()] = append(byYear[p.Date.Year()], p.Diff)
	}
	return fromYearGroups(byYear, month, currentYear)
}

func fromYearGroups(byYear map[int][]float64, month time.Month, currentYear int) Climatology {
	clim := Climatology{Month: month}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	var pooled []float64
	for _, y := range years {
		values := byYear[y]
		clim.Instances = append(clim.Instances, Instance{
			Year:    y,
			Values:  values,
			Summary: Summarize(values),
			Current: y == currentYear,
		})
		pooled = append(pooled, values...)
	}
	clim.Envelope = Summarize(pooled)
	return clim
}

// Summarize computes distribution statistics for a value set. The input is
// not modified.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s := Summary{
		N:      len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
	}
	if len(sorted) > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	return s
}
