// Command csv-import loads station CSV exports into the local SQLite
// readings store so report runs don't depend on the raw export files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mtnhydro/opsreport/internal/config"
	"github.com/mtnhydro/opsreport/internal/ingest"
	"github.com/mtnhydro/opsreport/internal/log"
	"github.com/mtnhydro/opsreport/internal/timeseries"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration file")
	csvDir := flag.String("csv-dir", "", "Directory of station CSV files (overrides config)")
	dbPath := flag.String("db", "", "SQLite readings database path (overrides config)")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.NewConfig(*cfgFile)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	dir := cfg.Source.CSVDir
	if *csvDir != "" {
		dir = *csvDir
	}
	if dir == "" {
		log.Error("no CSV directory configured; use -csv-dir or source.csv-dir")
		os.Exit(1)
	}

	path := ""
	if cfg.Source.SQLite != nil {
		path = cfg.Source.SQLite.Path
	}
	if *dbPath != "" {
		path = *dbPath
	}
	if path == "" {
		log.Error("no SQLite database configured; use -db or source.sqlite.path")
		os.Exit(1)
	}

	store, err := ingest.OpenSQLite(path)
	if err != nil {
		log.Errorf("Failed to open readings store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	files := make(map[string]string)
	for _, sc := range append(append([]config.StationConfig{}, cfg.Stations.Treatment...), cfg.Stations.Control...) {
		if sc.File != "" {
			files[sc.Name] = sc.File
		}
	}

	src := ingest.NewCSVSource(dir, files)
	ctx := context.Background()

	stations := append(cfg.TreatmentStations(), cfg.ControlStations()...)
	imported := 0
	for _, station := range stations {
		for _, measure := range []ingest.Measure{ingest.MeasurePrecip, ingest.MeasureSnowDepth} {
			series, err := src.Series(ctx, station, measure)
			if err != nil {
				log.Warnf("skipping %s %s: %v", station.Name, measure, err)
				continue
			}
			if len(series.Readings) == 0 {
				log.Debugf("no %s readings for %s", measure, station.Name)
				continue
			}
			if err := store.ImportSeries(ctx, series, measure); err != nil {
				log.Errorf("import %s %s: %v", station.Name, measure, err)
				os.Exit(1)
			}
			first := timeseries.Day(series.Readings[0].Date)
			last := timeseries.Day(series.Readings[len(series.Readings)-1].Date)
			log.Infof("imported %d %s readings for %s (%s to %s)",
				len(series.Readings), measure, station.Name,
				first.Format("2006-01-02"), last.Format("2006-01-02"))
			imported++
		}
	}

	log.Infof("import complete: %d station/measure series into %s", imported, path)
}
