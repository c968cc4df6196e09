// Command opsreport generates the monthly station comparison report data:
// the operating schedule, the daily precipitation summary, and every
// treatment-vs-control snow depth comparison for the requested month.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/mtnhydro/opsreport/internal/config"
	"github.com/mtnhydro/opsreport/internal/engine"
	"github.com/mtnhydro/opsreport/internal/ingest"
	"github.com/mtnhydro/opsreport/internal/log"
	"github.com/mtnhydro/opsreport/internal/ops"
)

const version = "1.2-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration file")
	month := flag.Int("month", 0, "Report month (1-12)")
	year := flag.Int("year", 0, "Report year (e.g. 2025)")
	outputDir := flag.String("output", "", "Output directory (overrides config)")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("opsreport %s\n", version)
		os.Exit(0)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *month < 1 || *month > 12 {
		log.Errorf("month must be between 1 and 12, got %d", *month)
		os.Exit(1)
	}
	if *year == 0 {
		log.Error("year is required")
		os.Exit(1)
	}

	cfg, err := config.NewConfig(*cfgFile)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	source, closeSource, err := openSource(cfg)
	if err != nil {
		log.Errorf("Failed to open readings source: %v", err)
		os.Exit(1)
	}
	defer closeSource()

	schedule := loadSchedule(cfg)

	e := engine.New(cfg, source, schedule, log.GetSugaredLogger())
	bundle, err := e.Run(context.Background(), time.Month(*month), *year)
	if err != nil {
		log.Errorf("Report run failed: %v", err)
		os.Exit(1)
	}

	if err := bundle.WriteJSON(cfg.Output.Dir); err != nil {
		log.Errorf("Failed to write report artifacts: %v", err)
		os.Exit(1)
	}
	if err := bundle.WriteCache(cfg.Output.Dir); err != nil {
		log.Errorf("Failed to write bundle cache: %v", err)
		os.Exit(1)
	}

	log.Infof("wrote report data for %04d-%02d to %s (%d comparisons, %d notes)",
		*year, *month, cfg.Output.Dir, len(bundle.SnowDepth), len(bundle.Notes))
}

func openSource(cfg config.Config) (ingest.Source, func(), error) {
	switch {
	case cfg.Source.CSVDir != "":
		return ingest.NewCSVSource(cfg.Source.CSVDir, stationFiles(cfg)), func() {}, nil
	case cfg.Source.SQLite != nil:
		store, err := ingest.OpenSQLite(cfg.Source.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case cfg.Source.TimescaleDB != nil:
		src, err := ingest.NewPostgresSource(cfg.Source.TimescaleDB.ConnectionString, cfg.Source.TimescaleDB.Table)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil
	}
	return nil, nil, fmt.Errorf("no readings source configured")
}

// stationFiles collects per-station CSV filename overrides from the config.
func stationFiles(cfg config.Config) map[string]string {
	files := make(map[string]string)
	for _, s := range append(append([]config.StationConfig{}, cfg.Stations.Treatment...), cfg.Stations.Control...) {
		if s.File != "" {
			files[s.Name] = s.File
		}
	}
	return files
}

func loadSchedule(cfg config.Config) *ops.Schedule {
	if cfg.Schedule.CSV == "" {
		log.Warn("no operating schedule configured; operating flags will be false")
		return ops.Empty()
	}
	schedule, err := ops.LoadCSV(cfg.Schedule.CSV)
	if err != nil {
		log.Warnf("unable to load operating schedule: %v", err)
		return ops.Empty()
	}
	return schedule
}
