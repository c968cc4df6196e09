// Package config loads the report engine configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/mtnhydro/opsreport/internal/timeseries"
)

// Config is the top-level configuration for a reporting run.
type Config struct {
	Stations  StationsConfig  `yaml:"stations"`
	Normalize NormalizeConfig `yaml:"normalize,omitempty"`
	WaterYear WaterYearConfig `yaml:"water-year,omitempty"`
	Source    SourceConfig    `yaml:"source"`
	Schedule  ScheduleConfig  `yaml:"schedule,omitempty"`
	Output    OutputConfig    `yaml:"output,omitempty"`
}

// StationConfig describes one station entry. Cumulative accepts "auto",
// "cumulative", or "incremental"; empty means auto.
type StationConfig struct {
	Name       string `yaml:"name"`
	File       string `yaml:"file,omitempty"`
	Cumulative string `yaml:"cumulative,omitempty"`
}

// StationsConfig lists the two comparison groups. Order within each list is
// significant: it fixes presentation and pairing order.
type StationsConfig struct {
	Treatment []StationConfig `yaml:"treatment"`
	Control   []StationConfig `yaml:"control"`
}

// NormalizeConfig holds the counter-normalization tolerances. Values are in
// the same unit as the raw readings (inches for SNOTEL precipitation).
type NormalizeConfig struct {
	ResetTolerance     float64 `yaml:"reset-tolerance,omitempty"`
	JitterTolerance    float64 `yaml:"jitter-tolerance,omitempty"`
	CumulativeFraction float64 `yaml:"cumulative-fraction,omitempty"`
}

// WaterYearConfig sets the annual accounting boundary for cumulative
// counters. Defaults to October 1.
type WaterYearConfig struct {
	StartMonth int `yaml:"start-month,omitempty"`
	StartDay   int `yaml:"start-day,omitempty"`
}

// SourceConfig selects where raw station readings come from. Exactly one of
// the sources should be set; CSVDir wins if several are present.
type SourceConfig struct {
	CSVDir      string             `yaml:"csv-dir,omitempty"`
	SQLite      *SQLiteConfig      `yaml:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBConfig `yaml:"timescaledb,omitempty"`
}

// SQLiteConfig points at a local readings database built by csv-import.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// TimescaleDBConfig points at a readings table in TimescaleDB/Postgres.
type TimescaleDBConfig struct {
	ConnectionString string `yaml:"connection-string"`
	Table            string `yaml:"table,omitempty"`
}

// ScheduleConfig locates the operating schedule CSV.
type ScheduleConfig struct {
	CSV string `yaml:"csv,omitempty"`
}

// OutputConfig locates the report bundle output directory.
type OutputConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// Defaults, documented here because they are policy choices: the reset
// tolerance is the raw drop (inches) beyond which a decrease is treated as a
// counter reset; smaller negative deltas are sensor jitter and clamp to zero.
const (
	DefaultResetTolerance     = 0.25
	DefaultJitterTolerance    = 0.05
	DefaultCumulativeFraction = 0.90
)

// NewConfig creates a new config object from the given filename.
func NewConfig(filename string) (Config, error) {
	cfgFile, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, err
	}
	c := Config{}
	err = yaml.Unmarshal(cfgFile, &c)
	if err != nil {
		return Config{}, err
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Normalize.ResetTolerance == 0 {
		c.Normalize.ResetTolerance = DefaultResetTolerance
	}
	if c.Normalize.JitterTolerance == 0 {
		c.Normalize.JitterTolerance = DefaultJitterTolerance
	}
	if c.Normalize.CumulativeFraction == 0 {
		c.Normalize.CumulativeFraction = DefaultCumulativeFraction
	}
	if c.WaterYear.StartMonth == 0 {
		c.WaterYear.StartMonth = int(time.October)
	}
	if c.WaterYear.StartDay == 0 {
		c.WaterYear.StartDay = 1
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "output"
	}
	for i := range c.Stations.Treatment {
		if c.Stations.Treatment[i].Cumulative == "" {
			c.Stations.Treatment[i].Cumulative = string(timeseries.HintAuto)
		}
	}
	for i := range c.Stations.Control {
		if c.Stations.Control[i].Cumulative == "" {
			c.Stations.Control[i].Cumulative = string(timeseries.HintAuto)
		}
	}
}

func (c *Config) validate() error {
	if len(c.Stations.Treatment) == 0 {
		return fmt.Errorf("config: no treatment stations defined")
	}
	if len(c.Stations.Control) == 0 {
		return fmt.Errorf("config: no control stations defined")
	}
	for _, s := range append(append([]StationConfig{}, c.Stations.Treatment...), c.Stations.Control...) {
		switch timeseries.CumulativeHint(s.Cumulative) {
		case timeseries.HintAuto, timeseries.HintCumulative, timeseries.HintIncremental:
		default:
			return fmt.Errorf("config: station %q: invalid cumulative hint %q", s.Name, s.Cumulative)
		}
	}
	if c.WaterYear.StartMonth < 1 || c.WaterYear.StartMonth > 12 {
		return fmt.Errorf("config: water-year start-month %d out of range", c.WaterYear.StartMonth)
	}
	return nil
}

// TreatmentStations returns the treatment group in configuration order.
func (c *Config) TreatmentStations() []timeseries.Station {
	return toStations(c.Stations.Treatment, timeseries.RoleTreatment)
}

// ControlStations returns the control group in configuration order.
func (c *Config) ControlStations() []timeseries.Station {
	return toStations(c.Stations.Control, timeseries.RoleControl)
}

func toStations(scs []StationConfig, role timeseries.Role) []timeseries.Station {
	stations := make([]timeseries.Station, len(scs))
	for i, sc := range scs {
		stations[i] = timeseries.Station{
			Name: sc.Name,
			Role: role,
			Hint: timeseries.CumulativeHint(sc.Cumulative),
		}
	}
	return stations
}
