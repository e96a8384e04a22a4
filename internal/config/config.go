// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads the survey configuration with the precedence
// ENV > file > defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/exosurvey/internal/sim"
)

// Mission holds the epochs shared by every run.
type Mission struct {
	StartMJD   float64 `yaml:"start_mjd"`
	LifeDays   float64 `yaml:"life_days"`
	EquinoxMJD float64 `yaml:"equinox_mjd"`
}

// Observatory configures the halo orbit model.
type Observatory struct {
	// HaloPath is the halo orbit ephemeris data file.
	HaloPath      string  `yaml:"halo_path"`
	HaloStartDays float64 `yaml:"halo_start_days"`
	SRP           bool    `yaml:"srp"`
	// CacheDir enables the on-disk ephemeris cache when non-empty.
	CacheDir string `yaml:"cache_dir"`
}

// Population configures the planet population model.
type Population struct {
	EccenMin        float64 `yaml:"e_min"`
	EccenMax        float64 `yaml:"e_max"`
	ConstrainOrbits bool    `yaml:"constrain_orbits"`
}

// Zodi configures the zodiacal light model.
type Zodi struct {
	Exozodi    float64 `yaml:"exozodi"`
	ExozodiVar float64 `yaml:"exozodi_var"`
}

// Ensemble configures parallel execution.
type Ensemble struct {
	Runs            int     `yaml:"runs"`
	Workers         int     `yaml:"workers"`
	Seed            int64   `yaml:"seed"`
	GenNewPlanets   bool    `yaml:"gen_new_planets"`
	StragglerFactor float64 `yaml:"straggler_factor"`
	StragglerMin    int     `yaml:"straggler_min"`
}

// Collate configures detection collation.
type Collate struct {
	CSVPath        string `yaml:"csv_path"`
	DBPath         string `yaml:"db_path"`
	SubNeptuneOnly bool   `yaml:"sub_neptune_only"`
	Watch          bool   `yaml:"watch"`
}

// API configures the status endpoint.
type API struct {
	Listen string `yaml:"listen"`
	// RateLimit is the allowed requests per minute per client.
	RateLimit int `yaml:"rate_limit"`
}

// Config is the complete survey configuration.
type Config struct {
	DataDir  string `yaml:"data_dir"`
	LogLevel string `yaml:"log_level"`

	TargetsPath string `yaml:"targets_path"`
	CatalogPath string `yaml:"catalog_path"`

	Mission     Mission     `yaml:"mission"`
	Observatory Observatory `yaml:"observatory"`
	Population  Population  `yaml:"population"`
	Zodi        Zodi        `yaml:"zodi"`
	Mode        sim.Mode    `yaml:"mode"`
	Ensemble    Ensemble    `yaml:"ensemble"`
	Collate     Collate     `yaml:"collate"`
	API         API         `yaml:"api"`
}

// ResultsDir is where ensemble run files are written, under the data dir.
func (c *Config) ResultsDir() string { return filepath.Join(c.DataDir, "results") }

// Loader loads configuration from an optional YAML file and the process
// environment.
type Loader struct {
	configPath string
}

// NewLoader creates a loader; configPath may be empty.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load applies defaults, then the file, then environment overrides, and
// finally validates the command-independent settings. Commands with extra
// requirements call ValidateRun on the result.
func (l *Loader) Load() (Config, error) {
	cfg := defaults()

	if l.configPath != "" {
		if err := loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	mergeEnv(&cfg)

	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		DataDir:  "./data",
		LogLevel: "info",
		Mission: Mission{
			StartMJD:   60634.0,
			LifeDays:   3 * 365.25,
			EquinoxMJD: 60575.25,
		},
		Observatory: Observatory{
			SRP: true,
		},
		Population: Population{
			EccenMin:        0,
			EccenMax:        0.9,
			ConstrainOrbits: true,
		},
		Zodi: Zodi{
			Exozodi:    1.0,
			ExozodiVar: 0,
		},
		Mode: sim.DefaultMode(),
		Ensemble: Ensemble{
			Runs:            100,
			Workers:         4,
			Seed:            1,
			GenNewPlanets:   true,
			StragglerFactor: 3,
			StragglerMin:    5,
		},
		API: API{
			Listen:    ":8686",
			RateLimit: 120,
		},
	}
}

// loadFile strict-decodes YAML over the current config so unset keys keep
// their defaults and unknown keys fail loudly.
func loadFile(path string, cfg *Config) error {
	buf, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Validate collects every configuration problem shared by all commands
// instead of stopping at the first one.
func (c *Config) Validate() error {
	return joinConfig(c.commonErrs())
}

// ValidateRun additionally requires the survey input files. Only the run
// command reads them; collate and serve work from the data dir alone.
func (c *Config) ValidateRun() error {
	errs := c.commonErrs()
	if c.Observatory.HaloPath == "" {
		errs = append(errs, fmt.Errorf("observatory.halo_path must be set"))
	}
	if c.TargetsPath == "" {
		errs = append(errs, fmt.Errorf("targets_path must be set"))
	}
	if c.CatalogPath == "" {
		errs = append(errs, fmt.Errorf("catalog_path must be set"))
	}
	return joinConfig(errs)
}

func (c *Config) commonErrs() []error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.DataDir == "" {
		add("data_dir must be set")
	}
	if c.Mission.LifeDays <= 0 {
		add("mission.life_days must be positive, got %g", c.Mission.LifeDays)
	}
	if c.Mission.StartMJD <= 0 {
		add("mission.start_mjd must be positive, got %g", c.Mission.StartMJD)
	}
	if c.Population.EccenMin < 0 || c.Population.EccenMax >= 1 || c.Population.EccenMin > c.Population.EccenMax {
		add("population eccentricity range [%g, %g] invalid", c.Population.EccenMin, c.Population.EccenMax)
	}
	if c.Zodi.Exozodi <= 0 {
		add("zodi.exozodi must be positive, got %g", c.Zodi.Exozodi)
	}
	if c.Ensemble.Runs <= 0 {
		add("ensemble.runs must be positive, got %d", c.Ensemble.Runs)
	}
	if c.Ensemble.Workers <= 0 {
		add("ensemble.workers must be positive, got %d", c.Ensemble.Workers)
	}
	if c.API.RateLimit <= 0 {
		add("api.rate_limit must be positive, got %d", c.API.RateLimit)
	}
	return errs
}

func joinConfig(errs []error) error {
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
