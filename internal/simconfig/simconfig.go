// Package simconfig loads the process-wide constants named in SPEC_FULL.md §6/§8/§9 from
// YAML, grounded on niceyeti-tabular's viper+yaml configuration layer — simplified here to
// a direct yaml.Unmarshal since the driving core has no need for environment-variable
// overlay or live reload.
package simconfig

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/traffline/drivingcore/internal/driving"
)

// Config is the top-level process configuration: the driving core's tick constants plus
// the ambient concerns (RNG seeding, logging, view-stream address) that sit outside it.
type Config struct {
	TickSeconds        float64 `yaml:"tick_seconds"`
	TimeToParkOrDepart float64 `yaml:"time_to_park_or_depart"`
	EpsDist            float64 `yaml:"eps_dist"`
	EpsSpeed           float64 `yaml:"eps_speed"`
	RNGSeed            int64   `yaml:"rng_seed"`
	LogLevel           string  `yaml:"log_level"`
	ViewStreamAddr     string  `yaml:"view_stream_addr"`
}

// Default returns the constants named in SPEC_FULL.md §6/§8/§9, plus sane ambient
// defaults.
func Default() Config {
	d := driving.DefaultConfig()
	return Config{
		TickSeconds:        d.TickSeconds,
		TimeToParkOrDepart: d.TimeToParkOrDepart,
		EpsDist:            d.EpsDist,
		EpsSpeed:           d.EpsSpeed,
		RNGSeed:            1,
		LogLevel:           "info",
		ViewStreamAddr:     "",
	}
}

// Load reads and merges a YAML config file over Default(). A missing path is not an
// error; Default() is returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("simconfig: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("simconfig: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// DrivingConfig projects the tick constants this Config carries into a driving.Config.
func (c Config) DrivingConfig() driving.Config {
	return driving.Config{
		TickSeconds:        c.TickSeconds,
		TimeToParkOrDepart: c.TimeToParkOrDepart,
		EpsDist:            c.EpsDist,
		EpsSpeed:           c.EpsSpeed,
	}
}

// Logger builds a logrus.FieldLogger at the configured level, falling back to Info on an
// unparsable level rather than failing process startup over a config typo.
func (c Config) Logger() logrus.FieldLogger {
	log := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
