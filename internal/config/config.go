package config

import (
	"os"
	"slices"
	"time"

	"github.com/pkg/errors"
	"github.com/san-kum/gpulife/internal/compute"
	"gopkg.in/yaml.v3"
)

const (
	DefaultWidth   = 1024
	DefaultHeight  = 1024
	DefaultDensity = 0.5
)

// Frontends lists the surfaces a run can present on.
var Frontends = []string{"window", "terminal", "headless"}

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Width         int           `yaml:"width"`
	Height        int           `yaml:"height"`
	Density       float64       `yaml:"density"`
	Seed          int64         `yaml:"seed"`
	Backend       string        `yaml:"backend"`
	Frontend      string        `yaml:"frontend"`
	LogLevel      string        `yaml:"log_level"`
	StatsInterval time.Duration `yaml:"stats_interval"`
	Workers       int           `yaml:"workers"`

	// Frames stops a run after this many presented frames; zero runs
	// until the surface is closed.
	Frames int `yaml:"frames"`
}

func DefaultConfig() *Config {
	return &Config{
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		Density:       DefaultDensity,
		Seed:          1,
		Backend:       "auto",
		Frontend:      "window",
		LogLevel:      "info",
		StatsInterval: time.Second,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot start with.
func (c *Config) Validate() error {
	if err := compute.CheckSize(c.Width, c.Height); err != nil {
		return errors.Wrapf(ErrInvalid, "grid size: %v", err)
	}
	if !(c.Density >= 0 && c.Density <= 1) {
		return errors.Wrapf(ErrInvalid, "density %v outside [0,1]", c.Density)
	}
	if !slices.Contains(compute.Names(), c.Backend) {
		return errors.Wrapf(ErrInvalid, "unknown backend %q", c.Backend)
	}
	if !slices.Contains(Frontends, c.Frontend) {
		return errors.Wrapf(ErrInvalid, "unknown frontend %q", c.Frontend)
	}
	if c.Workers < 0 {
		return errors.Wrapf(ErrInvalid, "workers %d", c.Workers)
	}
	if c.Frames < 0 {
		return errors.Wrapf(ErrInvalid, "frames %d", c.Frames)
	}
	return nil
}
