// Package config loads simulator settings from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"wacc_simulator/pkg/core/logger"
	"wacc_simulator/pkg/core/wacc"
)

// DefaultPath is read when no path is given.
const DefaultPath = "config/simulator.yaml"

type Config struct {
	Server     ServerConfig         `yaml:"server" json:"server"`
	Data       DataConfig           `yaml:"data" json:"data"`
	Simulation SimulationDefaults   `yaml:"simulation" json:"simulation"`
	Log        logger.Config        `yaml:"log" json:"log"`
	Guidance   []wacc.GuidanceEntry `yaml:"guidance" json:"guidance"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr" default:":8080"`
}

type DataConfig struct {
	// Source is xlsx, csv, document or postgres; empty infers from Path.
	Source      string        `yaml:"source" json:"source" validate:"omitempty,oneof=xlsx csv document postgres"`
	Path        string        `yaml:"path" json:"path" default:"data/inputs.xlsx"`
	DatabaseURL string        `yaml:"database_url" json:"-"`
	CacheTTL    time.Duration `yaml:"cache_ttl" json:"cache_ttl" default:"5m"`
}

type SimulationDefaults struct {
	Percentile   int     `yaml:"percentile" json:"percentile" default:"69" validate:"min=0,max=100"`
	Samples      int     `yaml:"samples" json:"samples" default:"30000" validate:"min=1,max=10000000"`
	Seed         *uint64 `yaml:"seed" json:"seed,omitempty"`
	Workers      int     `yaml:"workers" json:"workers" validate:"min=0"`
	WeightPolicy string  `yaml:"weight_policy" json:"weight_policy" default:"passthrough" validate:"oneof=passthrough normalize reject"`
	DensityBins  int     `yaml:"density_bins" json:"density_bins" default:"50"`
}

var validate = validator.New()

// Option overrides loaded settings, e.g. from command-line flags.
type Option func(*Config)

// WithDataSource sets the input kind when kind is not empty.
func WithDataSource(kind string) Option {
	return func(c *Config) {
		if kind != "" {
			c.Data.Source = kind
		}
	}
}

// WithDataPath sets the input path when path is not empty.
func WithDataPath(path string) Option {
	return func(c *Config) {
		if path != "" {
			c.Data.Path = path
		}
	}
}

// WithLogLevel sets the log level when level is not empty.
func WithLogLevel(level string) Option {
	return func(c *Config) {
		if level != "" {
			c.Log.Level = level
		}
	}
}

// Load reads path (DefaultPath when empty), applies .env, defaults,
// environment overrides and opts, then validates. A missing file is not an error.
func Load(path string, opts ...Option) (*Config, error) {
	// 1. .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = DefaultPath
	}

	// 2. YAML file
	var c Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	// 3. Defaults, then environment
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(&c)
	}
	if len(c.Guidance) == 0 {
		c.Guidance = append([]wacc.GuidanceEntry(nil), wacc.DefaultGuidance...)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("WACC_DATA_SOURCE"); v != "" {
		c.Data.Source = v
	}
	if v := os.Getenv("WACC_DATA_PATH"); v != "" {
		c.Data.Path = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Data.DatabaseURL = v
	}
	if v := os.Getenv("WACC_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("WACC_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("WACC_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("WACC_SEED: %w", err)
		}
		c.Simulation.Seed = &seed
	}
	return nil
}

// Validate checks struct tags and the guidance table.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Data.Source == "postgres" && c.Data.DatabaseURL == "" {
		return fmt.Errorf("data.database_url is required for the postgres source")
	}
	for i, g := range c.Guidance {
		if g.Context == "" {
			return fmt.Errorf("guidance[%d]: context is empty", i)
		}
		if g.MinPercentile < 0 || g.MaxPercentile > 100 || g.MinPercentile > g.MaxPercentile {
			return fmt.Errorf("guidance[%d]: range %d-%d is not within 0-100", i, g.MinPercentile, g.MaxPercentile)
		}
	}
	return nil
}

// RunConfig turns the defaults into an engine configuration for one sector.
func (s SimulationDefaults) RunConfig(sector string) (wacc.SimulationConfig, error) {
	policy, err := wacc.ParseWeightPolicy(s.WeightPolicy)
	if err != nil {
		return wacc.SimulationConfig{}, err
	}
	cfg := wacc.SimulationConfig{
		SectorID:     sector,
		Percentile:   s.Percentile,
		SampleCount:  s.Samples,
		Workers:      s.Workers,
		WeightPolicy: policy,
		DensityBins:  s.DensityBins,
	}
	if s.Seed != nil {
		cfg.Source = wacc.SeededSource{Seed: *s.Seed}
	}
	return cfg, nil
}
