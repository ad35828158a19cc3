// Package config loads digitizer settings from a YAML file with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the tunables shared by the CLI and the session.
type Config struct {
	InteriorCount    int     `yaml:"interior_count"`    // interior arc points per new curve
	PixelTolerance   float64 `yaml:"pixel_tolerance"`   // page-space match radius for migration
	OverlapTolerance float64 `yaml:"overlap_tolerance"` // audit overlap distance
	MergeDecimals    int     `yaml:"merge_decimals"`    // rounding for duplicate point merge
	TraceMaxDepth    int     `yaml:"trace_max_depth"`
	Elevation        float64 `yaml:"elevation"` // current elevation for new geometry
	LogLevel         string  `yaml:"log_level"`
	Export           Export  `yaml:"export"`
}

// Export configures the SQL sink.
type Export struct {
	Driver string `yaml:"driver"` // "sqlite" or "pgx"
	DSN    string `yaml:"dsn"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		InteriorCount:    4,
		PixelTolerance:   2.0,
		OverlapTolerance: 0.001,
		MergeDecimals:    6,
		TraceMaxDepth:    1000,
		Elevation:        0,
		LogLevel:         "info",
		Export:           Export{Driver: "sqlite", DSN: "digitizer.db"},
	}
}

// Load reads path over the defaults and applies DIGITIZER_* environment overrides.
// An empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values no operation can work with.
func (c Config) Validate() error {
	switch {
	case c.InteriorCount < 0:
		return fmt.Errorf("interior_count must not be negative, got %d", c.InteriorCount)
	case c.PixelTolerance < 0:
		return fmt.Errorf("pixel_tolerance must not be negative, got %g", c.PixelTolerance)
	case c.OverlapTolerance < 0:
		return fmt.Errorf("overlap_tolerance must not be negative, got %g", c.OverlapTolerance)
	case c.MergeDecimals < 0 || c.MergeDecimals > 12:
		return fmt.Errorf("merge_decimals must be within 0..12, got %d", c.MergeDecimals)
	case c.TraceMaxDepth <= 0:
		return fmt.Errorf("trace_max_depth must be positive, got %d", c.TraceMaxDepth)
	}
	return nil
}

func applyEnv(c *Config) {
	c.InteriorCount = getEnvAsInt("DIGITIZER_INTERIOR_COUNT", c.InteriorCount)
	c.PixelTolerance = getEnvAsFloat("DIGITIZER_PIXEL_TOLERANCE", c.PixelTolerance)
	c.OverlapTolerance = getEnvAsFloat("DIGITIZER_OVERLAP_TOLERANCE", c.OverlapTolerance)
	c.MergeDecimals = getEnvAsInt("DIGITIZER_MERGE_DECIMALS", c.MergeDecimals)
	c.TraceMaxDepth = getEnvAsInt("DIGITIZER_TRACE_MAX_DEPTH", c.TraceMaxDepth)
	c.Elevation = getEnvAsFloat("DIGITIZER_ELEVATION", c.Elevation)
	c.LogLevel = getEnv("DIGITIZER_LOG_LEVEL", c.LogLevel)
	c.Export.Driver = getEnv("DIGITIZER_EXPORT_DRIVER", c.Export.Driver)
	c.Export.DSN = getEnv("DIGITIZER_EXPORT_DSN", c.Export.DSN)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
