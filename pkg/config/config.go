// Package config provides configuration loading and management for fmriplot.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"fmriplot/pkg/carpet"
)

// BandConfig describes one tissue band as an inclusive label range.
// The position of a band in the configured list is its display order.
type BandConfig struct {
	// Name is the tissue class display name
	Name string `yaml:"name"`

	// Min and Max bound the segmentation label range, inclusive
	Min int32 `yaml:"min"`
	Max int32 `yaml:"max"`
}

// Config represents the application configuration loaded from YAML
type Config struct {
	// Carpet parameters
	Carpet struct {
		// LongCutoff is the number of timesteps above which carpet
		// columns are decimated for rendering
		LongCutoff int `yaml:"longCutoff"`

		// MapMin and MapMax bound the displayed intensity range for
		// cleaned data
		MapMin float64 `yaml:"mapMin"`
		MapMax float64 `yaml:"mapMax"`

		// DetrendOrder is the polynomial order of the removed trend
		DetrendOrder int `yaml:"detrendOrder"`

		// LowHz and HighHz bound an optional temporal band-pass filter
		// applied during cleaning; both zero disables it
		LowHz  float64 `yaml:"lowHz"`
		HighHz float64 `yaml:"highHz"`
	} `yaml:"carpet"`

	// Bands is the tissue band partition of the segmentation atlas,
	// in display order. Labels outside every band are dropped.
	Bands []BandConfig `yaml:"bands"`

	// Spikes parameters
	Spikes struct {
		// Threshold is the z-score drawn as the spike significance level
		Threshold float64 `yaml:"threshold"`
	} `yaml:"spikes"`

	// Figure parameters
	Figure struct {
		// Width and Height are the figure dimensions in pixels
		Width  int `yaml:"width"`
		Height int `yaml:"height"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"figure"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default carpet parameters
	cfg.Carpet.LongCutoff = carpet.DefaultLongCutoff
	cfg.Carpet.MapMin = -2
	cfg.Carpet.MapMax = 2
	cfg.Carpet.DetrendOrder = 1

	// Default band partition of the reference segmentation atlas
	for _, b := range carpet.DefaultBands() {
		cfg.Bands = append(cfg.Bands, BandConfig{Name: b.Name, Min: b.Lo, Max: b.Hi})
	}

	cfg.Spikes.Threshold = 6.0

	cfg.Figure.Width = 1169
	cfg.Figure.Height = 827
	cfg.Figure.Verbose = false

	return cfg
}

// TissueBands converts the configured band list into the carpet package's
// band type.
func (c *Config) TissueBands() []carpet.Band {
	bands := make([]carpet.Band, len(c.Bands))
	for i, b := range c.Bands {
		bands[i] = carpet.Band{Name: b.Name, Lo: b.Min, Hi: b.Max}
	}
	return bands
}

// Validate checks the configuration for inconsistent values.
func (c *Config) Validate() error {
	if len(c.Bands) == 0 {
		return fmt.Errorf("no tissue bands configured")
	}
	for i, b := range c.Bands {
		if b.Max < b.Min {
			return fmt.Errorf("band %q has max %d below min %d", b.Name, b.Max, b.Min)
		}
		for _, prev := range c.Bands[:i] {
			if b.Min <= prev.Max && prev.Min <= b.Max {
				return fmt.Errorf("bands %q and %q have overlapping label ranges", prev.Name, b.Name)
			}
		}
	}
	if c.Carpet.MapMax <= c.Carpet.MapMin {
		return fmt.Errorf("carpet map range [%g, %g] is empty", c.Carpet.MapMin, c.Carpet.MapMax)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
