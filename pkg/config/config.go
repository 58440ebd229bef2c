// Package config provides configuration loading and management for
// neonrefl. It handles loading configuration from YAML files and provides
// default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"neonrefl/pkg/download"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Data parameters
	Data struct {
		// Dir is the directory where downloaded tiles are stored
		Dir string `yaml:"dir"`

		// TileURL is the reflectance tile to download
		TileURL string `yaml:"tileURL"`
	} `yaml:"data"`

	// Extraction parameters
	Extract struct {
		// Band is the default zero-based band index to extract
		Band int `yaml:"band"`
	} `yaml:"extract"`

	// Rendering parameters
	Render struct {
		// Colormap selects the palette for rendered bands
		Colormap string `yaml:"colormap"`

		// ClimMin and ClimMax are the color limits applied when UseClim
		// is set
		ClimMin float64 `yaml:"climMin"`
		ClimMax float64 `yaml:"climMax"`
		UseClim bool    `yaml:"useClim"`

		// HistogramBins is the number of bins for histogram plots and
		// equalization
		HistogramBins int `yaml:"histogramBins"`

		// StretchPercent is the default percentile cutoff for the linear
		// contrast stretch
		StretchPercent float64 `yaml:"stretchPercent"`
	} `yaml:"render"`

	// Output parameters
	Output struct {
		// Dir is the directory where rendered images are written
		Dir string `yaml:"dir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default data parameters
	cfg.Data.Dir = "data"
	cfg.Data.TileURL = download.DefaultTileURL

	// Band 56 (index 55) sits in the visible range and renders well
	cfg.Extract.Band = 55

	// Set default rendering parameters
	cfg.Render.Colormap = "gray"
	cfg.Render.HistogramBins = 50
	cfg.Render.StretchPercent = 2.0

	// Set default output parameters
	cfg.Output.Dir = "out"
	cfg.Output.Verbose = false

	return cfg
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
