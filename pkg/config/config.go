// Package config provides configuration loading and management for
// voxeledit. It handles loading configuration from YAML files and provides
// default values for the editing tools.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Brush parameters for block and line drawing
	Brush struct {
		// Size is the pen size in voxels for block selection
		Size int `yaml:"size"`

		// Bias picks the lower or upper centering for even pen sizes
		// ("low" or "high")
		Bias string `yaml:"bias"`
	} `yaml:"brush"`

	// FloodFill parameters for select-by-value
	FloodFill struct {
		// Precision is the intensity tolerance around the seed value
		Precision float64 `yaml:"precision"`

		// SearchRadius limits the search to an ellipsoid around the seed,
		// in voxels; 0 searches the whole volume
		SearchRadius float64 `yaml:"searchRadius"`

		// Local keeps only voxels connected to the seed
		Local bool `yaml:"local"`
	} `yaml:"floodFill"`

	// Fill parameters
	Fill struct {
		// Value is written into every selected voxel
		Value float64 `yaml:"value"`
	} `yaml:"fill"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// SaveSlices determines whether mask overlay slices are exported
		SaveSlices bool `yaml:"saveSlices"`

		// SlicesDir is the directory overlay slices are written to
		SlicesDir string `yaml:"slicesDir"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default brush parameters
	cfg.Brush.Size = 3
	cfg.Brush.Bias = "low"

	// Set default flood-fill parameters
	cfg.FloodFill.Precision = 0.0
	cfg.FloodFill.SearchRadius = 0.0
	cfg.FloodFill.Local = true

	// Set default fill parameters
	cfg.Fill.Value = 0.0

	// Set default output parameters
	cfg.Output.Verbose = true
	cfg.Output.SaveSlices = false
	cfg.Output.SlicesDir = "mask_slices"

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

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
