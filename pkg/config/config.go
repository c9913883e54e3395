// Package config provides configuration loading and management for
// imgpyramid. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Pyramid parameters
	Pyramid struct {
		// MaxLevels caps the number of resolution levels
		MaxLevels int `yaml:"maxLevels"`

		// MinSizeForNext stops level emission once the last emitted
		// level's smaller dimension falls below it
		MinSizeForNext int `yaml:"minSizeForNext"`

		// DownsamplePolicy is "decimate" or "local_mean"
		DownsamplePolicy string `yaml:"downsamplePolicy"`
	} `yaml:"pyramid"`

	// Output parameters
	Output struct {
		// TileEdge is the container's square tile size in pixels
		TileEdge int `yaml:"tileEdge"`

		// Compression is "none", "deflate", or "lzw"
		Compression string `yaml:"compression"`

		// WriteBatchSize bounds channel planes resident while writing
		WriteBatchSize int `yaml:"writeBatchSize"`
	} `yaml:"output"`

	// Processing parameters
	Processing struct {
		// NumWorkers bounds how many channels are downsampled concurrently
		NumWorkers int `yaml:"numWorkers"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"processing"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default pyramid parameters
	cfg.Pyramid.MaxLevels = 5
	cfg.Pyramid.MinSizeForNext = 512
	cfg.Pyramid.DownsamplePolicy = "decimate"

	// Set default output parameters
	cfg.Output.TileEdge = 512
	cfg.Output.Compression = "deflate"
	cfg.Output.WriteBatchSize = 3

	// Set default processing parameters
	cfg.Processing.NumWorkers = 1
	cfg.Processing.Verbose = true

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
