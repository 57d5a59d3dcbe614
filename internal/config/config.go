// Package config handles configuration management for salesdw.
// Configuration is loaded from config files and CLI flags (no environment variables).
// CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for salesdw.
type Config struct {
	// Connection is the PostgreSQL connection string for the warehouse.
	Connection string `mapstructure:"connection"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Data holds the on-disk layout of raw sources and processed artifacts.
	Data DataConfig `mapstructure:"data"`

	// Seed holds configuration for the seed subcommand.
	Seed SeedConfig `mapstructure:"seed"`
}

// DataConfig holds the directories the pipeline reads and writes.
type DataConfig struct {
	// RawDir is where raw source CSVs live.
	RawDir string `mapstructure:"raw_dir"`

	// ProcessedDir is where dimension/fact artifacts are written.
	ProcessedDir string `mapstructure:"processed_dir"`
}

// SeedConfig holds configuration for raw data generation.
type SeedConfig struct {
	// Customers is the number of customers to generate.
	Customers int `mapstructure:"customers"`

	// Products is the number of products to generate.
	Products int `mapstructure:"products"`

	// Orders is the number of orders to generate.
	Orders int `mapstructure:"orders"`

	// RandomSeed makes generation reproducible when non-zero.
	RandomSeed uint64 `mapstructure:"random_seed"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Data: DataConfig{
			RawDir:       filepath.Join("data", "raw"),
			ProcessedDir: filepath.Join("data", "processed"),
		},
		Seed: SeedConfig{
			Customers: 200,
			Products:  50,
			Orders:    2000,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./salesdw.yaml
// 3. ~/.config/salesdw/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("salesdw")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "salesdw"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	if c.Data.RawDir == "" {
		return fmt.Errorf("raw data directory is required")
	}
	if c.Data.ProcessedDir == "" {
		return fmt.Errorf("processed data directory is required")
	}
	return nil
}

// ValidateSeed checks configuration required for the seed command.
// Seeding only writes files, so no connection is needed.
func (c *Config) ValidateSeed() error {
	if c.Data.RawDir == "" {
		return fmt.Errorf("raw data directory is required")
	}
	if c.Seed.Customers < 1 {
		return fmt.Errorf("seed customers must be at least 1")
	}
	if c.Seed.Products < 1 {
		return fmt.Errorf("seed products must be at least 1")
	}
	if c.Seed.Orders < 0 {
		return fmt.Errorf("seed orders must be non-negative")
	}
	return nil
}
