// Package config loads the cellmap CLI configuration.
//
// Values start from Default, are overridden by an optional YAML file and then by
// CELLMAP_* environment variables. Command-line flags are applied last by the caller.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "CELLMAP"

// Config represents the complete CLI configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Read    ReadConfig    `yaml:"read" envconfig:"READ"`
	Metrics MetricsConfig `yaml:"metrics" envconfig:"METRICS"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stderr stdout file"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_if=Output file"`
}

// ReadConfig contains defaults for reading workbooks
type ReadConfig struct {
	Sheet    string `yaml:"sheet" envconfig:"SHEET"`
	// SkipRows is nil when not configured, so an explicit 0 can override a layout.
	SkipRows *int   `yaml:"skip_rows" envconfig:"SKIP_ROWS" validate:"omitempty,gte=0"`
	Jobs     int    `yaml:"jobs" envconfig:"JOBS" validate:"gte=1,lte=64"`
}

// MetricsConfig contains metrics export configuration
type MetricsConfig struct {
	// TextfilePath is where metrics are written in Prometheus text format. Empty disables export.
	TextfilePath string `yaml:"textfile_path" envconfig:"TEXTFILE_PATH"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Read: ReadConfig{
			Jobs: 4,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if path is not
// empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile overlays the YAML file at filePath onto cfg. Keys absent from the file
// keep their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}
