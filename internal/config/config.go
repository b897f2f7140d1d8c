// Package config loads converter settings from defaults, an optional YAML
// or TOML file, and command-line flags.
package config

import (
	"fmt"

	"github.com/Faultbox/modelkit/pkg/formats"
)

// Config holds all converter settings.
type Config struct {
	Convert ConvertConfig `yaml:"convert" toml:"convert"`
	Strips  StripConfig   `yaml:"strips" toml:"strips"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// ConvertConfig holds import and export settings.
type ConvertConfig struct {
	Format      string `yaml:"format" toml:"format"`             // format id used when the output extension is ambiguous
	PreferEuler bool   `yaml:"prefer_euler" toml:"prefer_euler"` // compose joint matrices from Euler angles
	Overwrite   bool   `yaml:"overwrite" toml:"overwrite"`
}

// StripConfig controls triangle-strip generation after import.
type StripConfig struct {
	Build bool `yaml:"build" toml:"build"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Convert: ConvertConfig{
			Format: string(formats.GLB2),
		},
		Strips: StripConfig{
			Build: true,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// OutputFormat returns the configured default format.
func (c *Config) OutputFormat() (formats.Format, error) {
	return formats.ParseFormat(c.Convert.Format)
}

// Validate checks values that cannot be checked while decoding.
func (c *Config) Validate() error {
	if _, err := c.OutputFormat(); err != nil {
		return fmt.Errorf("convert.format: %w", err)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	return nil
}
