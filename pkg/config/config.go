/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/rrc/pkg/ecc"
	"github.com/ssargent/rrc/pkg/rrc"
)

// Config represents the rrc configuration
type Config struct {
	Codec   Codec   `yaml:"codec"`
	Logging Logging `yaml:"logging"`
	Metrics Metrics `yaml:"metrics"`
}

// Codec contains the encoder and decoder parameters
type Codec struct {
	CorruptionRatio     float64 `yaml:"corruption_ratio"`
	Repetitions         int     `yaml:"repetitions"`
	RepetitionThreshold int     `yaml:"repetition_threshold"`
	SearchMultiplier    int     `yaml:"search_multiplier"`
	ThroughputBudget    int64   `yaml:"throughput_budget"`
	Workers             int     `yaml:"workers"` // 0 uses every CPU
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Metrics contains metrics export configuration
type Metrics struct {
	Textfile string `yaml:"textfile"` // Prometheus textfile written after each run; empty disables
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Codec: Codec{
			CorruptionRatio:     rrc.DefaultCorruptionRatio,
			Repetitions:         rrc.DefaultRepetitions,
			RepetitionThreshold: rrc.DefaultRepetitionThreshold,
			SearchMultiplier:    rrc.DefaultSearchMultiplier,
			ThroughputBudget:    ecc.DefaultThroughputBudget,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks that the configuration can drive an encoder
func (c *Config) Validate() error {
	if _, err := ecc.SelectShape(c.Codec.CorruptionRatio); err != nil {
		return fmt.Errorf("codec.corruption_ratio: %w", err)
	}
	if c.Codec.Repetitions < 1 {
		return fmt.Errorf("codec.repetitions must be positive, got %d", c.Codec.Repetitions)
	}
	if c.Codec.RepetitionThreshold < 1 || c.Codec.RepetitionThreshold > 255 {
		return fmt.Errorf("codec.repetition_threshold must be within 1..255, got %d", c.Codec.RepetitionThreshold)
	}
	if c.Codec.SearchMultiplier < 1 {
		return fmt.Errorf("codec.search_multiplier must be positive, got %d", c.Codec.SearchMultiplier)
	}
	if c.Codec.ThroughputBudget < 1 {
		return fmt.Errorf("codec.throughput_budget must be positive, got %d", c.Codec.ThroughputBudget)
	}
	if c.Codec.Workers < 0 {
		return fmt.Errorf("codec.workers must not be negative, got %d", c.Codec.Workers)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// Options returns codec options for the configured parameters
func (c Codec) Options() rrc.Options {
	opts := rrc.DefaultOptions()
	opts.CorruptionRatio = c.CorruptionRatio
	opts.Repetitions = c.Repetitions
	opts.RepetitionThreshold = c.RepetitionThreshold
	opts.SearchMultiplier = c.SearchMultiplier
	opts.ThroughputBudget = c.ThroughputBudget
	if c.Workers > 0 {
		opts.Workers = c.Workers
	}
	return opts
}

// LoadConfig loads configuration from the specified path. Fields missing from
// the file keep their defaults.
func LoadConfig(fs afero.Fs, configPath string) (*Config, error) {
	if !ConfigExists(fs, configPath) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	data, err := afero.ReadFile(fs, filepath.Clean(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(fs afero.Fs, config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := fs.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(fs, configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// BootstrapConfig writes a default configuration to configPath
func BootstrapConfig(fs afero.Fs, configPath string) (*Config, error) {
	config := DefaultConfig()
	if err := SaveConfig(fs, config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}
	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./rrc.yaml"
	}

	// For Linux/macOS, use ~/.config/rrc/config.yaml
	configDir := filepath.Join(homeDir, ".config", "rrc")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(fs afero.Fs, configPath string) bool {
	exists, err := afero.Exists(fs, configPath)
	return err == nil && exists
}
