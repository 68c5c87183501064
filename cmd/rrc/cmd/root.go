/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ssargent/rrc/pkg/config"
	"github.com/ssargent/rrc/pkg/di"
	"github.com/ssargent/rrc/pkg/logging"
)

var container *di.Container

// SetContainer injects the dependency container used by every command
func SetContainer(c *di.Container) {
	container = c
}

type configKey struct{}

// flagBindings maps configuration keys to the global flags overriding them
var flagBindings = map[string]string{
	"codec.corruption_ratio":     "ratio",
	"codec.repetitions":          "repetitions",
	"codec.repetition_threshold": "repetition-threshold",
	"codec.search_multiplier":    "search-multiplier",
	"codec.throughput_budget":    "throughput-budget",
	"codec.workers":              "workers",
	"logging.level":              "log-level",
	"logging.format":             "log-format",
	"metrics.textfile":           "metrics-textfile",
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rrc",
		Short: "rrc - Recursive Redundancy Container codec",
		Long: `rrc protects files against corruption by appending interleaved Reed-Solomon
parity, a positioning table and a repeated anchor. Damaged, truncated or
displaced containers are repaired on decode.

Settings come from the config file, then RRC_* environment variables
(RRC_CODEC_CORRUPTION_RATIO, RRC_LOGGING_LEVEL, ...), then flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if container == nil {
				return fmt.Errorf("dependency container not initialized")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			container.SetLogger(logger)

			// Store in command context
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			_ = container.GetLogger().Sync()

			cfg := configFrom(cmd)
			if cfg == nil || cfg.Metrics.Textfile == "" {
				return nil
			}
			if err := container.GetMetrics().WriteTextfile(cfg.Metrics.Textfile); err != nil {
				return fmt.Errorf("failed to write metrics: %w", err)
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Config file (default ~/.config/rrc/config.yaml when present)")
	flags.Float64P("ratio", "r", 0, "Fraction of symbols per codeword that may be corrupted")
	flags.Int("repetitions", 0, "Anchor copies written at the end of a container")
	flags.Int("repetition-threshold", 0, "Metadata size at which layering stops")
	flags.Int("search-multiplier", 0, "Block search range in multiples of a layer's region")
	flags.Int64("throughput-budget", 0, "Bytes one interleaved matrix may span")
	flags.Int("workers", 0, "Matrices corrected concurrently (0 uses every CPU)")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (console, json)")
	flags.String("metrics-textfile", "", "Write Prometheus metrics to this file after the run")

	rootCmd.AddCommand(
		newEncodeCmd(),
		newProtectCmd(),
		newDecodeCmd(),
		newVerifyCmd(),
		newStripCmd(),
		newPlanCmd(),
		newInitCmd(),
	)
	return rootCmd
}

// loadConfig reads the config file and layers environment variables and
// explicitly set flags over it
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	fs := container.GetFs()

	cfg := config.DefaultConfig()
	configPath, _ := cmd.Flags().GetString("config")
	switch {
	case configPath != "":
		loaded, err := config.LoadConfig(fs, configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case config.ConfigExists(fs, config.GetDefaultConfigPath()):
		loaded, err := config.LoadConfig(fs, config.GetDefaultConfigPath())
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	v := viper.New()
	v.SetEnvPrefix("RRC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, name := range flagBindings {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	if v.IsSet("codec.corruption_ratio") {
		cfg.Codec.CorruptionRatio = v.GetFloat64("codec.corruption_ratio")
	}
	if v.IsSet("codec.repetitions") {
		cfg.Codec.Repetitions = v.GetInt("codec.repetitions")
	}
	if v.IsSet("codec.repetition_threshold") {
		cfg.Codec.RepetitionThreshold = v.GetInt("codec.repetition_threshold")
	}
	if v.IsSet("codec.search_multiplier") {
		cfg.Codec.SearchMultiplier = v.GetInt("codec.search_multiplier")
	}
	if v.IsSet("codec.throughput_budget") {
		cfg.Codec.ThroughputBudget = v.GetInt64("codec.throughput_budget")
	}
	if v.IsSet("codec.workers") {
		cfg.Codec.Workers = v.GetInt("codec.workers")
	}
	if v.IsSet("logging.level") {
		cfg.Logging.Level = v.GetString("logging.level")
	}
	if v.IsSet("logging.format") {
		cfg.Logging.Format = v.GetString("logging.format")
	}
	if v.IsSet("metrics.textfile") {
		cfg.Metrics.Textfile = v.GetString("metrics.textfile")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func configFrom(cmd *cobra.Command) *config.Config {
	if cmd.Context() == nil {
		return nil
	}
	cfg, _ := cmd.Context().Value(configKey{}).(*config.Config)
	return cfg
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		if container != nil {
			container.GetLogger().Debug("command failed", zap.Error(err))
		}
		os.Exit(1)
	}
}
