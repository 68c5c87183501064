package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/rrc/pkg/ecc"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 0.05, config.Codec.CorruptionRatio)
	assert.Equal(t, 32, config.Codec.Repetitions)
	assert.Equal(t, 64, config.Codec.RepetitionThreshold)
	assert.Equal(t, 3, config.Codec.SearchMultiplier)
	assert.Equal(t, int64(ecc.DefaultThroughputBudget), config.Codec.ThroughputBudget)
	assert.Equal(t, 0, config.Codec.Workers)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "console", config.Logging.Format)
	assert.Empty(t, config.Metrics.Textfile)
	assert.NoError(t, config.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		errMsg string
	}{
		{"infeasible ratio", func(c *Config) { c.Codec.CorruptionRatio = 0.6 }, "codec.corruption_ratio"},
		{"zero ratio", func(c *Config) { c.Codec.CorruptionRatio = 0 }, "codec.corruption_ratio"},
		{"no repetitions", func(c *Config) { c.Codec.Repetitions = 0 }, "codec.repetitions"},
		{"threshold too large", func(c *Config) { c.Codec.RepetitionThreshold = 300 }, "codec.repetition_threshold"},
		{"no search", func(c *Config) { c.Codec.SearchMultiplier = 0 }, "codec.search_multiplier"},
		{"no budget", func(c *Config) { c.Codec.ThroughputBudget = 0 }, "codec.throughput_budget"},
		{"negative workers", func(c *Config) { c.Codec.Workers = -1 }, "codec.workers"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)

			err := config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCodec_Options(t *testing.T) {
	codec := DefaultConfig().Codec
	codec.CorruptionRatio = 0.01
	codec.Workers = 3

	opts := codec.Options()
	assert.Equal(t, 0.01, opts.CorruptionRatio)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, 32, opts.Repetitions)

	codec.Workers = 0
	assert.Positive(t, codec.Options().Workers)
}

func TestLoadConfig(t *testing.T) {
	t.Run("load existing config", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		configPath := "/etc/rrc/config.yaml"
		expectedConfig := &Config{
			Codec: Codec{
				CorruptionRatio:     0.1,
				Repetitions:         16,
				RepetitionThreshold: 48,
				SearchMultiplier:    4,
				ThroughputBudget:    4096,
				Workers:             2,
			},
			Logging: Logging{
				Level:  "debug",
				Format: "json",
			},
			Metrics: Metrics{
				Textfile: "/var/lib/node_exporter/rrc.prom",
			},
		}

		err := SaveConfig(fs, expectedConfig, configPath)
		require.NoError(t, err)

		loadedConfig, err := LoadConfig(fs, configPath)
		require.NoError(t, err)
		assert.Equal(t, expectedConfig, loadedConfig)
	})

	t.Run("partial config keeps defaults", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "config.yaml", []byte("codec:\n  corruption_ratio: 0.01\n"), 0600))

		loadedConfig, err := LoadConfig(fs, "config.yaml")
		require.NoError(t, err)
		assert.Equal(t, 0.01, loadedConfig.Codec.CorruptionRatio)
		assert.Equal(t, 32, loadedConfig.Codec.Repetitions)
		assert.Equal(t, "info", loadedConfig.Logging.Level)
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := LoadConfig(afero.NewMemMapFs(), "/non/existent/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "config file does not exist")
	})

	t.Run("load invalid yaml", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		err := afero.WriteFile(fs, "invalid.yaml", []byte("invalid: yaml: content: ["), 0644)
		require.NoError(t, err)

		_, err = LoadConfig(fs, "invalid.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestSaveConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	configPath := "/home/user/.config/rrc/config.yaml"
	config := DefaultConfig()

	err := SaveConfig(fs, config, configPath)
	require.NoError(t, err)

	info, err := fs.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, "-rw-------", info.Mode().Perm().String())

	loadedConfig, err := LoadConfig(fs, configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestSaveConfigErrorHandling(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	err := SaveConfig(fs, DefaultConfig(), "/invalid/path/config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create config directory")
}

func TestBootstrapConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	configPath := "/tmp/rrc/config.yaml"

	config, err := BootstrapConfig(fs, configPath)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
	assert.True(t, ConfigExists(fs, configPath))

	loadedConfig, err := LoadConfig(fs, configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	assert.NotEmpty(t, path)
	assert.Contains(t, path, "rrc")
	assert.Contains(t, path, "config.yaml")
}

func TestConfigExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "exists.yaml", []byte("test"), 0644))

	assert.True(t, ConfigExists(fs, "exists.yaml"))
	assert.False(t, ConfigExists(fs, "does-not-exist.yaml"))
}

func TestConfigYAMLKeys(t *testing.T) {
	data, err := yaml.Marshal(DefaultConfig())
	require.NoError(t, err)

	var raw map[string]map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Contains(t, raw["codec"], "corruption_ratio")
	assert.Contains(t, raw["codec"], "throughput_budget")
	assert.Contains(t, raw["logging"], "format")
	assert.Contains(t, raw["metrics"], "textfile")
}
