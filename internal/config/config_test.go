package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ekgmon/ekgmon/internal/config"
	"github.com/ekgmon/ekgmon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ekgmon.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	configPath := writeConfigFile(t, `
port = "/dev/ttyACM0"
baud = 115200
read_timeout = "2s"
capacity = 500
redraw_interval = "100ms"
format = "hex"
skip_samples = 500
display = "console"
log_level = "debug"
telemetry = true
database = "/path/to/ekgmon.db"
`)
	t.Setenv("EKGMON_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", cfg.Port)
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, 2*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 500, cfg.Capacity)
	assert.Equal(t, 100*time.Millisecond, cfg.RedrawInterval)
	assert.Equal(t, "hex", cfg.Format)
	assert.Equal(t, 500, cfg.SkipSamples)
	assert.Equal(t, "console", cfg.Display)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Telemetry)
	assert.Equal(t, "/path/to/ekgmon.db", cfg.Database)
}

func TestLoadDefaults(t *testing.T) {
	// Ensure no config file is used
	t.Setenv("EKGMON_CONFIG", "")

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, config.DefaultPort, cfg.Port)
	assert.Equal(t, config.DefaultBaud, cfg.Baud)
	assert.Equal(t, config.DefaultReadTimeout, cfg.ReadTimeout)
	assert.Equal(t, config.DefaultCapacity, cfg.Capacity)
	assert.Equal(t, config.DefaultRedrawInterval, cfg.RedrawInterval)
	assert.Equal(t, config.DefaultFormat, cfg.Format)
	assert.Equal(t, 0, cfg.Channel)
	assert.Equal(t, config.DefaultSource, cfg.Source)
	assert.Equal(t, config.DefaultDisplay, cfg.Display)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.False(t, cfg.Telemetry)
	assert.NotEmpty(t, cfg.Database)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	configPath := writeConfigFile(t, `
This is not a valid TOML file
`)
	t.Setenv("EKGMON_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrReadConfig))
}

func TestInvalidLogLevel(t *testing.T) {
	configPath := writeConfigFile(t, `
log_level = "invalid"
`)
	t.Setenv("EKGMON_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidLogLevel))
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"non-positive capacity", "capacity = 0"},
		{"negative baud", "baud = -1"},
		{"unknown format", `format = "csv"`},
		{"unknown source", `source = "file"`},
		{"unknown display", `display = "gtk"`},
		{"negative channel", "channel = -2"},
		{"non-positive sim rate", "sim_rate = 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("EKGMON_CONFIG", writeConfigFile(t, tt.content))

			_, err := config.Load()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrInvalidConfig))
		})
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	configPath := writeConfigFile(t, `
baud = 9600
log_level = "error"
`)
	t.Setenv("EKGMON_CONFIG", configPath)

	// Save original args and restore after test
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"ekgmon", "--log-level", "debug", "--capacity", "100", "--read-timeout", "3s"}

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel to be set by flag")
	assert.Equal(t, 100, cfg.Capacity)
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 9600, cfg.Baud, "Expected Baud from file to survive")
}
