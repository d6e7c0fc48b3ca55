package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Port:                   "5000",
		DBDriver:               "sqlite",
		DBPath:                 "lifetracker.db",
		SessionTTL:             720 * time.Hour,
		SessionCleanupInterval: time.Hour,
		GeminiAPIKey:           "g-key",
		GeminiModel:            "gemini-2.5-flash",
		WeatherAPIKey:          "w-key",
		UpstreamTimeout:        15 * time.Second,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "unknown driver",
			mutate:      func(c *Config) { c.DBDriver = "mysql" },
			wantErr:     true,
			errorString: "invalid database driver 'mysql'",
		},
		{
			name:        "missing gemini key",
			mutate:      func(c *Config) { c.GeminiAPIKey = "" },
			wantErr:     true,
			errorString: "GEMINI_API_KEY is required",
		},
		{
			name:        "missing weather key",
			mutate:      func(c *Config) { c.WeatherAPIKey = "" },
			wantErr:     true,
			errorString: "WEATHER_API_KEY is required",
		},
		{
			name:        "zero upstream timeout",
			mutate:      func(c *Config) { c.UpstreamTimeout = 0 },
			wantErr:     true,
			errorString: "invalid upstream timeout",
		},
		{
			name:        "short session ttl",
			mutate:      func(c *Config) { c.SessionTTL = time.Second },
			wantErr:     true,
			errorString: "invalid session ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorString)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.GeminiAPIKey = ""
	cfg.WeatherAPIKey = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY is required")
	assert.Contains(t, err.Error(), "WEATHER_API_KEY is required")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g")
	t.Setenv("WEATHER_API_KEY", "w")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, ":5000", cfg.Addr())
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 15*time.Second, cfg.UpstreamTimeout)
	assert.False(t, cfg.WeatherRequireAuth)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DB_PATH", "/tmp/other.db")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("WEATHER_REQUIRE_AUTH", "true")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "/tmp/other.db", cfg.DBPath)
	assert.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
	assert.True(t, cfg.WeatherRequireAuth)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "PORT: \"9090\"\nGEMINI_MODEL: gemini-pro\nWEATHER_API_KEY: from-file\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG", path)
	t.Setenv("PORT", "7070")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port, "environment wins over the config file")
	assert.Equal(t, "gemini-pro", cfg.GeminiModel)
	assert.Equal(t, "from-file", cfg.WeatherAPIKey)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := load(viper.New())
	assert.Error(t, err)
}
