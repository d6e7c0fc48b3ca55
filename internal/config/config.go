// Package config loads server configuration from the environment, an
// optional .env file and an optional config file.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the server settings.
type Config struct {
	// HTTP Server
	Port         string
	StaticFile   string
	SecureCookie bool

	// Database
	DBDriver string
	DBPath   string

	// Sessions
	SessionTTL             time.Duration
	SessionCleanupInterval time.Duration

	// Upstreams
	GeminiAPIKey       string
	GeminiBaseURL      string
	GeminiModel        string
	WeatherAPIKey      string
	WeatherBaseURL     string
	WeatherRequireAuth bool
	UpstreamTimeout    time.Duration

	// Logging
	LogLevel       string
	LogDevelopment bool
}

var defaults = map[string]any{
	"PORT":                     "5000",
	"STATIC_FILE":              "web/index.html",
	"SECURE_COOKIE":            false,
	"DB_DRIVER":                "sqlite",
	"DB_PATH":                  "lifetracker.db",
	"SESSION_TTL":              "720h",
	"SESSION_CLEANUP_INTERVAL": "1h",
	"GEMINI_BASE_URL":          "https://generativelanguage.googleapis.com/v1beta",
	"GEMINI_MODEL":             "gemini-2.5-flash",
	"WEATHER_BASE_URL":         "https://api.openweathermap.org/data/2.5",
	"WEATHER_REQUIRE_AUTH":     false,
	"UPSTREAM_TIMEOUT":         "15s",
	"LOG_LEVEL":                "info",
	"LOG_DEVELOPMENT":          false,
}

// Load reads configuration. A .env file in the working directory is applied
// first without overriding variables already set; CONFIG may name a yaml,
// json or toml file whose keys are the same as the environment names.
// Environment variables always win.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	for _, k := range []string{"GEMINI_API_KEY", "WEATHER_API_KEY", "CONFIG"} {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}
	v.AutomaticEnv()

	if path := v.GetString("CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	return &Config{
		Port:                   v.GetString("PORT"),
		StaticFile:             v.GetString("STATIC_FILE"),
		SecureCookie:           v.GetBool("SECURE_COOKIE"),
		DBDriver:               v.GetString("DB_DRIVER"),
		DBPath:                 v.GetString("DB_PATH"),
		SessionTTL:             v.GetDuration("SESSION_TTL"),
		SessionCleanupInterval: v.GetDuration("SESSION_CLEANUP_INTERVAL"),
		GeminiAPIKey:           v.GetString("GEMINI_API_KEY"),
		GeminiBaseURL:          v.GetString("GEMINI_BASE_URL"),
		GeminiModel:            v.GetString("GEMINI_MODEL"),
		WeatherAPIKey:          v.GetString("WEATHER_API_KEY"),
		WeatherBaseURL:         v.GetString("WEATHER_BASE_URL"),
		WeatherRequireAuth:     v.GetBool("WEATHER_REQUIRE_AUTH"),
		UpstreamTimeout:        v.GetDuration("UPSTREAM_TIMEOUT"),
		LogLevel:               v.GetString("LOG_LEVEL"),
		LogDevelopment:         v.GetBool("LOG_DEVELOPMENT"),
	}, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		errors = append(errors, fmt.Sprintf("invalid database driver '%s': must be one of [sqlite postgres]", c.DBDriver))
	}
	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.GeminiAPIKey == "" {
		errors = append(errors, "GEMINI_API_KEY is required")
	}
	if c.WeatherAPIKey == "" {
		errors = append(errors, "WEATHER_API_KEY is required")
	}
	if c.GeminiModel == "" {
		errors = append(errors, "GEMINI_MODEL cannot be empty")
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session ttl %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.SessionCleanupInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid session cleanup interval %v: must be at least 1 second", c.SessionCleanupInterval))
	}
	if c.UpstreamTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid upstream timeout %v: must be positive", c.UpstreamTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
