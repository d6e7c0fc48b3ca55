package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"life-tracker/internal/config"
	"life-tracker/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig(t *testing.T) *config.Config {
	page := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(page, []byte("<html></html>"), 0o644))

	return &config.Config{
		Port:                   "5000",
		StaticFile:             page,
		DBDriver:               storage.DriverSQLite,
		DBPath:                 ":memory:",
		SessionTTL:             time.Hour,
		SessionCleanupInterval: time.Minute,
		GeminiAPIKey:           "g",
		GeminiBaseURL:          "http://127.0.0.1:1",
		GeminiModel:            "m",
		WeatherAPIKey:          "w",
		WeatherBaseURL:         "http://127.0.0.1:1",
		UpstreamTimeout:        time.Second,
		LogLevel:               "info",
	}
}

func TestSetupRouter(t *testing.T) {
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err, "failed to create database")
	defer db.Close()

	// building the router panics on conflicting routes
	mux := setupRouter(testConfig(t), db, zaptest.NewLogger(t))

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"Root serves the page", http.MethodGet, "/", http.StatusOK},
		{"Health check", http.MethodGet, "/healthz", http.StatusOK},
		{"Anonymous expense list", http.MethodGet, "/api/expenses", http.StatusUnauthorized},
		{"Anonymous task list", http.MethodGet, "/api/tasks", http.StatusUnauthorized},
		{"Me requires auth", http.MethodGet, "/api/me", http.StatusUnauthorized},
		{"Generate requires auth", http.MethodPost, "/api/generate", http.StatusUnauthorized},
		{"Logout without session", http.MethodPost, "/api/logout", http.StatusOK},
		{"Unreachable weather upstream", http.MethodGet, "/api/weather", http.StatusInternalServerError},
		{"Unknown route", http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code,
				"%s %s returned unexpected status", tt.method, tt.path)
		})
	}
}

func TestNewServer(t *testing.T) {
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	cfg := testConfig(t)
	cfg.Port = "8123"
	srv := newServer(cfg, db, zaptest.NewLogger(t))

	assert.Equal(t, ":8123", srv.Addr)
	assert.NotNil(t, srv.Handler)
	assert.Greater(t, srv.WriteTimeout, cfg.UpstreamTimeout, "writes outlive upstream calls")
	assert.NotZero(t, srv.ReadHeaderTimeout)
}
