package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LIBRARY_BRANCHES", "EXCHANGE_DIR", "OVERDUE_SCAN_INTERVAL", "LOG_LEVEL",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SERVICE_NAME", "LOGIN_ATTEMPTS_PER_MINUTE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIBRARY_BRANCHES", "North, South")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, []string{"North", "South"}, cfg.Branches)
	assert.Equal(t, "./exchange", cfg.ExchangeDir)
	assert.Equal(t, time.Hour, cfg.OverdueScanInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.OTLPEndpoint)
	assert.Equal(t, "librarian", cfg.ServiceName)
	assert.Equal(t, 5, cfg.LoginAttemptsPerMinute)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIBRARY_BRANCHES", "Central")
	t.Setenv("EXCHANGE_DIR", "/var/lib/exchange")
	t.Setenv("OVERDUE_SCAN_INTERVAL", "15m")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318")
	t.Setenv("OTEL_SERVICE_NAME", "central-librarian")
	t.Setenv("LOGIN_ATTEMPTS_PER_MINUTE", "10")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, []string{"Central"}, cfg.Branches)
	assert.Equal(t, "/var/lib/exchange", cfg.ExchangeDir)
	assert.Equal(t, 15*time.Minute, cfg.OverdueScanInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://collector:4318", cfg.OTLPEndpoint)
	assert.Equal(t, "central-librarian", cfg.ServiceName)
	assert.Equal(t, 10, cfg.LoginAttemptsPerMinute)
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing branches", map[string]string{}},
		{"empty branch", map[string]string{"LIBRARY_BRANCHES": "North,,South"}},
		{"duplicate branch", map[string]string{"LIBRARY_BRANCHES": "North,North"}},
		{"bad interval", map[string]string{"LIBRARY_BRANCHES": "North", "OVERDUE_SCAN_INTERVAL": "soon"}},
		{"negative interval", map[string]string{"LIBRARY_BRANCHES": "North", "OVERDUE_SCAN_INTERVAL": "-1m"}},
		{"bad attempts", map[string]string{"LIBRARY_BRANCHES": "North", "LOGIN_ATTEMPTS_PER_MINUTE": "many"}},
		{"zero attempts", map[string]string{"LIBRARY_BRANCHES": "North", "LOGIN_ATTEMPTS_PER_MINUTE": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFromEnv()
			assert.Error(t, err)
		})
	}
}
