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
		"SAWMILL_ENVIRONMENT", "SAWMILL_RULE_ID", "SAWMILL_ENDPOINT",
		"SAWMILL_STREAM_NAME", "SAWMILL_API_TOKEN", "SAWMILL_TOKEN_URL",
		"SAWMILL_CLIENT_ID", "SAWMILL_CLIENT_SECRET", "SAWMILL_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "DEV", cfg.Environment)
	assert.Equal(t, "dcr-local-dev", cfg.RuleID)
	assert.Equal(t, "http://localhost:8080", cfg.Endpoint)
	assert.Equal(t, "Custom-ProcessMetrics_CL", cfg.StreamName)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Empty(t, cfg.APIToken)
	assert.Empty(t, cfg.TokenURL)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SAWMILL_ENVIRONMENT", "PROD")
	t.Setenv("SAWMILL_RULE_ID", "dcr-prod-metrics")
	t.Setenv("SAWMILL_ENDPOINT", "https://ingest.example.com")
	t.Setenv("SAWMILL_STREAM_NAME", "Custom-Prod_CL")
	t.Setenv("SAWMILL_API_TOKEN", "tok")
	t.Setenv("SAWMILL_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "PROD", cfg.Environment)
	assert.Equal(t, "dcr-prod-metrics", cfg.RuleID)
	assert.Equal(t, "https://ingest.example.com", cfg.Endpoint)
	assert.Equal(t, "Custom-Prod_CL", cfg.StreamName)
	assert.Equal(t, "tok", cfg.APIToken)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoadRejectsUnknownEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SAWMILL_ENVIRONMENT", "STAGING")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAWMILL_ENVIRONMENT")
	assert.Contains(t, err.Error(), `"STAGING"`)
}

func TestLoadRejectsInvalidTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("SAWMILL_TIMEOUT", "abc")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `SAWMILL_TIMEOUT="abc" is not a valid duration`)
}

func TestValidateRequiredFields(t *testing.T) {
	base := Config{
		Environment: "DEV",
		RuleID:      "dcr-x",
		Endpoint:    "http://localhost:8080",
		StreamName:  "Custom-X_CL",
		Timeout:     time.Second,
	}
	require.NoError(t, base.Validate())

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantMsg string
	}{
		{"missing rule", func(c *Config) { c.RuleID = "" }, "SAWMILL_RULE_ID"},
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }, "SAWMILL_ENDPOINT"},
		{"missing stream", func(c *Config) { c.StreamName = "" }, "SAWMILL_STREAM_NAME"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "SAWMILL_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
