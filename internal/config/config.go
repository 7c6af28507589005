// Package config loads and validates reporter configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds everything the reporter resolves once at construction.
// It is read-only for the reporter's lifetime.
type Config struct {
	// Environment is the deployment stage stamped on every record:
	// "DEV", "TEST", or "PROD".
	Environment string

	// Data collection rule details.
	RuleID     string
	Endpoint   string
	StreamName string

	// Credential settings. APIToken wins when set; otherwise the
	// client-credentials flow against TokenURL is used.
	APIToken     string
	TokenURL     string
	ClientID     string
	ClientSecret string

	// Timeout applies to individual upload requests.
	Timeout time.Duration
}

// Load reads configuration from environment variables with development
// defaults. The defaults mirror a local ingestion setup so the reporter
// constructs without any environment set.
func Load() (Config, error) {
	timeout, err := envDuration("SAWMILL_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment:  envStr("SAWMILL_ENVIRONMENT", "DEV"),
		RuleID:       envStr("SAWMILL_RULE_ID", "dcr-local-dev"),
		Endpoint:     envStr("SAWMILL_ENDPOINT", "http://localhost:8080"),
		StreamName:   envStr("SAWMILL_STREAM_NAME", "Custom-ProcessMetrics_CL"),
		APIToken:     envStr("SAWMILL_API_TOKEN", ""),
		TokenURL:     envStr("SAWMILL_TOKEN_URL", ""),
		ClientID:     envStr("SAWMILL_CLIENT_ID", ""),
		ClientSecret: envStr("SAWMILL_CLIENT_SECRET", ""),
		Timeout:      timeout,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present and well-formed.
func (c Config) Validate() error {
	switch c.Environment {
	case "DEV", "TEST", "PROD":
	default:
		return fmt.Errorf("config: SAWMILL_ENVIRONMENT must be DEV, TEST, or PROD (got %q)", c.Environment)
	}
	if c.RuleID == "" {
		return fmt.Errorf("config: SAWMILL_RULE_ID is required")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("config: SAWMILL_ENDPOINT is required")
	}
	if c.StreamName == "" {
		return fmt.Errorf("config: SAWMILL_STREAM_NAME is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: SAWMILL_TIMEOUT must be positive")
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid duration", key, v)
	}
	return d, nil
}
