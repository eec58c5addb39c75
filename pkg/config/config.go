// Package config loads the relay's configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Defaults for the timeout ceilings. The streaming ceiling is deliberately a
// multi-hour value — agent runs are long — while control calls (send, status,
// stop) use a short, distinct ceiling.
const (
	DefaultHTTPPort        = "8080"
	DefaultStreamTimeout   = 2 * time.Hour
	DefaultControlTimeout  = 10 * time.Second
	DefaultDedupWindow     = 0 // disabled unless configured
	DefaultShutdownTimeout = 15 * time.Second
)

// Config holds the static service configuration. Per-request agent_config
// overrides (agent_id, api_key, base_url) take precedence over the values
// here; immutable after startup.
type Config struct {
	HTTPPort string

	// Upstream agent service defaults.
	AgentBaseURL string
	AgentAPIKey  string
	AgentID      string

	// Timeout ceiling for one whole streaming exchange.
	StreamTimeout time.Duration
	// Timeout ceiling for non-streaming companion calls.
	ControlTimeout time.Duration

	// Duplicate-send rejection window. Zero disables the guard.
	DedupWindow time.Duration

	ShutdownTimeout time.Duration
}

// ValidationError reports a configuration field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config field %q: %s", e.Field, e.Message)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	// Accept plain seconds for parity with the wire-level "timeout" field.
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, &ValidationError{Field: key, Message: "not a duration or integer seconds: " + raw}
	}
	return d, nil
}

// FromEnv builds a Config from the process environment.
func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPPort:     getEnv("HTTP_PORT", DefaultHTTPPort),
		AgentBaseURL: os.Getenv("AGENT_BASE_URL"),
		AgentAPIKey:  os.Getenv("AGENT_API_KEY"),
		AgentID:      os.Getenv("AGENT_ID"),
	}

	var err error
	if cfg.StreamTimeout, err = getEnvDuration("STREAM_TIMEOUT", DefaultStreamTimeout); err != nil {
		return nil, err
	}
	if cfg.ControlTimeout, err = getEnvDuration("CONTROL_TIMEOUT", DefaultControlTimeout); err != nil {
		return nil, err
	}
	if cfg.DedupWindow, err = getEnvDuration("DEDUP_WINDOW", DefaultDedupWindow); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints. An empty AgentBaseURL is allowed at
// startup — callers may supply base_url per request — but a present one must
// be a well-formed absolute URL.
func (c *Config) Validate() error {
	if c.AgentBaseURL != "" {
		u, err := url.Parse(c.AgentBaseURL)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return &ValidationError{Field: "AGENT_BASE_URL", Message: "must be an absolute URL"}
		}
	}
	if c.StreamTimeout <= 0 {
		return &ValidationError{Field: "STREAM_TIMEOUT", Message: "must be positive"}
	}
	if c.ControlTimeout <= 0 {
		return &ValidationError{Field: "CONTROL_TIMEOUT", Message: "must be positive"}
	}
	if c.DedupWindow < 0 {
		return &ValidationError{Field: "DEDUP_WINDOW", Message: "must not be negative"}
	}
	return nil
}
