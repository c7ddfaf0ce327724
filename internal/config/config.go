// Package config loads and resolves docvault configuration from the
// four-layer override chain: defaults -> config file -> environment
// variables -> CLI flags.
package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Defaults.
const (
	defaultLogLevel       = "info"
	defaultTimeoutSeconds = 30
)

// Config is the on-disk configuration shape (TOML).
type Config struct {
	// ServerURL is the DocVault API root, e.g. "https://docs.example.com/api".
	ServerURL string `toml:"server_url"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
	// TimeoutSeconds bounds each HTTP request.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// CredentialPath overrides where the bearer credential is persisted.
	CredentialPath string `toml:"credential_path"`
}

// DefaultConfig returns a Config populated with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:       defaultLogLevel,
		TimeoutSeconds: defaultTimeoutSeconds,
	}
}

// validLogLevels for Validate.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks config field values. The server URL is optional here;
// Resolve enforces its presence after all override layers are applied.
func Validate(cfg *Config) error {
	if cfg.ServerURL != "" {
		u, err := url.Parse(cfg.ServerURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("server_url %q is not an absolute URL", cfg.ServerURL)
		}
	}

	if cfg.LogLevel != "" && !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", cfg.LogLevel)
	}

	if cfg.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative")
	}

	return nil
}

// normalizeServerURL strips a trailing slash so path joining stays uniform.
func normalizeServerURL(raw string) string {
	return strings.TrimRight(raw, "/")
}
