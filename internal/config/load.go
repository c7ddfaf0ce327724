package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// CLIOverrides holds values from command-line flags, the highest-priority
// override layer.
type CLIOverrides struct {
	ConfigPath string
	ServerURL  string
}

// Resolved is the effective configuration after all override layers.
type Resolved struct {
	ServerURL      string
	LogLevel       string
	Timeout        time.Duration
	CredentialPath string
}

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Unknown keys are fatal; silently ignoring a typo in a
// config file leads to hard-to-debug behavior.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}

		return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns a
// Config populated with defaults. Supports the zero-config first run: a
// server URL from the environment or a flag is enough to get started.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads configuration and applies the override chain:
// defaults -> config file -> environment variables -> CLI flags.
// CLI flags always win, matching user expectations for one-off overrides.
func Resolve(env EnvOverrides, cli CLIOverrides) (*Resolved, error) {
	// Config path: CLI > env > default.
	cfgPath := DefaultConfigPath()
	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	cfg, err := LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	serverURL := cfg.ServerURL
	if env.ServerURL != "" {
		serverURL = env.ServerURL
	}

	if cli.ServerURL != "" {
		serverURL = cli.ServerURL
	}

	if serverURL == "" {
		return nil, fmt.Errorf("no server URL configured: set server_url in %s, %s, or --server", cfgPath, EnvServer)
	}

	credPath := cfg.CredentialPath
	if env.CredentialPath != "" {
		credPath = env.CredentialPath
	}

	if credPath == "" {
		credPath = DefaultCredentialPath()
	}

	if credPath == "" {
		return nil, fmt.Errorf("cannot determine credential path (no home directory?)")
	}

	return &Resolved{
		ServerURL:      normalizeServerURL(serverURL),
		LogLevel:       cfg.LogLevel,
		Timeout:        time.Duration(cfg.TimeoutSeconds) * time.Second,
		CredentialPath: credPath,
	}, nil
}
