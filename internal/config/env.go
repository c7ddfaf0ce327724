package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig     = "DOCVAULT_CONFIG"
	EnvServer     = "DOCVAULT_SERVER"
	EnvCredential = "DOCVAULT_CREDENTIAL"
)

// EnvOverrides holds values derived from environment variables.
// These are resolved by Resolve and made available to callers.
type EnvOverrides struct {
	ConfigPath     string // DOCVAULT_CONFIG: override config file path
	ServerURL      string // DOCVAULT_SERVER: override API root URL
	CredentialPath string // DOCVAULT_CREDENTIAL: override credential slot path
}

// ReadEnvOverrides reads environment variables and returns any overrides
// found. This does not modify the Config; Resolve applies the fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath:     os.Getenv(EnvConfig),
		ServerURL:      os.Getenv(EnvServer),
		CredentialPath: os.Getenv(EnvCredential),
	}
}
