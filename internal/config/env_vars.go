package config

import (
	"os"
	"path/filepath"
)

const (
	appNameVar         = "APP_NAME"
	apiBaseURLVar      = "WAYHOME_API_URL"
	credentialsFileVar = "WAYHOME_CREDENTIALS_FILE"
	credentialsKeyVar  = "WAYHOME_CREDENTIALS_KEY"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Wayhome")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetAPIBaseURL returns the base URL of the Wayhome backend
// (e.g., "https://api.wayhome.example.com"). All /auth and resource
// endpoints are resolved relative to it.
func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "http://localhost:4000")
}

func (EnvVars) GetCredentialsFile() string {
	if file := os.Getenv(credentialsFileVar); file != "" {
		return file
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./credentials.json"
	}
	return filepath.Join(home, ".wayhome", "credentials.json")
}

// GetCredentialsKey returns the passphrase used to encrypt credentials
// at rest. Empty means the plain file store is used.
func (EnvVars) GetCredentialsKey() string {
	return GetEnv(credentialsKeyVar, "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
