package config

import "time"

type Config interface {
	EnvConfig
	ClientConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetAPIBaseURL() string
	GetCredentialsFile() string
	GetCredentialsKey() string
}

// ClientConfig holds tunables for the API client itself.
type ClientConfig interface {
	GetHTTPTimeout() time.Duration
	GetTokenLookahead() time.Duration
	GetKeeperInterval() time.Duration
	GetDefaultTokenExpiry() time.Duration
}

type mainConfig struct {
	EnvVars
	Client
}

func New() Config {
	return mainConfig{}
}
