package config

import "time"

type Client struct{}

var _ ClientConfig = Client{}

func (Client) GetHTTPTimeout() time.Duration {
	return 30 * time.Second
}

// GetTokenLookahead is the margin before expiry during which a token is
// treated as expiring soon and proactively refreshed.
func (Client) GetTokenLookahead() time.Duration {
	return 5 * time.Minute
}

func (Client) GetKeeperInterval() time.Duration {
	return 1 * time.Minute
}

func (Client) GetDefaultTokenExpiry() time.Duration {
	return 1 * time.Hour // used when the server omits expires_in
}
