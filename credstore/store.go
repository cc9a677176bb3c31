package credstore

import (
	"time"

	"github.com/wayhome/wayhome-go/users"
)

// Credentials is the full persisted credential set: both tokens, the
// absolute expiry of the access token, and the identity record they were
// issued for. A set with either token missing is not a session.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	DeviceID     string // stable per install, generated on first login
	User         *users.User
}

// Valid reports whether the set can back a session. Partial presence
// (one token missing) is treated as no session.
func (c *Credentials) Valid() bool {
	return c != nil && c.AccessToken != "" && c.RefreshToken != ""
}

// ExpiresWithin reports whether the access token expires within d of now.
func (c *Credentials) ExpiresWithin(now time.Time, d time.Duration) bool {
	if c == nil || c.ExpiresAt.IsZero() {
		return true
	}
	return !c.ExpiresAt.After(now.Add(d))
}

// Store persists a credential set. Implementations must replace the whole
// set atomically on Save and remove it entirely on Clear - a reader never
// observes a half-written set.
type Store interface {
	Save(creds *Credentials) error
	Load() (*Credentials, error) // ErrCredentialsNotFound when nothing is stored
	Clear() error                // idempotent
}
