package session

import (
	"context"

	"github.com/wayhome/wayhome-go/users"
)

// TokenGrant is the token payload issued by the authentication boundary
// on login and refresh.
type TokenGrant struct {
	// AccessToken is the short-lived bearer credential for API calls.
	AccessToken string `json:"access_token"`

	// RefreshToken is the longer-lived credential used solely to mint a
	// new access token. Nil on refresh responses that keep the current one.
	RefreshToken *string `json:"refresh_token,omitempty"`

	// ExpiresIn is the access token lifetime in seconds. A hint - when the
	// access token is a JWT its "exp" claim is authoritative.
	ExpiresIn int `json:"expires_in,omitempty"`
}

// LoginResult carries the identity and tokens returned by a successful login.
type LoginResult struct {
	User   *users.User `json:"user"`
	Tokens TokenGrant  `json:"tokens"`
}

// AuthAPI is the authentication boundary the Manager consumes. Implementations
// return interrors.ErrUnauthorized when the server answers 401 so callers can
// tell a rejected credential from a transport failure.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenGrant, error)
	Me(ctx context.Context, accessToken string) (*users.User, error)
	Logout(ctx context.Context, accessToken string) error
}
