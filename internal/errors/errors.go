package errors

import (
	"errors"
	"fmt"
)

// Common error types for the Wayhome API client
var (
	// Session errors
	ErrNoSession           = errors.New("no active session")
	ErrNoRefreshToken      = errors.New("no refresh token available")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrSessionExpired      = errors.New("session expired")
	ErrPartialCredentials  = errors.New("partial credential set")
	ErrCredentialsNotFound = errors.New("credentials not found")

	// Request errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrHTTP         = errors.New("http error")
	ErrNetwork      = errors.New("network error")
	ErrValidation   = errors.New("validation error")

	// Storage errors
	ErrStoreCorrupt = errors.New("credential store corrupt")
	ErrDecrypt      = errors.New("credential decryption failed")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
