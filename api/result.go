package api

import (
	"encoding/json"
	"fmt"

	interrors "github.com/wayhome/wayhome-go/internal/errors"
)

// Kind classifies a failed request.
type Kind string

const (
	// KindUnauthorized is a 401 not resolved by one refresh and retry. The
	// session has already been cleared by the time the caller sees it.
	KindUnauthorized Kind = "unauthorized"

	// KindHTTPError is any other non-2xx status, carrying the status code
	// and the server-supplied message when one was present.
	KindHTTPError Kind = "http_error"

	// KindNetworkError is a transport or parsing failure before a usable
	// status was obtained.
	KindNetworkError Kind = "network_error"

	// KindValidation is a 2xx envelope with success=false - the server
	// accepted the request but rejected its content.
	KindValidation Kind = "validation"
)

// Result is the uniform outcome of every dispatched request. Callers
// branch on Success rather than handling errors; Kind is set only on
// failure.
type Result struct {
	Success bool
	Status  int
	Kind    Kind
	Message string
	Data    json.RawMessage
}

// DecodeInto unmarshals the payload of a successful result.
func (r Result) DecodeInto(v any) error {
	if !r.Success {
		return interrors.Wrapf(r.Err(), "[Result.DecodeInto] result not successful")
	}
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// Err maps a failed result onto the client error taxonomy. Successful
// results return nil.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	switch r.Kind {
	case KindUnauthorized:
		return interrors.ErrUnauthorized
	case KindNetworkError:
		return fmt.Errorf("%w: %s", interrors.ErrNetwork, r.Message)
	case KindValidation:
		return fmt.Errorf("%w: %s", interrors.ErrValidation, r.Message)
	default:
		return fmt.Errorf("%w: status %d: %s", interrors.ErrHTTP, r.Status, r.Message)
	}
}

// envelope is the backend's uniform JSON response shape. Non-2xx bodies
// may not conform and are tolerated with a generic message fallback.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}
