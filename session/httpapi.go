package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	interrors "github.com/wayhome/wayhome-go/internal/errors"
	"github.com/wayhome/wayhome-go/users"
)

const (
	loginPath   = "/auth/login"
	refreshPath = "/auth/refresh"
	mePath      = "/auth/me"
	logoutPath  = "/auth/logout"
)

// HTTPAuthAPI talks to the Wayhome authentication endpoints. Responses use
// the backend's {success, data, message} envelope.
type HTTPAuthAPI struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

var _ AuthAPI = (*HTTPAuthAPI)(nil)

// HTTPAuthAPIOption defines a function type to modify the HTTPAuthAPI instance.
type HTTPAuthAPIOption func(*HTTPAuthAPI)

// WithHTTPClient overrides the transport (primarily for testing and timeouts).
func WithHTTPClient(client *http.Client) HTTPAuthAPIOption {
	return func(a *HTTPAuthAPI) {
		a.httpClient = client
	}
}

// WithAuthLogger attaches a logger; the default discards everything.
func WithAuthLogger(log zerolog.Logger) HTTPAuthAPIOption {
	return func(a *HTTPAuthAPI) {
		a.log = log
	}
}

func NewHTTPAuthAPI(baseURL string, options ...HTTPAuthAPIOption) (*HTTPAuthAPI, error) {
	if baseURL == "" {
		return nil, interrors.Wrapf(interrors.ErrInternal, "[NewHTTPAuthAPI] baseURL is required")
	}

	api := &HTTPAuthAPI{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        zerolog.Nop(),
	}

	for _, opt := range options {
		opt(api)
	}

	return api, nil
}

type authEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

func (a *HTTPAuthAPI) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	data, err := a.post(ctx, loginPath, body, "")
	if err != nil {
		return nil, interrors.Wrapf(err, "[HTTPAuthAPI.Login] %s", loginPath)
	}

	var result LoginResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, interrors.Wrapf(err, "[HTTPAuthAPI.Login] decode")
	}
	return &result, nil
}

func (a *HTTPAuthAPI) Refresh(ctx context.Context, refreshToken string) (*TokenGrant, error) {
	body := map[string]string{"refresh_token": refreshToken}

	data, err := a.post(ctx, refreshPath, body, "")
	if err != nil {
		return nil, interrors.Wrapf(err, "[HTTPAuthAPI.Refresh] %s", refreshPath)
	}

	// The grant arrives nested under "tokens" on refresh, matching login.
	var payload struct {
		Tokens TokenGrant `json:"tokens"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, interrors.Wrapf(err, "[HTTPAuthAPI.Refresh] decode")
	}
	return &payload.Tokens, nil
}

func (a *HTTPAuthAPI) Me(ctx context.Context, accessToken string) (*users.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+mePath, nil)
	if err != nil {
		return nil, interrors.Wrapf(err, "[HTTPAuthAPI.Me] new request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	data, err := a.execute(req)
	if err != nil {
		return nil, interrors.Wrapf(err, "[HTTPAuthAPI.Me] %s", mePath)
	}

	var user users.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, interrors.Wrapf(err, "[HTTPAuthAPI.Me] decode")
	}
	return &user, nil
}

func (a *HTTPAuthAPI) Logout(ctx context.Context, accessToken string) error {
	_, err := a.post(ctx, logoutPath, nil, accessToken)
	return interrors.Wrapf(err, "[HTTPAuthAPI.Logout] %s", logoutPath)
}

func (a *HTTPAuthAPI) post(ctx context.Context, path string, body any, accessToken string) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	return a.execute(req)
}

// execute runs the request and unwraps the response envelope. A 401 maps
// to interrors.ErrUnauthorized so callers can distinguish a rejected
// credential from a transport failure.
func (a *HTTPAuthAPI) execute(req *http.Request) (json.RawMessage, error) {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interrors.ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interrors.ErrNetwork, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, interrors.ErrUnauthorized
	}

	var envelope authEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("%w: status %d", interrors.ErrHTTP, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %v", interrors.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !envelope.Success {
		message := envelope.Message
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		a.log.Debug().Int("status", resp.StatusCode).Str("message", message).Str("path", req.URL.Path).Msg("auth request rejected")
		return nil, fmt.Errorf("%w: %s", interrors.ErrHTTP, message)
	}

	return envelope.Data, nil
}
