package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	interrors "github.com/wayhome/wayhome-go/internal/errors"
)

// maxAuthRetries bounds recovery from an expired access token to exactly
// one refresh-and-retry per logical request.
const maxAuthRetries = 1

// TokenProvider is the slice of the session manager the dispatcher needs:
// a valid token before each attempt, a refresh after a 401, and a logout
// when a 401 survives the retry. A terminal Unauthorized always leaves the
// session cleared; callers never have to trigger logout themselves.
type TokenProvider interface {
	GetValidToken(ctx context.Context) string
	Refresh(ctx context.Context) bool
	Logout()
}

// Request describes one logical backend call.
type Request struct {
	Method string
	Path   string // resolved against the dispatcher's base URL
	Query  url.Values
	Body   any // JSON-encoded unless RawBody is set

	// RawBody overrides Body with a pre-encoded payload (e.g. multipart);
	// ContentType must be set with it.
	RawBody     []byte
	ContentType string

	// NoAuth marks calls that must not carry a bearer token.
	NoAuth bool
}

// Dispatcher executes backend requests uniformly: bearer injection,
// bounded auto-recovery from expired access tokens, and the Result
// taxonomy instead of raised errors.
type Dispatcher struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	log        zerolog.Logger
	metrics    *Metrics
}

// DispatcherOption defines a function type to modify the Dispatcher instance.
type DispatcherOption func(*Dispatcher)

// WithHTTPClient overrides the transport (timeouts are its concern).
func WithHTTPClient(client *http.Client) DispatcherOption {
	return func(d *Dispatcher) {
		d.httpClient = client
	}
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(log zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.log = log
	}
}

// WithMetrics attaches request counters.
func WithMetrics(metrics *Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = metrics
	}
}

// NewDispatcher initializes a Dispatcher with its required dependencies.
func NewDispatcher(baseURL string, tokens TokenProvider, options ...DispatcherOption) (*Dispatcher, error) {
	if baseURL == "" {
		return nil, interrors.Wrapf(interrors.ErrInternal, "[NewDispatcher] baseURL is required")
	}
	if tokens == nil {
		return nil, interrors.Wrapf(interrors.ErrInternal, "[NewDispatcher] token provider is required")
	}

	dispatcher := &Dispatcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		log:        zerolog.Nop(),
	}

	for _, opt := range options {
		opt(dispatcher)
	}

	return dispatcher, nil
}

// Do executes one logical request. At most one 401-triggered retry; the
// retry reuses the request ID so the backend sees one logical call.
func (d *Dispatcher) Do(ctx context.Context, req Request) Result {
	body, contentType, err := encodeBody(req)
	if err != nil {
		return d.finish(Result{Kind: KindNetworkError, Message: err.Error()})
	}

	requestID := uuid.New().String()

	for attempt := 0; attempt <= maxAuthRetries; attempt++ {
		token := ""
		if !req.NoAuth {
			token = d.tokens.GetValidToken(ctx)
		}

		resp, err := d.send(ctx, req, body, contentType, token, requestID)
		if err != nil {
			d.log.Debug().Err(err).Str("method", req.Method).Str("path", req.Path).Msg("request transport failure")
			return d.finish(Result{Kind: KindNetworkError, Message: err.Error()})
		}

		if resp.StatusCode == http.StatusUnauthorized && !req.NoAuth {
			drain(resp)
			if attempt == maxAuthRetries {
				// The refreshed token was still rejected; the session is dead.
				d.tokens.Logout()
				return d.finish(Result{Status: resp.StatusCode, Kind: KindUnauthorized, Message: "session expired"})
			}
			if !d.tokens.Refresh(ctx) {
				// Refresh already logged the session out.
				return d.finish(Result{Status: resp.StatusCode, Kind: KindUnauthorized, Message: "session expired"})
			}
			if d.metrics != nil {
				d.metrics.authRetries.Inc()
			}
			d.log.Debug().Str("path", req.Path).Msg("retrying request after token refresh")
			continue
		}

		return d.finish(d.decode(resp, req))
	}

	// Unreachable: the loop always returns.
	return Result{Kind: KindNetworkError, Message: "retry loop exhausted"}
}

func (d *Dispatcher) send(ctx context.Context, req Request, body []byte, contentType, token, requestID string) (*http.Response, error) {
	target := d.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	httpReq.Header.Set("X-Request-ID", requestID)

	return d.httpClient.Do(httpReq)
}

func (d *Dispatcher) decode(resp *http.Response, req Request) Result {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Status: resp.StatusCode, Kind: KindNetworkError, Message: err.Error()}
	}

	success := resp.StatusCode >= 200 && resp.StatusCode <= 299

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if !success {
			// Error bodies are not guaranteed to carry the envelope.
			return Result{Status: resp.StatusCode, Kind: KindHTTPError, Message: http.StatusText(resp.StatusCode)}
		}
		return Result{Status: resp.StatusCode, Kind: KindNetworkError, Message: "malformed response body"}
	}

	if !success {
		message := env.Message
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		d.log.Debug().Int("status", resp.StatusCode).Str("method", req.Method).Str("path", req.Path).Str("message", message).Msg("request rejected")
		return Result{Status: resp.StatusCode, Kind: KindHTTPError, Message: message}
	}

	if !env.Success {
		return Result{Status: resp.StatusCode, Kind: KindValidation, Message: env.Message}
	}

	return Result{Success: true, Status: resp.StatusCode, Data: env.Data, Message: env.Message}
}

func (d *Dispatcher) finish(r Result) Result {
	if d.metrics != nil {
		d.metrics.observe(r)
	}
	return r
}

func encodeBody(req Request) ([]byte, string, error) {
	if req.RawBody != nil {
		return req.RawBody, req.ContentType, nil
	}
	if req.Body == nil {
		return nil, "", nil
	}
	encoded, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", interrors.Wrapf(err, "[encodeBody] marshal")
	}
	return encoded, "application/json", nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// Get, Post, Put, and Delete are convenience wrappers over Do.

func (d *Dispatcher) Get(ctx context.Context, path string, query url.Values) Result {
	return d.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

func (d *Dispatcher) Post(ctx context.Context, path string, body any) Result {
	return d.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

func (d *Dispatcher) Put(ctx context.Context, path string, body any) Result {
	return d.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

func (d *Dispatcher) Delete(ctx context.Context, path string) Result {
	return d.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}
