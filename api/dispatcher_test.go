package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/wayhome/wayhome-go/api"
	"github.com/wayhome/wayhome-go/credstore/storefakes"
	interrors "github.com/wayhome/wayhome-go/internal/errors"
	"github.com/wayhome/wayhome-go/session"
	"github.com/wayhome/wayhome-go/session/authfakes"
)

// fakeTokenProvider stands in for the session manager.
type fakeTokenProvider struct {
	lock         sync.Mutex
	token        string
	refreshOK    bool
	getCalls     int
	refreshCalls int
	logoutCalls  int
}

var _ api.TokenProvider = (*fakeTokenProvider)(nil)

func newFakeTokenProvider() *fakeTokenProvider {
	return &fakeTokenProvider{token: "access-1", refreshOK: true}
}

func (f *fakeTokenProvider) GetValidToken(context.Context) string {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.getCalls++
	return f.token
}

func (f *fakeTokenProvider) Refresh(context.Context) bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.refreshCalls++
	if !f.refreshOK {
		f.token = "" // refresh failure clears the session
		return false
	}
	f.token += "r"
	return true
}

func (f *fakeTokenProvider) Logout() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.logoutCalls++
	f.token = ""
}

func (f *fakeTokenProvider) refreshes() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.refreshCalls
}

func (f *fakeTokenProvider) logouts() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.logoutCalls
}

type recordedRequest struct {
	authorization string
	requestID     string
	path          string
}

// testServer wraps httptest with per-call scripting and request capture.
type testServer struct {
	lock     sync.Mutex
	server   *httptest.Server
	handlers []http.HandlerFunc
	requests []recordedRequest
}

func newTestServer(t *testing.T, handlers ...http.HandlerFunc) *testServer {
	t.Helper()

	ts := &testServer{handlers: handlers}
	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.lock.Lock()
		ts.requests = append(ts.requests, recordedRequest{
			authorization: r.Header.Get("Authorization"),
			requestID:     r.Header.Get("X-Request-ID"),
			path:          r.URL.Path,
		})
		index := len(ts.requests) - 1
		ts.lock.Unlock()

		if index < len(ts.handlers) {
			ts.handlers[index](w, r)
			return
		}
		ts.handlers[len(ts.handlers)-1](w, r)
	}))
	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) callCount() int {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	return len(ts.requests)
}

func (ts *testServer) request(i int) recordedRequest {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	return ts.requests[i]
}

func respondJSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func setupDispatcher(t *testing.T, ts *testServer, provider api.TokenProvider) *api.Dispatcher {
	t.Helper()
	dispatcher, err := api.NewDispatcher(ts.server.URL, provider)
	require.NoError(t, err)
	return dispatcher
}

func TestNewDispatcherRequiresDependencies(t *testing.T) {
	_, err := api.NewDispatcher("", newFakeTokenProvider())
	require.Error(t, err)

	_, err = api.NewDispatcher("http://localhost", nil)
	require.Error(t, err)
}

func TestDoSuccessDecodesEnvelope(t *testing.T) {
	ts := newTestServer(t, respondJSON(200, `{"success":true,"data":{"id":"prop-1","title":"Sea View Flat"}}`))
	d := setupDispatcher(t, ts, newFakeTokenProvider())

	res := d.Get(context.Background(), "/properties/prop-1", nil)

	require.True(t, res.Success)
	require.Equal(t, 200, res.Status)
	require.NoError(t, res.Err())

	var payload struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, res.DecodeInto(&payload))
	require.Equal(t, "Sea View Flat", payload.Title)

	require.Equal(t, "Bearer access-1", ts.request(0).authorization)
	require.NotEmpty(t, ts.request(0).requestID)
}

func TestDoRetriesOnceAfter401AndSucceeds(t *testing.T) {
	ts := newTestServer(t,
		respondJSON(401, `{"success":false,"message":"token expired"}`),
		respondJSON(200, `{"success":true,"data":{"ok":true}}`),
	)
	provider := newFakeTokenProvider()
	d := setupDispatcher(t, ts, provider)

	res := d.Get(context.Background(), "/leads", nil)

	require.True(t, res.Success)
	// 1 initial call + 1 refresh + 1 retried call, nothing more.
	require.Equal(t, 2, ts.callCount())
	require.Equal(t, 1, provider.refreshes())

	// Retry carries the refreshed token and the same request ID.
	require.Equal(t, "Bearer access-1r", ts.request(1).authorization)
	require.Equal(t, ts.request(0).requestID, ts.request(1).requestID)
}

func TestDoStopsAfterSecond401(t *testing.T) {
	ts := newTestServer(t, respondJSON(401, `{"success":false,"message":"nope"}`))
	provider := newFakeTokenProvider()
	d := setupDispatcher(t, ts, provider)

	res := d.Get(context.Background(), "/leads", nil)

	require.False(t, res.Success)
	require.Equal(t, api.KindUnauthorized, res.Kind)
	require.ErrorIs(t, res.Err(), interrors.ErrUnauthorized)
	// No third call, and the dead session is torn down.
	require.Equal(t, 2, ts.callCount())
	require.Equal(t, 1, provider.refreshes())
	require.Equal(t, 1, provider.logouts())
}

func TestDoTerminalUnauthorizedClearsSession(t *testing.T) {
	ts := newTestServer(t, respondJSON(401, `{"success":false,"message":"nope"}`))

	store := storefakes.NewFakeStore()
	authAPI := authfakes.NewFakeAuthAPI()
	manager, err := session.NewManager(store, authAPI)
	require.NoError(t, err)
	require.True(t, manager.Login(context.Background(), authAPI.Email, authAPI.Password))

	d := setupDispatcher(t, ts, manager)

	res := d.Get(context.Background(), "/leads", nil)

	require.False(t, res.Success)
	require.Equal(t, api.KindUnauthorized, res.Kind)
	require.Equal(t, 2, ts.callCount())

	// A 401 that survives the retry ends the session everywhere: memory
	// and the durable store, without any caller intervention.
	require.False(t, manager.IsAuthenticated())
	require.Nil(t, store.Stored())
	require.Empty(t, manager.GetValidToken(context.Background()))
}

func TestDoReturnsUnauthorizedWhenRefreshFails(t *testing.T) {
	ts := newTestServer(t, respondJSON(401, `{"success":false}`))
	provider := newFakeTokenProvider()
	provider.refreshOK = false
	d := setupDispatcher(t, ts, provider)

	res := d.Get(context.Background(), "/leads", nil)

	require.False(t, res.Success)
	require.Equal(t, api.KindUnauthorized, res.Kind)
	require.Equal(t, 1, ts.callCount())
	require.Equal(t, 1, provider.refreshes())
}

func TestDoHTTPErrorCarriesServerMessage(t *testing.T) {
	ts := newTestServer(t, respondJSON(422, `{"success":false,"message":"price must be positive"}`))
	d := setupDispatcher(t, ts, newFakeTokenProvider())

	res := d.Post(context.Background(), "/properties", map[string]any{"price": -1})

	require.False(t, res.Success)
	require.Equal(t, api.KindHTTPError, res.Kind)
	require.Equal(t, 422, res.Status)
	require.Equal(t, "price must be positive", res.Message)
	require.ErrorIs(t, res.Err(), interrors.ErrHTTP)
}

func TestDoToleratesNonEnvelopeErrorBody(t *testing.T) {
	ts := newTestServer(t, respondJSON(502, `<html>Bad Gateway</html>`))
	d := setupDispatcher(t, ts, newFakeTokenProvider())

	res := d.Get(context.Background(), "/offices", nil)

	require.False(t, res.Success)
	require.Equal(t, api.KindHTTPError, res.Kind)
	require.Equal(t, "Bad Gateway", res.Message)
}

func TestDoValidationFailureOn2xxEnvelope(t *testing.T) {
	ts := newTestServer(t, respondJSON(200, `{"success":false,"message":"email already taken"}`))
	d := setupDispatcher(t, ts, newFakeTokenProvider())

	res := d.Post(context.Background(), "/leads", map[string]string{"email": "dup@x.example"})

	require.False(t, res.Success)
	require.Equal(t, api.KindValidation, res.Kind)
	require.Equal(t, "email already taken", res.Message)
	require.ErrorIs(t, res.Err(), interrors.ErrValidation)
}

func TestDoNetworkError(t *testing.T) {
	provider := newFakeTokenProvider()
	d, err := api.NewDispatcher("http://127.0.0.1:1", provider) // nothing listens here
	require.NoError(t, err)

	res := d.Get(context.Background(), "/leads", nil)

	require.False(t, res.Success)
	require.Equal(t, api.KindNetworkError, res.Kind)
	require.ErrorIs(t, res.Err(), interrors.ErrNetwork)
	// Transport failure is not a 401; no refresh.
	require.Zero(t, provider.refreshes())
}

func TestDoNoAuthSkipsTokenAndRetry(t *testing.T) {
	ts := newTestServer(t, respondJSON(401, `{"success":false,"message":"login required"}`))
	provider := newFakeTokenProvider()
	d := setupDispatcher(t, ts, provider)

	res := d.Do(context.Background(), api.Request{Method: http.MethodPost, Path: "/auth/login", NoAuth: true})

	require.False(t, res.Success)
	// Without auth a 401 is an ordinary HTTP error, not a retry trigger.
	require.Equal(t, api.KindHTTPError, res.Kind)
	require.Equal(t, 1, ts.callCount())
	require.Empty(t, ts.request(0).authorization)
	require.Zero(t, provider.refreshes())
}

func TestDoEncodesQueryAndBody(t *testing.T) {
	var gotBody map[string]any
	var gotQuery url.Values
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		respondJSON(200, `{"success":true}`)(w, r)
	})
	d := setupDispatcher(t, ts, newFakeTokenProvider())

	query := url.Values{}
	query.Set("status", "active")
	res := d.Do(context.Background(), api.Request{
		Method: http.MethodPost,
		Path:   "/properties",
		Query:  query,
		Body:   map[string]any{"title": "Bungalow"},
	})

	require.True(t, res.Success)
	require.Equal(t, "active", gotQuery.Get("status"))
	require.Equal(t, "Bungalow", gotBody["title"])
}

func TestMetricsCountOutcomesAndRetries(t *testing.T) {
	ts := newTestServer(t,
		respondJSON(401, `{"success":false}`),
		respondJSON(200, `{"success":true}`),
		respondJSON(500, `{"success":false,"message":"boom"}`),
	)
	registry := prometheus.NewRegistry()
	metrics := api.NewMetrics(registry)
	d, err := api.NewDispatcher(ts.server.URL, newFakeTokenProvider(), api.WithMetrics(metrics))
	require.NoError(t, err)

	require.True(t, d.Get(context.Background(), "/a", nil).Success)
	require.False(t, d.Get(context.Background(), "/b", nil).Success)

	families, err := registry.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	retried, err := testutil.GatherAndCount(registry, "wayhome_client_auth_retries_total")
	require.NoError(t, err)
	require.Equal(t, 1, retried)
}
