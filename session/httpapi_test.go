package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	interrors "github.com/wayhome/wayhome-go/internal/errors"
	"github.com/wayhome/wayhome-go/session"
)

func setupAuthServer(t *testing.T) (*session.HTTPAuthAPI, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if body["email"] != testEmail || body["password"] != testPassword {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"message":"invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{
			"user":{"id":"user-1","email":"agent@wayhome.example","first_name":"Jane","role":"agent"},
			"tokens":{"access_token":"access-1","refresh_token":"refresh-1","expires_in":3600}}}`))
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if body["refresh_token"] != "refresh-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{
			"tokens":{"access_token":"access-2","expires_in":3600}}}`))
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"user-1","email":"agent@wayhome.example","role":"agent"}}`))
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	authAPI, err := session.NewHTTPAuthAPI(server.URL)
	require.NoError(t, err)
	return authAPI, server
}

func TestHTTPAuthAPILogin(t *testing.T) {
	authAPI, _ := setupAuthServer(t)

	result, err := authAPI.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.Equal(t, "user-1", result.User.ID)
	require.Equal(t, "access-1", result.Tokens.AccessToken)
	require.NotNil(t, result.Tokens.RefreshToken)
	require.Equal(t, "refresh-1", *result.Tokens.RefreshToken)
	require.Equal(t, 3600, result.Tokens.ExpiresIn)
}

func TestHTTPAuthAPILoginRejected(t *testing.T) {
	authAPI, _ := setupAuthServer(t)

	_, err := authAPI.Login(context.Background(), testEmail, "wrong")
	require.ErrorIs(t, err, interrors.ErrUnauthorized)
}

func TestHTTPAuthAPIRefresh(t *testing.T) {
	authAPI, _ := setupAuthServer(t)

	grant, err := authAPI.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	require.Equal(t, "access-2", grant.AccessToken)
	require.Nil(t, grant.RefreshToken) // server kept the old one
}

func TestHTTPAuthAPIRefreshRejected(t *testing.T) {
	authAPI, _ := setupAuthServer(t)

	_, err := authAPI.Refresh(context.Background(), "stale")
	require.ErrorIs(t, err, interrors.ErrUnauthorized)
}

func TestHTTPAuthAPIMe(t *testing.T) {
	authAPI, _ := setupAuthServer(t)

	user, err := authAPI.Me(context.Background(), "access-1")
	require.NoError(t, err)
	require.Equal(t, "user-1", user.ID)

	_, err = authAPI.Me(context.Background(), "expired")
	require.ErrorIs(t, err, interrors.ErrUnauthorized)
}

func TestHTTPAuthAPINetworkFailure(t *testing.T) {
	authAPI, server := setupAuthServer(t)
	server.Close()

	_, err := authAPI.Login(context.Background(), testEmail, testPassword)
	require.ErrorIs(t, err, interrors.ErrNetwork)
}

func TestHTTPAuthAPIEndToEndWithManager(t *testing.T) {
	authAPI, _ := setupAuthServer(t)
	f := setupTestFixture(t)

	manager, err := session.NewManager(f.store, authAPI, session.WithNowTime(f.nowTime))
	require.NoError(t, err)

	require.True(t, manager.Login(context.Background(), testEmail, testPassword))
	require.Equal(t, "access-1", manager.GetValidToken(context.Background()))

	f.advance(58 * time.Minute)
	require.Equal(t, "access-2", manager.GetValidToken(context.Background()))
}
