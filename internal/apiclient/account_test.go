package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/dvcrn/jobsocial-client/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginStoresSession(t *testing.T) {
	var got LoginRequest
	b := &backend{api: func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, LoginPath, r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"access_token":"a1","refresh_token":"r1","token_type":"bearer"}`))
	}}
	client, store := newTestClient(t, b, "", "")

	require.NoError(t, client.Login(context.Background(), "ada@example.com", "hunter2"))
	assert.Equal(t, LoginRequest{Email: "ada@example.com", Password: "hunter2"}, got)
	assertStored(t, store, "a1", "r1")
}

func TestLoginReenablesRefresh(t *testing.T) {
	b := &backend{api: func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"a1","refresh_token":"r1"}`))
	}}
	client, _ := newTestClient(t, b, "", "")

	// No refresh token: the first authenticated call disables refresh
	_, err := client.Request(context.Background(), "/me", Options{})
	require.ErrorIs(t, err, ErrUnauthenticated)
	require.True(t, client.Session().Disabled())

	require.NoError(t, client.Login(context.Background(), "ada@example.com", "hunter2"))
	assert.False(t, client.Session().Disabled())
}

func TestLoginInvalidCredentials(t *testing.T) {
	b := &backend{api: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Invalid credentials"}`))
	}}
	client, store := newTestClient(t, b, "", "")

	err := client.Login(context.Background(), "ada@example.com", "wrong")
	require.EqualError(t, err, "Invalid credentials")
	assertStored(t, store, "", "")
}

func TestLoginIncompleteResponse(t *testing.T) {
	b := &backend{api: func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"a1"}`))
	}}
	client, store := newTestClient(t, b, "", "")

	err := client.Login(context.Background(), "ada@example.com", "hunter2")
	require.ErrorIs(t, err, ErrIncompleteLogin)
	assertStored(t, store, "", "")
}

func TestSignup(t *testing.T) {
	t.Run("with tokens", func(t *testing.T) {
		b := &backend{api: func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, SignupPath, r.URL.Path)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"access_token":"a1","refresh_token":"r1"}`))
		}}
		client, store := newTestClient(t, b, "", "")

		_, err := client.Signup(context.Background(), SignupRequest{Email: "ada@example.com", Password: "pw", FullName: "Ada"})
		require.NoError(t, err)
		assertStored(t, store, "a1", "r1")
	})

	t.Run("confirmation required", func(t *testing.T) {
		b := &backend{api: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"message":"check your inbox"}`))
		}}
		client, store := newTestClient(t, b, "", "")

		raw, err := client.Signup(context.Background(), SignupRequest{Email: "ada@example.com", Password: "pw"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"message":"check your inbox"}`, string(raw))
		assertStored(t, store, "", "")
	})
}

func TestLogout(t *testing.T) {
	var logoutCalls atomic.Int32
	var gotAuth string
	b := &backend{validToken: "a1", api: func(w http.ResponseWriter, r *http.Request) {
		logoutCalls.Add(1)
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusInternalServerError)
	}}
	client, store := newTestClient(t, b, "a1", "r1")

	require.NoError(t, client.Logout(context.Background()))
	assert.Equal(t, int32(1), logoutCalls.Load())
	assert.Equal(t, "Bearer a1", gotAuth)
	assertStored(t, store, "", "")

	// Already signed out: nothing to tell the backend
	require.NoError(t, client.Logout(context.Background()))
	assert.Equal(t, int32(1), logoutCalls.Load())
	assert.Equal(t, int32(0), b.refreshCalls.Load())
}

func TestLoginAfterLogoutRestoresAccess(t *testing.T) {
	b := &backend{}
	b.api = func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == LoginPath {
			b.setValidToken("a5")
			w.Write([]byte(`{"access_token":"a5","refresh_token":"r5"}`))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}
	client, _ := newTestClient(t, b, "", "")

	_, err := client.Request(context.Background(), "/me", Options{})
	require.True(t, errors.Is(err, ErrUnauthenticated))

	require.NoError(t, client.Login(context.Background(), "ada@example.com", "pw"))
	_, err = client.Request(context.Background(), "/me", Options{})
	require.NoError(t, err)

	pair, _, err := client.Session().Snapshot()
	require.NoError(t, err)
	assert.Equal(t, auth.TokenPair{AccessToken: "a5", RefreshToken: "r5"}, pair)
}
