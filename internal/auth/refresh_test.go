package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRefresherSendsTokenBody(t *testing.T) {
	var gotBody TokenRefreshRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, RefreshPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"a2","refresh_token":"r2"}`))
	}))
	defer srv.Close()

	refresher := NewHTTPRefresher(srv.URL+"/", srv.Client())
	resp, err := refresher.Refresh(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", gotBody.Token)
	assert.Equal(t, "a2", resp.AccessToken)
	assert.Equal(t, "r2", resp.RefreshToken)
}

func TestHTTPRefresherStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		rejected bool
	}{
		{name: "unauthorized rejects", status: http.StatusUnauthorized, rejected: true},
		{name: "forbidden rejects", status: http.StatusForbidden, rejected: true},
		{name: "bad request is transient", status: http.StatusBadRequest},
		{name: "server error is transient", status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"detail":"nope"}`))
			}))
			defer srv.Close()

			_, err := NewHTTPRefresher(srv.URL, srv.Client()).Refresh(context.Background(), "r1")
			require.Error(t, err)

			var rejected *RejectedError
			var statusErr *StatusError
			if tt.rejected {
				require.True(t, errors.As(err, &rejected))
				assert.Equal(t, tt.status, rejected.StatusCode)
				assert.Contains(t, rejected.Body, "nope")
			} else {
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, tt.status, statusErr.StatusCode)
			}
		})
	}
}

func TestHTTPRefresherMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := NewHTTPRefresher(srv.URL, srv.Client()).Refresh(context.Background(), "r1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode refresh response")
}

func TestHTTPRefresherNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewHTTPRefresher(url, http.DefaultClient).Refresh(context.Background(), "r1")
	require.Error(t, err)

	var rejected *RejectedError
	assert.False(t, errors.As(err, &rejected))
}
