package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// RefreshPath is the refresh endpoint, relative to the API base URL
const RefreshPath = "/auth/refresh"

// HTTPClient is an interface for making HTTP requests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Refresher exchanges a refresh token for a new token pair
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*TokenRefreshResponse, error)
}

// RejectedError means the refresh endpoint refused the refresh token itself
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("refresh token rejected with status %d: %s", e.StatusCode, e.Body)
}

// StatusError is any other non-success answer from the refresh endpoint
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("token refresh failed with status %d: %s", e.StatusCode, e.Body)
}

// rejectsRefreshToken lists the statuses that mean the refresh token is invalid or expired
func rejectsRefreshToken(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// HTTPRefresher calls POST <base>/auth/refresh
type HTTPRefresher struct {
	url    string
	client HTTPClient
}

func NewHTTPRefresher(baseURL string, client HTTPClient) *HTTPRefresher {
	return &HTTPRefresher{
		url:    strings.TrimRight(baseURL, "/") + RefreshPath,
		client: client,
	}
}

// Refresh performs the token refresh and returns the decoded response body
func (r *HTTPRefresher) Refresh(ctx context.Context, refreshToken string) (*TokenRefreshResponse, error) {
	jsonData, err := json.Marshal(TokenRefreshRequest{Token: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if rejectsRefreshToken(resp.StatusCode) {
			return nil, &RejectedError{StatusCode: resp.StatusCode, Body: string(body)}
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tokenResp TokenRefreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}

	return &tokenResp, nil
}
