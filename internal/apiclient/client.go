package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dvcrn/jobsocial-client/internal/auth"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options controls a single API call
type Options struct {
	Method string
	Header http.Header
	// Body is sent as-is. Mutually exclusive with JSON.
	Body []byte
	// JSON is marshalled as the request body with an application/json content type
	JSON any
	// SkipAuth sends the request without a bearer token and disables 401 recovery
	SkipAuth bool
}

func (o Options) method() string {
	if o.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(o.Method)
}

// payload returns the bytes to send and, for JSON payloads, the content type
func (o Options) payload() ([]byte, string, error) {
	if o.JSON != nil && o.Body != nil {
		return nil, "", ErrBodyConflict
	}
	if o.JSON == nil {
		return o.Body, "", nil
	}
	data, err := json.Marshal(o.JSON)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request payload: %w", err)
	}
	return data, "application/json", nil
}

// Client performs API calls with the stored session attached and recovers
// from an expired access token by refreshing it at most once per call.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	session    *auth.SessionManager
	logger     *zerolog.Logger
}

func New(baseURL string, httpClient HTTPClient, session *auth.SessionManager, logger *zerolog.Logger) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		session:    session,
		logger:     logger,
	}
}

// Session returns the session manager the client authenticates with
func (c *Client) Session() *auth.SessionManager {
	return c.session
}

type response struct {
	statusCode int
	status     string
	body       []byte
}

// Result is a successful answer. Body is nil when the server sent no
// (parseable) body.
type Result struct {
	StatusCode int
	Body       json.RawMessage
}

// Request performs the call and returns the JSON body. A nil result means the
// server answered with success but no (parseable) body.
//
// Besides *RequestError, callers should expect three session outcomes:
// ErrUnauthenticated when no refresh was possible, ErrSessionExpired when the
// session was cleared, and an error wrapping auth.ErrRefreshFailed when the
// refresh failed transiently. The stored tokens are kept in the last case, so
// the call can simply be retried later.
func (c *Client) Request(ctx context.Context, path string, opts Options) (json.RawMessage, error) {
	res, err := c.Do(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return res.Body, nil
}

// Do is Request with the upstream status code of the successful answer
func (c *Client) Do(ctx context.Context, path string, opts Options) (*Result, error) {
	resp, err := c.exchange(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	body, err := c.result(resp)
	if err != nil {
		return nil, err
	}
	return &Result{StatusCode: resp.statusCode, Body: body}, nil
}

// exchange runs the authenticated request protocol and returns the final answer
func (c *Client) exchange(ctx context.Context, path string, opts Options) (*response, error) {
	body, contentType, err := opts.payload()
	if err != nil {
		return nil, err
	}

	if opts.SkipAuth {
		return c.send(ctx, path, opts, body, contentType, "")
	}

	pair, generation, err := c.session.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	refreshed := false
	if pair.AccessToken == "" {
		c.logger.Debug().Str("path", path).Msg("No access token stored, refreshing before request")
		pair, err = c.session.Refresh(ctx, generation)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
		}
		refreshed = true
	}

	resp, err := c.send(ctx, path, opts, body, contentType, pair.AccessToken)
	if err != nil {
		return nil, err
	}
	if resp.statusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// The one refresh this call is allowed has already been spent
	if refreshed {
		return nil, c.expire(path, pair.AccessToken)
	}

	c.logger.Warn().Str("path", path).Msg("Received 401 Unauthorized, attempting session refresh...")

	pair, err = c.session.Refresh(ctx, generation)
	if err != nil {
		switch {
		case auth.RefreshImpossible(err):
			return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
		case errors.Is(err, auth.ErrRefreshRejected):
			return nil, fmt.Errorf("%w: %w", ErrSessionExpired, err)
		default:
			return nil, err
		}
	}

	c.logger.Info().Str("path", path).Msg("Session refreshed, retrying request...")

	resp, err = c.send(ctx, path, opts, body, contentType, pair.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("retry request failed: %w", err)
	}
	if resp.statusCode == http.StatusUnauthorized {
		c.logger.Error().Str("path", path).Msg("Still received 401 after session refresh, giving up")
		return nil, c.expire(path, pair.AccessToken)
	}
	return resp, nil
}

// RequestJSON performs the call and decodes a non-empty result into out
func (c *Client) RequestJSON(ctx context.Context, path string, opts Options, out any) error {
	raw, err := c.Request(ctx, path, opts)
	if err != nil {
		return err
	}
	if raw == nil || out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// expire clears the session the rejected token belongs to. A session stored
// since then, e.g. by a login, is left alone.
func (c *Client) expire(path, accessToken string) error {
	cleared, err := c.session.ClearIfAccessToken(accessToken)
	switch {
	case err != nil:
		c.logger.Error().Err(err).Str("path", path).Msg("Failed to clear expired session")
	case !cleared:
		c.logger.Info().Str("path", path).Msg("Session replaced since the request was sent, keeping it")
	}
	return ErrSessionExpired
}

func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) send(ctx context.Context, path string, opts Options, body []byte, contentType, token string) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, opts.method(), c.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range opts.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if contentType != "" {
		req.Header.Set("content-type", contentType)
	}
	if req.Header.Get("accept") == "" {
		req.Header.Set("accept", "application/json")
	}
	if req.Header.Get("x-request-id") == "" {
		req.Header.Set("x-request-id", uuid.NewString())
	}
	if token != "" {
		req.Header.Set("authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", path).
		Str("request_id", req.Header.Get("x-request-id")).
		Str("authorization_preview", auth.TokenPreview(token)).
		Int("status_code", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("API request completed")

	return &response{statusCode: resp.StatusCode, status: resp.Status, body: respBody}, nil
}

func (c *Client) result(resp *response) (json.RawMessage, error) {
	if resp.statusCode < 200 || resp.statusCode > 299 {
		return nil, &RequestError{
			StatusCode: resp.statusCode,
			Message:    errorMessage(resp.body, resp.statusCode, resp.status),
		}
	}

	if resp.statusCode == http.StatusNoContent || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil, nil
	}
	// Some endpoints answer success with a non-JSON body
	if !json.Valid(resp.body) {
		c.logger.Debug().Int("status_code", resp.statusCode).Msg("Ignoring non-JSON success body")
		return nil, nil
	}
	return json.RawMessage(resp.body), nil
}
