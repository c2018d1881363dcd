package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dvcrn/jobsocial-client/internal/auth"
)

const (
	LoginPath  = "/auth/login"
	SignupPath = "/auth/signup"
	LogoutPath = "/auth/logout"
)

// ErrIncompleteLogin means the login response did not carry both tokens
var ErrIncompleteLogin = errors.New("login response missing access or refresh token")

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// Login exchanges credentials for a session and stores it
func (c *Client) Login(ctx context.Context, email, password string) error {
	var pair auth.TokenPair
	err := c.RequestJSON(ctx, LoginPath, Options{
		Method:   http.MethodPost,
		JSON:     LoginRequest{Email: email, Password: password},
		SkipAuth: true,
	}, &pair)
	if err != nil {
		return err
	}
	if !pair.Complete() {
		return ErrIncompleteLogin
	}

	if err := c.session.SetSession(pair); err != nil {
		return err
	}
	c.logger.Info().Str("email", email).Msg("✅ Logged in")
	return nil
}

// Signup creates an account. When the backend answers with a token pair the
// new session is stored right away.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (json.RawMessage, error) {
	raw, err := c.Request(ctx, SignupPath, Options{
		Method:   http.MethodPost,
		JSON:     req,
		SkipAuth: true,
	})
	if err != nil {
		return nil, err
	}

	var pair auth.TokenPair
	if raw != nil && json.Unmarshal(raw, &pair) == nil && pair.Complete() {
		if err := c.session.SetSession(pair); err != nil {
			return nil, err
		}
		c.logger.Info().Str("email", req.Email).Msg("✅ Signed up and logged in")
	}
	return raw, nil
}

// Logout tells the backend the session is over, then clears it locally. The
// local session is cleared even if the backend call fails.
func (c *Client) Logout(ctx context.Context) error {
	pair, _, err := c.session.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	if pair.AccessToken != "" {
		resp, err := c.send(ctx, LogoutPath, Options{Method: http.MethodPost}, nil, "", pair.AccessToken)
		switch {
		case err != nil:
			c.logger.Warn().Err(err).Msg("Backend logout failed, clearing local session anyway")
		case resp.statusCode < 200 || resp.statusCode > 299:
			c.logger.Warn().Int("status_code", resp.statusCode).Msg("Backend logout rejected, clearing local session anyway")
		}
	}

	if err := c.session.Clear(); err != nil {
		return err
	}
	c.logger.Info().Msg("👋 Logged out")
	return nil
}
