package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dvcrn/jobsocial-client/internal/credentials"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrRefreshDisabled is returned without network I/O after an unrecoverable refresh failure
	ErrRefreshDisabled = errors.New("session refresh disabled")
	// ErrNoRefreshToken means there is nothing to refresh with
	ErrNoRefreshToken = errors.New("no refresh token stored")
	// ErrRefreshRejected means the refresh token itself was refused; the session was cleared
	ErrRefreshRejected = errors.New("refresh token rejected")
	// ErrRefreshFailed marks a transient refresh failure; tokens are kept
	ErrRefreshFailed = errors.New("session refresh failed")
	// ErrIncompleteTokens means the refresh response lacked one of the two tokens
	ErrIncompleteTokens = errors.New("refresh response missing access or refresh token")
	// ErrSessionChanged means the session was signed out while a refresh was in flight
	ErrSessionChanged = errors.New("session changed during refresh")
)

const refreshFlightKey = "refresh"

// RefreshImpossible reports whether err means no refresh could be attempted at all
func RefreshImpossible(err error) bool {
	return errors.Is(err, ErrRefreshDisabled) || errors.Is(err, ErrNoRefreshToken)
}

// SessionManager owns the stored token pair and coordinates refreshes so that
// at most one refresh request is in flight at a time.
//
// Every write or clear of the pair bumps a generation counter. Callers pass
// the generation they observed to Refresh; if the session has moved on since
// then, the stored pair is returned without another network refresh.
type SessionManager struct {
	store     credentials.TokenStore
	refresher Refresher
	logger    *zerolog.Logger
	group     singleflight.Group

	mu         sync.Mutex
	generation uint64
	disabled   bool
}

// NewSessionManager creates a session manager over the given store and refresher
func NewSessionManager(store credentials.TokenStore, refresher Refresher, logger *zerolog.Logger) *SessionManager {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &SessionManager{
		store:     store,
		refresher: refresher,
		logger:    logger,
	}
}

// Snapshot returns the stored pair and the generation it belongs to
func (m *SessionManager) Snapshot() (TokenPair, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pair, err := m.readLocked()
	if err != nil {
		return TokenPair{}, 0, err
	}
	return pair, m.generation, nil
}

// SetSession stores a freshly issued pair, e.g. after login, and re-enables refresh
func (m *SessionManager) SetSession(pair TokenPair) error {
	if !pair.Complete() {
		return ErrIncompleteTokens
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := credentials.WritePair(m.store, pair.AccessToken, pair.RefreshToken); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	m.disabled = false
	m.generation++
	return nil
}

// Clear removes both tokens
func (m *SessionManager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++
	if err := credentials.ClearPair(m.store); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// ClearIfAccessToken clears the session only while accessToken is still the
// stored one. It reports whether the session was cleared.
func (m *SessionManager) ClearIfAccessToken(accessToken string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pair, err := m.readLocked()
	if err != nil {
		return false, err
	}
	if pair.AccessToken != accessToken {
		return false, nil
	}

	m.generation++
	if err := credentials.ClearPair(m.store); err != nil {
		return false, fmt.Errorf("failed to clear session: %w", err)
	}
	return true, nil
}

// Disabled reports whether refresh attempts currently short-circuit
func (m *SessionManager) Disabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disabled
}

// Refresh obtains a new token pair. Concurrent callers share one network call
// and all observe its outcome. The call runs to completion even when ctx is
// cancelled.
func (m *SessionManager) Refresh(ctx context.Context, seenGeneration uint64) (TokenPair, error) {
	m.mu.Lock()
	if m.disabled {
		m.mu.Unlock()
		m.logger.Debug().Msg("Refresh disabled, skipping")
		return TokenPair{}, ErrRefreshDisabled
	}
	pair, fresh, err := m.refreshedSinceLocked(seenGeneration)
	m.mu.Unlock()
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if fresh {
		return pair, nil
	}

	detached := context.WithoutCancel(ctx)
	v, err, shared := m.group.Do(refreshFlightKey, func() (interface{}, error) {
		return m.refresh(detached, seenGeneration)
	})
	if shared {
		m.logger.Debug().Bool("ok", err == nil).Msg("Joined in-flight session refresh")
	}
	if err != nil {
		return TokenPair{}, err
	}
	return v.(TokenPair), nil
}

// refresh runs inside the single flight
func (m *SessionManager) refresh(ctx context.Context, seenGeneration uint64) (TokenPair, error) {
	m.mu.Lock()
	if m.disabled {
		m.mu.Unlock()
		return TokenPair{}, ErrRefreshDisabled
	}
	// A previous flight may have settled between the caller's check and this one starting
	pair, fresh, err := m.refreshedSinceLocked(seenGeneration)
	if err != nil {
		m.mu.Unlock()
		return TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if fresh {
		m.mu.Unlock()
		return pair, nil
	}
	current, err := m.readLocked()
	if err != nil {
		m.mu.Unlock()
		return TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if current.RefreshToken == "" {
		m.disabled = true
		m.mu.Unlock()
		m.logger.Warn().Msg("No refresh token stored, disabling refresh until next login")
		return TokenPair{}, ErrNoRefreshToken
	}
	startGeneration := m.generation
	m.mu.Unlock()

	m.logger.Info().
		Str("refresh_token_preview", TokenPreview(current.RefreshToken)).
		Msg("🔄 Refreshing session...")

	start := time.Now()
	resp, err := m.refresher.Refresh(ctx, current.RefreshToken)
	if err != nil {
		var rejected *RejectedError
		if errors.As(err, &rejected) {
			m.mu.Lock()
			if m.generation != startGeneration {
				pair, replacedErr := m.replacedLocked(err)
				m.mu.Unlock()
				m.logger.Info().Int("status_code", rejected.StatusCode).Msg("Refresh token rejected, but the session was replaced meanwhile")
				return pair, replacedErr
			}
			clearErr := credentials.ClearPair(m.store)
			m.disabled = true
			m.generation++
			m.mu.Unlock()

			if clearErr != nil {
				m.logger.Error().Err(clearErr).Msg("❌ Failed to clear rejected session")
			}
			m.logger.Warn().
				Int("status_code", rejected.StatusCode).
				Msg("❌ Refresh token rejected, session cleared")
			return TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshRejected, err)
		}

		m.logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("❌ Session refresh failed")
		return TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	next := TokenPair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	if !next.Complete() {
		m.logger.Error().
			Bool("has_access_token", next.AccessToken != "").
			Bool("has_refresh_token", next.RefreshToken != "").
			Msg("❌ Refresh response incomplete, keeping current session")
		return TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, ErrIncompleteTokens)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// A login or sign out during the flight wins over the older session's refresh
	if m.generation != startGeneration {
		m.logger.Info().Msg("Session replaced during refresh, discarding refreshed tokens")
		return m.replacedLocked(nil)
	}

	if err := credentials.WritePair(m.store, next.AccessToken, next.RefreshToken); err != nil {
		m.logger.Error().Err(err).Msg("❌ Failed to store refreshed session")
		return TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	m.disabled = false
	m.generation++

	m.logger.Info().Dur("duration", time.Since(start)).Msg("✅ Session refreshed successfully")
	return next, nil
}

// refreshedSinceLocked returns the stored pair when another caller already
// replaced the session the caller saw
func (m *SessionManager) refreshedSinceLocked(seenGeneration uint64) (TokenPair, bool, error) {
	if m.generation == seenGeneration {
		return TokenPair{}, false, nil
	}
	pair, err := m.readLocked()
	if err != nil {
		return TokenPair{}, false, err
	}
	return pair, pair.AccessToken != "", nil
}

// replacedLocked returns the session that replaced the one being refreshed
func (m *SessionManager) replacedLocked(cause error) (TokenPair, error) {
	pair, err := m.readLocked()
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if pair.AccessToken == "" {
		if cause != nil {
			return TokenPair{}, fmt.Errorf("%w: %w: %w", ErrRefreshFailed, ErrSessionChanged, cause)
		}
		return TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, ErrSessionChanged)
	}
	return pair, nil
}

func (m *SessionManager) readLocked() (TokenPair, error) {
	access, refresh, err := credentials.ReadPair(m.store)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Status describes the current session
type Status struct {
	HasAccessToken       bool       `json:"hasAccessToken"`
	HasRefreshToken      bool       `json:"hasRefreshToken"`
	RefreshDisabled      bool       `json:"refreshDisabled"`
	AccessTokenExpiresAt *time.Time `json:"accessTokenExpiresAt,omitempty"`
	MinutesUntilExpiry   *int64     `json:"minutesUntilExpiry,omitempty"`
	IsExpired            bool       `json:"isExpired"`
}

// Status reports what is stored. Expiry is only known for JWT access tokens.
func (m *SessionManager) Status() (Status, error) {
	m.mu.Lock()
	pair, err := m.readLocked()
	disabled := m.disabled
	m.mu.Unlock()
	if err != nil {
		return Status{}, err
	}

	st := Status{
		HasAccessToken:  pair.AccessToken != "",
		HasRefreshToken: pair.RefreshToken != "",
		RefreshDisabled: disabled,
	}
	if exp, ok := AccessTokenExpiry(pair.AccessToken); ok {
		minutes := int64(time.Until(exp) / time.Minute)
		st.AccessTokenExpiresAt = &exp
		st.MinutesUntilExpiry = &minutes
		st.IsExpired = !time.Now().Before(exp)
	}
	return st, nil
}
