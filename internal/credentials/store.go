package credentials

import "fmt"

const (
	// AccessTokenKey is the storage key of the short-lived bearer token
	AccessTokenKey = "access_token"
	// RefreshTokenKey is the storage key of the token exchanged for a new pair
	RefreshTokenKey = "refresh_token"
)

// TokenStore is a synchronous key-value capability for the two session tokens.
// Get returns an empty string when the key is absent.
type TokenStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// PairStore is implemented by stores that can write or clear both tokens in
// a single operation.
type PairStore interface {
	TokenStore
	SetPair(accessToken, refreshToken string) error
	ClearPair() error
}

// ReadPair returns the stored access and refresh tokens
func ReadPair(s TokenStore) (string, string, error) {
	access, err := s.Get(AccessTokenKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to read access token: %w", err)
	}
	refresh, err := s.Get(RefreshTokenKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to read refresh token: %w", err)
	}
	return access, refresh, nil
}

// WritePair stores both tokens, in one operation when the store supports it
func WritePair(s TokenStore, accessToken, refreshToken string) error {
	if ps, ok := s.(PairStore); ok {
		return ps.SetPair(accessToken, refreshToken)
	}
	if err := s.Set(AccessTokenKey, accessToken); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	if err := s.Set(RefreshTokenKey, refreshToken); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// ClearPair removes both tokens
func ClearPair(s TokenStore) error {
	if ps, ok := s.(PairStore); ok {
		return ps.ClearPair()
	}
	// Attempt both removals even if the first one fails
	accessErr := s.Remove(AccessTokenKey)
	refreshErr := s.Remove(RefreshTokenKey)
	if accessErr != nil {
		return fmt.Errorf("failed to remove access token: %w", accessErr)
	}
	if refreshErr != nil {
		return fmt.Errorf("failed to remove refresh token: %w", refreshErr)
	}
	return nil
}
