package auth

// TokenPair is the session credential pair. An empty string means absent.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Complete reports whether both tokens are present
func (p TokenPair) Complete() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// TokenRefreshRequest represents the refresh endpoint request body
type TokenRefreshRequest struct {
	Token string `json:"token"`
}

// TokenRefreshResponse represents the refresh endpoint response body
type TokenRefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
