package credentials

import (
	"fmt"
	"os"
)

const (
	envAccessToken  = "JOBSOCIAL_ACCESS_TOKEN"
	envRefreshToken = "JOBSOCIAL_REFRESH_TOKEN"
)

// EnvStore reads tokens from environment variables. Writes only affect the
// current process, which makes it useful for seeding a session in CI.
type EnvStore struct{}

// NewEnvStore creates a new environment-based token store
func NewEnvStore() *EnvStore {
	return &EnvStore{}
}

func envName(key string) (string, error) {
	switch key {
	case AccessTokenKey:
		return envAccessToken, nil
	case RefreshTokenKey:
		return envRefreshToken, nil
	}
	return "", fmt.Errorf("environment store does not support key %q", key)
}

// Get retrieves a token from the environment
func (e *EnvStore) Get(key string) (string, error) {
	name, err := envName(key)
	if err != nil {
		return "", err
	}
	return os.Getenv(name), nil
}

// Set updates a token in the process environment
func (e *EnvStore) Set(key, value string) error {
	name, err := envName(key)
	if err != nil {
		return err
	}
	return os.Setenv(name, value)
}

// Remove unsets a token in the process environment
func (e *EnvStore) Remove(key string) error {
	name, err := envName(key)
	if err != nil {
		return err
	}
	return os.Unsetenv(name)
}
