package credentials

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const (
	keychainService = "jobsocial-session"
	keychainAccount = "jobsocial"
)

// CommandRunner runs the macOS security tool and returns its stdout
type CommandRunner func(args ...string) ([]byte, error)

func runSecurity(args ...string) ([]byte, error) {
	return exec.Command("security", args...).Output()
}

// KeychainStore keeps the session as a JSON blob in a macOS keychain generic password
type KeychainStore struct {
	mu     sync.Mutex
	run    CommandRunner
	logger *zerolog.Logger
}

// NewKeychainStore creates a keychain-backed token store
func NewKeychainStore(logger *zerolog.Logger) *KeychainStore {
	return NewKeychainStoreWithRunner(runSecurity, logger)
}

// NewKeychainStoreWithRunner creates a keychain store that shells out through run
func NewKeychainStoreWithRunner(run CommandRunner, logger *zerolog.Logger) *KeychainStore {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &KeychainStore{run: run, logger: logger}
}

func (k *KeychainStore) Get(key string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	tokens, err := k.load()
	if err != nil {
		return "", err
	}
	return tokens[key], nil
}

func (k *KeychainStore) Set(key, value string) error {
	return k.update(func(tokens map[string]string) {
		tokens[key] = value
	})
}

func (k *KeychainStore) Remove(key string) error {
	return k.update(func(tokens map[string]string) {
		delete(tokens, key)
	})
}

func (k *KeychainStore) SetPair(accessToken, refreshToken string) error {
	return k.update(func(tokens map[string]string) {
		tokens[AccessTokenKey] = accessToken
		tokens[RefreshTokenKey] = refreshToken
	})
}

func (k *KeychainStore) ClearPair() error {
	return k.update(func(tokens map[string]string) {
		delete(tokens, AccessTokenKey)
		delete(tokens, RefreshTokenKey)
	})
}

func (k *KeychainStore) update(mutate func(map[string]string)) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	tokens, err := k.load()
	if err != nil {
		return err
	}
	mutate(tokens)
	return k.save(tokens)
}

// load returns an empty map when no keychain item exists yet
func (k *KeychainStore) load() (map[string]string, error) {
	tokens := make(map[string]string)

	output, err := k.run("find-generic-password", "-s", keychainService, "-w")
	if err != nil {
		k.logger.Debug().Err(err).Msg("No session found in keychain")
		return tokens, nil
	}

	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" {
		return tokens, nil
	}
	if err := json.Unmarshal([]byte(trimmed), &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse JSON from keychain: %w", err)
	}
	return tokens, nil
}

func (k *KeychainStore) save(tokens map[string]string) error {
	updatedJSON, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// -U updates the item in place when it already exists
	if _, err := k.run("add-generic-password", "-s", keychainService, "-a", keychainAccount, "-w", string(updatedJSON), "-U"); err != nil {
		return fmt.Errorf("failed to update keychain: %w", err)
	}
	return nil
}
