package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

type fsSession struct {
	Tokens map[string]string `json:"tokens"`
}

// FSStore persists tokens in a JSON file
type FSStore struct {
	Path string
	mu   sync.Mutex
}

func NewFSStore(path string) *FSStore {
	return &FSStore{Path: path}
}

func (f *FSStore) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.read()
	if err != nil {
		return "", err
	}
	return s.Tokens[key], nil
}

func (f *FSStore) Set(key, value string) error {
	return f.update(func(tokens map[string]string) {
		tokens[key] = value
	})
}

func (f *FSStore) Remove(key string) error {
	return f.update(func(tokens map[string]string) {
		delete(tokens, key)
	})
}

// SetPair writes both tokens with a single file write
func (f *FSStore) SetPair(accessToken, refreshToken string) error {
	return f.update(func(tokens map[string]string) {
		tokens[AccessTokenKey] = accessToken
		tokens[RefreshTokenKey] = refreshToken
	})
}

// ClearPair removes both tokens with a single file write
func (f *FSStore) ClearPair() error {
	return f.update(func(tokens map[string]string) {
		delete(tokens, AccessTokenKey)
		delete(tokens, RefreshTokenKey)
	})
}

func (f *FSStore) update(mutate func(map[string]string)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.read()
	if err != nil {
		return err
	}
	mutate(s.Tokens)
	return f.write(s)
}

// read treats a missing file as an empty session
func (f *FSStore) read() (*fsSession, error) {
	s := &fsSession{Tokens: make(map[string]string)}

	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if err := json.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	if s.Tokens == nil {
		s.Tokens = make(map[string]string)
	}
	return s, nil
}

func (f *FSStore) write(s *fsSession) error {
	if err := EnsureParentDir(f.Path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// Write to a sibling file and rename so readers never see a partial file
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}
