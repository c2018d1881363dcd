//go:build js && wasm

package credentials

import (
	"encoding/json"
	"fmt"

	"github.com/syumai/workers/cloudflare/kv"
)

const kvSessionKey = "jobsocial_session"

// CloudflareKVStore keeps the session as one JSON document in Cloudflare KV
type CloudflareKVStore struct {
	kvStore *kv.Namespace
}

// NewCloudflareKVStore opens the KV namespace bound as namespace in wrangler.toml
func NewCloudflareKVStore(namespace string) (*CloudflareKVStore, error) {
	kvStore, err := kv.NewNamespace(namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize KV namespace: %w", err)
	}
	return &CloudflareKVStore{kvStore: kvStore}, nil
}

func (c *CloudflareKVStore) Get(key string) (string, error) {
	tokens, err := c.load()
	if err != nil {
		return "", err
	}
	return tokens[key], nil
}

func (c *CloudflareKVStore) Set(key, value string) error {
	tokens, err := c.load()
	if err != nil {
		return err
	}
	tokens[key] = value
	return c.save(tokens)
}

func (c *CloudflareKVStore) Remove(key string) error {
	tokens, err := c.load()
	if err != nil {
		return err
	}
	delete(tokens, key)
	return c.save(tokens)
}

func (c *CloudflareKVStore) SetPair(accessToken, refreshToken string) error {
	tokens, err := c.load()
	if err != nil {
		return err
	}
	tokens[AccessTokenKey] = accessToken
	tokens[RefreshTokenKey] = refreshToken
	return c.save(tokens)
}

func (c *CloudflareKVStore) ClearPair() error {
	tokens, err := c.load()
	if err != nil {
		return err
	}
	delete(tokens, AccessTokenKey)
	delete(tokens, RefreshTokenKey)
	return c.save(tokens)
}

func (c *CloudflareKVStore) load() (map[string]string, error) {
	tokens := make(map[string]string)

	raw, err := c.kvStore.GetString(kvSessionKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get session from KV: %w", err)
	}
	if raw == "" {
		return tokens, nil
	}
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse session JSON: %w", err)
	}
	return tokens, nil
}

func (c *CloudflareKVStore) save(tokens map[string]string) error {
	raw, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := c.kvStore.PutString(kvSessionKey, string(raw), nil); err != nil {
		return fmt.Errorf("failed to store session in KV: %w", err)
	}
	return nil
}
