package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort        = "9879"
	defaultHTTPTimeout = 60 * time.Second
	defaultTokenStore  = StoreFS
	defaultRedisPrefix = "jobsocial:session"
)

// Token store kinds
const (
	StoreMemory   = "memory"
	StoreFS       = "fs"
	StoreKeychain = "keychain"
	StoreRedis    = "redis"
	StoreEnv      = "env"
)

// ErrMissingBaseURL is returned by Validate when no API base URL is configured
var ErrMissingBaseURL = errors.New("API_BASE_URL is not set")

type Config struct {
	APIBaseURL     string
	Env            string
	LogLevel       string
	TokenStore     string
	TokenFile      string
	RedisURL       string
	RedisKeyPrefix string
	HTTPTimeout    time.Duration
	Port           string
	AdminAPIKey    string
}

// LoadDotEnv loads variables from the given .env files. Missing files are
// ignored; variables already set in the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// FromEnv builds a Config from environment variables, applying defaults
func FromEnv() *Config {
	return &Config{
		APIBaseURL:     strings.TrimRight(os.Getenv("API_BASE_URL"), "/"),
		Env:            os.Getenv("ENV"),
		LogLevel:       getOrDefault("LOG_LEVEL", "info"),
		TokenStore:     strings.ToLower(getOrDefault("TOKEN_STORE", defaultTokenStore)),
		TokenFile:      os.Getenv("TOKEN_FILE"),
		RedisURL:       getOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		RedisKeyPrefix: getOrDefault("REDIS_KEY_PREFIX", defaultRedisPrefix),
		HTTPTimeout:    parseDurationOrDefault("HTTP_TIMEOUT", defaultHTTPTimeout),
		Port:           getOrDefault("PORT", defaultPort),
		AdminAPIKey:    os.Getenv("ADMIN_API_KEY"),
	}
}

// Validate checks the settings every network command needs
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return ErrMissingBaseURL
	}
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("API_BASE_URL must be an http(s) URL, got %q", c.APIBaseURL)
	}
	switch c.TokenStore {
	case StoreMemory, StoreFS, StoreKeychain, StoreRedis, StoreEnv:
	default:
		return fmt.Errorf("unknown TOKEN_STORE %q", c.TokenStore)
	}
	return nil
}

func getOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func parseDurationOrDefault(varName string, def time.Duration) time.Duration {
	if v := os.Getenv(varName); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
