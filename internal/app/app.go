package app

import (
	"fmt"

	"github.com/dvcrn/jobsocial-client/internal/apiclient"
	"github.com/dvcrn/jobsocial-client/internal/auth"
	"github.com/dvcrn/jobsocial-client/internal/config"
	"github.com/dvcrn/jobsocial-client/internal/credentials"
	"github.com/dvcrn/jobsocial-client/internal/server"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Stack is the wired client: token store, session manager and API client
type Stack struct {
	Config  *config.Config
	Store   credentials.TokenStore
	Session *auth.SessionManager
	Client  *apiclient.Client

	closers []func() error
}

// Close releases connections held by the token store
func (s *Stack) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// OpenStore creates the token store selected by cfg.TokenStore. The returned
// close func is never nil.
func OpenStore(cfg *config.Config, logger *zerolog.Logger) (credentials.TokenStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.TokenStore {
	case config.StoreMemory:
		logger.Info().Msg("🧠 Using in-memory token store")
		return credentials.NewMemoryStore(), noop, nil
	case config.StoreFS, "":
		path := cfg.TokenFile
		if path == "" {
			path = credentials.DefaultSessionPath()
		}
		logger.Info().Str("path", path).Bool("exists", credentials.FileExists(path)).Msg("📄 Using filesystem token store")
		return credentials.NewFSStore(path), noop, nil
	case config.StoreKeychain:
		logger.Info().Msg("🔑 Using keychain token store")
		return credentials.NewKeychainStore(logger), noop, nil
	case config.StoreEnv:
		logger.Info().Msg("📝 Using environment token store")
		return credentials.NewEnvStore(), noop, nil
	case config.StoreRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		logger.Info().Str("addr", opts.Addr).Str("prefix", cfg.RedisKeyPrefix).Msg("📦 Using redis token store")
		return credentials.NewRedisStore(client, cfg.RedisKeyPrefix), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
	}
}

// NewStack wires the API client from cfg
func NewStack(cfg *config.Config, logger *zerolog.Logger) (*Stack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, closeStore, err := OpenStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewStackWithStore(cfg, store, logger, closeStore), nil
}

// NewStackWithStore wires the API client over an already opened store
func NewStackWithStore(cfg *config.Config, store credentials.TokenStore, logger *zerolog.Logger, closers ...func() error) *Stack {
	httpClient := apiclient.NewHTTPClient(cfg.HTTPTimeout)
	session := auth.NewSessionManager(store, auth.NewHTTPRefresher(cfg.APIBaseURL, httpClient), logger)

	return &Stack{
		Config:  cfg,
		Store:   store,
		Session: session,
		Client:  apiclient.New(cfg.APIBaseURL, httpClient, session, logger),
		closers: closers,
	}
}

// NewServer creates the local session gateway for the stack
func NewServer(stack *Stack, logger zerolog.Logger) *server.Server {
	return server.New(logger, stack.Client, stack.Config.AdminAPIKey)
}
