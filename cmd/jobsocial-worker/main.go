//go:build js && wasm

package main

import (
	"github.com/dvcrn/jobsocial-client/internal/app"
	"github.com/dvcrn/jobsocial-client/internal/config"
	"github.com/dvcrn/jobsocial-client/internal/credentials"
	"github.com/dvcrn/jobsocial-client/internal/logger"
	"github.com/syumai/workers"
	"github.com/syumai/workers/cloudflare"
)

const kvNamespace = "jobsocial_kv"

func main() {
	cfg := config.FromEnv()
	cfg.APIBaseURL = cloudflare.Getenv("API_BASE_URL")
	cfg.AdminAPIKey = cloudflare.Getenv("ADMIN_API_KEY")
	if env := cloudflare.Getenv("ENV"); env != "" {
		cfg.Env = env
	}

	log := logger.New(cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid worker configuration")
	}

	log.Info().Msg("📦 Using Cloudflare KV token store")
	store, err := credentials.NewCloudflareKVStore(kvNamespace)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Cloudflare KV store")
	}

	stack := app.NewStackWithStore(cfg, store, &log)

	// Serve using workers - it handles all the HTTP server setup
	workers.Serve(app.NewServer(stack, log))
}
