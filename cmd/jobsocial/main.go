package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/dvcrn/jobsocial-client/internal/apiclient"
	"github.com/dvcrn/jobsocial-client/internal/app"
	"github.com/dvcrn/jobsocial-client/internal/auth"
	"github.com/dvcrn/jobsocial-client/internal/config"
	"github.com/dvcrn/jobsocial-client/internal/logger"
	"github.com/rs/zerolog"
)

const usage = `Usage: jobsocial [flags] <command> [args]

Commands:
  serve                          run the local session gateway
  login -email E -password P     sign in and store the session
  signup -email E -password P    create an account
  logout                         sign out and clear the stored session
  status                         show what is stored
  get <path>                     GET an API path
  post <path> <json>             POST a JSON body to an API path
  upload [-kind image|file] <f>  upload a file and print its URL

Flags:
`

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg := config.FromEnv()

	fs := flag.NewFlagSet("jobsocial", flag.ExitOnError)
	fs.StringVar(&cfg.APIBaseURL, "base-url", cfg.APIBaseURL, "Backend API base URL")
	fs.StringVar(&cfg.TokenStore, "store", cfg.TokenStore, "Token store: memory, fs, keychain, redis or env")
	fs.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Session file for the fs store (default $XDG_CONFIG_HOME/jobsocial/session.json)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(2)
	}

	log := logger.New(cfg.Env, cfg.LogLevel)

	stack, err := app.NewStack(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up client")
	}

	err = run(context.Background(), stack, log, args[0], args[1:])
	stack.Close()
	if err != nil {
		log.Error().Err(err).Str("command", args[0]).Msg("❌ Command failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, stack *app.Stack, log zerolog.Logger, command string, args []string) error {
	switch command {
	case "serve":
		return serve(stack, log, args)
	case "login":
		return login(ctx, stack, args)
	case "signup":
		return signup(ctx, stack, args)
	case "logout":
		return stack.Client.Logout(ctx)
	case "status":
		st, err := stack.Session.Status()
		if err != nil {
			return err
		}
		return printJSON(st)
	case "get":
		if len(args) != 1 {
			return errors.New("usage: get <path>")
		}
		raw, err := stack.Client.Request(ctx, args[0], apiclient.Options{})
		if err != nil {
			return err
		}
		return printRaw(raw)
	case "post":
		if len(args) != 2 {
			return errors.New("usage: post <path> <json>")
		}
		if !json.Valid([]byte(args[1])) {
			return fmt.Errorf("body is not valid JSON: %s", args[1])
		}
		raw, err := stack.Client.Request(ctx, args[0], apiclient.Options{
			Method: http.MethodPost,
			JSON:   json.RawMessage(args[1]),
		})
		if err != nil {
			return err
		}
		return printRaw(raw)
	case "upload":
		return upload(ctx, stack, args)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func serve(stack *app.Stack, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.String("port", stack.Config.Port, "Port to listen on")
	fs.Parse(args)

	if stack.Config.AdminAPIKey == "" {
		log.Warn().Msg("⚠️  ADMIN_API_KEY not set, admin endpoints are disabled")
	}
	validateSessionAtStartup(stack.Session, log)

	srv := app.NewServer(stack, log)

	log.Info().Str("port", *port).Str("api_base_url", stack.Config.APIBaseURL).Msg("Starting server")
	return http.ListenAndServe(":"+*port, srv)
}

func validateSessionAtStartup(session *auth.SessionManager, log zerolog.Logger) {
	st, err := session.Status()
	if err != nil {
		log.Error().Err(err).Msg("⚠️  Failed to read stored session at startup")
		return
	}

	if !st.HasAccessToken && !st.HasRefreshToken {
		log.Warn().Msg("⚠️  No session stored, log in with `jobsocial login` or POST /admin/session")
		return
	}

	if st.MinutesUntilExpiry == nil {
		log.Info().Bool("has_refresh_token", st.HasRefreshToken).Msg("✅ Session loaded")
		return
	}

	minutes := *st.MinutesUntilExpiry
	switch {
	case minutes <= 0:
		log.Warn().
			Int64("minutes_expired", -minutes).
			Msg("⚠️  Access token is already expired, will refresh on first request")
	case minutes <= 5:
		log.Warn().
			Int64("minutes_until_expiry", minutes).
			Msg("⚠️  Access token expires soon")
	default:
		log.Info().
			Int64("minutes_until_expiry", minutes).
			Msg("✅ Access token is valid")
	}
}

func login(ctx context.Context, stack *app.Stack, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", os.Getenv("JOBSOCIAL_PASSWORD"), "Account password (default $JOBSOCIAL_PASSWORD)")
	fs.Parse(args)

	if *email == "" || *password == "" {
		return errors.New("login requires -email and -password")
	}
	if err := stack.Client.Login(ctx, *email, *password); err != nil {
		return err
	}
	st, err := stack.Session.Status()
	if err != nil {
		return err
	}
	return printJSON(st)
}

func signup(ctx context.Context, stack *app.Stack, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", os.Getenv("JOBSOCIAL_PASSWORD"), "Account password (default $JOBSOCIAL_PASSWORD)")
	name := fs.String("name", "", "Full name")
	fs.Parse(args)

	if *email == "" || *password == "" {
		return errors.New("signup requires -email and -password")
	}
	raw, err := stack.Client.Signup(ctx, apiclient.SignupRequest{
		Email:    *email,
		Password: *password,
		FullName: *name,
	})
	if err != nil {
		return err
	}
	return printRaw(raw)
}

func upload(ctx context.Context, stack *app.Stack, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	kind := fs.String("kind", "file", "Upload kind: image or file")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: upload [-kind image|file] <file>")
	}
	path := fs.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var url string
	switch *kind {
	case "image":
		url, err = stack.Client.UploadImage(ctx, path, f)
	case "file":
		url, err = stack.Client.UploadFile(ctx, path, f)
	default:
		return fmt.Errorf("unknown upload kind %q", *kind)
	}
	if err != nil {
		return err
	}
	return printJSON(apiclient.UploadResponse{URL: url})
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printRaw(raw json.RawMessage) error {
	if raw == nil {
		fmt.Println("null")
		return nil
	}
	return printJSON(raw)
}
