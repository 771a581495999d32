// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/moodbox/internal/api/connect"
	"github.com/osa030/moodbox/internal/api/moodboxv1/moodboxv1connect"
	"github.com/osa030/moodbox/internal/app/preview"
	"github.com/osa030/moodbox/internal/app/session"
	"github.com/osa030/moodbox/internal/infra/audio"
	"github.com/osa030/moodbox/internal/infra/config"
	"github.com/osa030/moodbox/internal/infra/gemini"
	"github.com/osa030/moodbox/internal/infra/lastfm"
	"github.com/osa030/moodbox/internal/infra/logger"
	"github.com/osa030/moodbox/internal/infra/spotify"
)

var (
	app        = kingpin.New("moodbox-server", "moodbox playlist preview server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (overrides config)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	loggerConfig := logger.Config{Level: cfg.Log.Level, File: cfg.Log.File}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.File = *logfile
	}
	logCloser, err := logger.Init(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	zlog.Info().Msgf("Loaded config from %s", *configPath)

	// Run server (defer ensures cleanup runs on error)
	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		logCloser.Close()
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	credential, err := spotify.NewCredential(ctx, spotify.CredentialConfig{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RefreshToken: cfg.Spotify.RefreshToken,
	})
	if err != nil {
		return fmt.Errorf("failed to create Spotify credential: %w", err)
	}

	spotifyClient, err := spotify.New(ctx, credential, spotify.Config{Market: cfg.Spotify.Market})
	if err != nil {
		return fmt.Errorf("failed to create Spotify client: %w", err)
	}

	searcher, err := preview.NewSearcherFromConfig(cfg.Preview.Search, spotifyClient)
	if err != nil {
		return fmt.Errorf("failed to create preview searcher: %w", err)
	}

	deps := session.Deps{
		Catalog:  spotifyClient,
		Resolver: preview.NewResolver(searcher),
		Device: audio.NewSpeaker(audio.Config{
			SampleRate:      cfg.Audio.SampleRate,
			BufferSize:      time.Duration(cfg.Audio.BufferMs) * time.Millisecond,
			DownloadTimeout: time.Duration(cfg.Audio.DownloadTimeoutMs) * time.Millisecond,
		}),
		Credential: credential,
	}

	if cfg.Vibe.Enabled {
		summarizer, err := gemini.New(ctx, gemini.Config{
			APIKey:   cfg.Vibe.APIKey,
			Model:    cfg.Vibe.Model,
			TagCount: cfg.Vibe.SummaryTagCount,
		})
		if err != nil {
			return fmt.Errorf("failed to create Gemini client: %w", err)
		}
		deps.Summarizer = summarizer
		zlog.Info().Msgf("Vibe analysis enabled: model=%s", cfg.Vibe.Model)

		if cfg.Vibe.LastFmAPIKey != "" {
			tagger, err := lastfm.New(lastfm.Config{APIKey: cfg.Vibe.LastFmAPIKey})
			if err != nil {
				return fmt.Errorf("failed to create Last.fm client: %w", err)
			}
			deps.Tagger = tagger
			zlog.Info().Msg("Last.fm tag enrichment enabled")
		}
	}

	sessionMgr, err := session.NewManager(cfg, deps)
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}
	sessionMgr.Start()
	defer sessionMgr.Close()

	// Create HTTP mux
	mux := http.NewServeMux()
	interceptors := connect.WithInterceptors(apiconnect.NewAuthInterceptor(cfg.Server.APIToken))
	if cfg.Server.APIToken == "" {
		zlog.Warn().Msg("No API token configured, RPCs are unauthenticated")
	}

	mux.Handle(moodboxv1connect.NewLibraryServiceHandler(apiconnect.NewLibraryService(sessionMgr, cfg), interceptors))
	mux.Handle(moodboxv1connect.NewPlaybackServiceHandler(apiconnect.NewPlaybackService(sessionMgr), interceptors))

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close session manager first to terminate notification streams
	sessionMgr.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")
	return nil
}
