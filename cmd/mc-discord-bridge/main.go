// Copyright 2024-2026 Aiku AI

// Command mc-discord-bridge runs the bridge core as a standalone
// daemon: it owns the account snapshot, issues and consumes linking
// codes, and serves the admin HTTP API that game-side plugins and the
// Discord bot talk to.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mau.fi/util/exerrors"

	"github.com/aiku/mc-discord-bridge/pkg/bridge"
	"github.com/aiku/mc-discord-bridge/pkg/minecraftfmt"
)

// These are filled at build time with -ldflags.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("c", "config.yaml", "config file path")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Printf("mc-discord-bridge %s (%s, built %s)\n", Tag, Commit, BuildTime)
		return
	}

	if _, err := os.Stat(*configPath); errors.Is(err, os.ErrNotExist) {
		exerrors.PanicIfNotNil(os.WriteFile(*configPath, []byte(bridge.ExampleConfig), 0o644))
		fmt.Printf("Wrote example config to %s, edit it and restart\n", *configPath)
		return
	}

	cfg := exerrors.Must(bridge.LoadConfig(*configPath))
	log := exerrors.Must(cfg.Logging.Compile())
	log.Info().Str("version", Tag).Str("commit", Commit).Msg("Starting mc-discord-bridge")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := bridge.NewIdentityStore(cfg.Database.Path, nil, *log)
	if err := store.Load(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load account snapshot")
	}
	log.Info().Int("linked_accounts", store.LinkedCount()).Msg("Loaded account snapshot")

	var codes bridge.CodeStore
	if cfg.Linking.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Linking.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid Redis URL")
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer client.Close()
		codes = bridge.NewRedisCodeStore(client)
		log.Info().Msg("Using Redis linking code storage")
	} else {
		codes = bridge.NewMemoryCodeStore()
	}
	registry := bridge.NewCodeRegistry(codes, store, cfg.CodeTTL(), *log)

	messages, err := minecraftfmt.LoadMessages(cfg.MessagesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load message templates")
	}
	formatter := minecraftfmt.New(messages, cfg.Location(), cfg.DateTime.Use24h)

	// The chat and game surfaces are driven out of process through the
	// admin API, so the daemon itself runs without direct clients.
	core := bridge.NewBridge(cfg, store, registry, formatter, nil, nil, *log)
	api := bridge.NewAdminAPI(core, *log)

	server := &http.Server{
		Addr:         cfg.AdminAPIAddr,
		Handler:      api.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.AdminAPIAddr).Msg("Starting bridge admin API")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Bridge admin API error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Admin API shutdown error")
	}
	if err := store.Flush(); err != nil {
		log.Error().Err(err).Msg("Failed to flush account snapshot")
	}
}
