// Package main is the entry point for the community platform server.
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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/moddi-tech/community/internal/config"
	"github.com/moddi-tech/community/internal/domain"
	"github.com/moddi-tech/community/internal/handler"
	"github.com/moddi-tech/community/internal/kvstore/factory"
	"github.com/moddi-tech/community/internal/metrics"
	"github.com/moddi-tech/community/internal/store"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if cfg.Logging.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	log.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("storage_backend", cfg.Storage.Backend).
		Msg("Starting community server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := factory.Open(ctx, cfg.Storage, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage backend")
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close storage backend")
		}
	}()

	m := metrics.New()

	var accountOpts []store.AccountOption
	accountOpts = append(accountOpts, store.WithAccountMetrics(m))
	if !cfg.Seed.Enabled {
		accountOpts = append(accountOpts, store.WithoutSeed())
	}
	accounts := store.NewAccountStore(ctx, kv, log.Logger, accountOpts...)

	feeds := make(map[domain.Category]*store.FeedStore, len(domain.Categories))
	for _, category := range domain.Categories {
		feedOpts := []store.FeedOption{store.WithFeedMetrics(m)}
		if !cfg.Seed.Enabled {
			feedOpts = append(feedOpts, store.WithoutSeedPosts())
		}
		feed, err := store.NewFeedStore(ctx, kv, category, accounts, log.Logger, feedOpts...)
		if err != nil {
			log.Fatal().Err(err).Str("category", string(category)).Msg("Failed to open feed")
		}
		feeds[category] = feed
	}

	apiServer := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: handler.NewRouter(handler.RouterConfig{
			Accounts: accounts,
			Feeds:    feeds,
			Logger:   log.Logger,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", apiServer.Addr).Msg("API server listening")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("API server failed")
		}
	}()

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, m.Handler())
		metricsServer = &http.Server{Addr: fmt.Sprintf(":%d", cfg.Metrics.Port), Handler: mux}
		go func() {
			log.Info().Str("addr", metricsServer.Addr).Msg("Metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("API server shutdown failed")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}

	log.Info().Msg("Shutdown complete")
}
