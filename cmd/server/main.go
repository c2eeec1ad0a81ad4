// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

// Package main is the entry point for the Tunedeck server application.
//
// Tunedeck is a self-hosted personal music streaming server with a
// lightweight personalization layer: per-session listening history,
// per-artist preference aggregation, and a three-strategy
// recommendation engine (content, collaborative, trending).
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from config file and environment (Koanf v2)
//  2. Snapshot Store: Open BadgerDB and restore history and playlists
//  3. Catalog Client: HTTP client to the music catalog, behind a circuit breaker
//  4. Resolver Client: HTTP client to the stream resolution service
//  5. Recommendation Engine: content, collaborative, and trending strategies
//  6. HTTP Server: REST API (Chi) with Prometheus metrics at /metrics
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (TUNEDECK_ prefix, e.g. TUNEDECK_SERVER_PORT)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete
//   - Persists history and playlist snapshots to BadgerDB
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tunedeck/tunedeck/internal/api"
	"github.com/tunedeck/tunedeck/internal/catalog"
	"github.com/tunedeck/tunedeck/internal/config"
	"github.com/tunedeck/tunedeck/internal/history"
	"github.com/tunedeck/tunedeck/internal/identity"
	"github.com/tunedeck/tunedeck/internal/logging"
	"github.com/tunedeck/tunedeck/internal/playlists"
	"github.com/tunedeck/tunedeck/internal/recommend"
	"github.com/tunedeck/tunedeck/internal/resolve"
	"github.com/tunedeck/tunedeck/internal/storage"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logger := logging.Logger()

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("starting tunedeck")

	// History corpus and playlists, restored from the snapshot store.
	corpus := history.NewCorpus(cfg.History.Cap, logger)
	lists := playlists.NewManager(logger)

	var store *storage.Store
	if cfg.Snapshot.Enabled {
		store, err = storage.Open(cfg.Snapshot.Path, logger)
		if err != nil {
			return fmt.Errorf("open snapshot store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error().Err(err).Msg("closing snapshot store")
			}
		}()

		histSnap, err := store.LoadHistory()
		if err != nil {
			return fmt.Errorf("load history snapshot: %w", err)
		}
		corpus.Restore(histSnap)

		plSnap, err := store.LoadPlaylists()
		if err != nil {
			return fmt.Errorf("load playlist snapshot: %w", err)
		}
		lists.Restore(plSnap)

		logger.Info().Int("users", len(histSnap.Logs)).Msg("snapshots restored")
	}

	// Catalog collaborator behind a circuit breaker.
	cat := catalog.NewBreakerClient(catalog.NewClient(&cfg.Catalog), &cfg.Catalog)
	res := resolve.NewClient(&cfg.Resolver)

	// Recommendation engine over the three strategies.
	engine := recommend.NewEngine(
		&cfg.Recommend,
		recommend.NewContentStrategy(corpus, cat, &cfg.Recommend, logger),
		recommend.NewCollaborativeStrategy(corpus, &cfg.Recommend, logger),
		recommend.NewTrendingStrategy(cat, &cfg.Recommend, logger),
		logger,
	)

	handler := api.NewHandler(cfg, cat, res, corpus, lists, engine)
	router := api.NewRouter(&cfg.Server, identity.NewResolver(), handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	if store != nil {
		if err := store.SaveHistory(corpus.Snapshot()); err != nil {
			logger.Error().Err(err).Msg("saving history snapshot")
		}
		if err := store.SavePlaylists(lists.Snapshot()); err != nil {
			logger.Error().Err(err).Msg("saving playlist snapshot")
		}
	}

	logger.Info().Msg("shutdown complete")
	return nil
}
