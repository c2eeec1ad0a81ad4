// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

// Package config loads and validates Tunedeck configuration.
//
// Configuration is loaded via Koanf v2 with layered sources, highest
// priority last:
//
//  1. Built-in defaults
//  2. Config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables (TUNEDECK_ prefix, e.g. TUNEDECK_SERVER_PORT)
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the Tunedeck server.
type Config struct {
	Server    ServerConfig    `koanf:"server" json:"server"`
	Catalog   CatalogConfig   `koanf:"catalog" json:"catalog"`
	Resolver  ResolverConfig  `koanf:"resolver" json:"resolver"`
	History   HistoryConfig   `koanf:"history" json:"history"`
	Recommend RecommendConfig `koanf:"recommend" json:"recommend"`
	Snapshot  SnapshotConfig  `koanf:"snapshot" json:"snapshot"`
	Logging   LoggingConfig   `koanf:"logging" json:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host" json:"host"`
	Port            int           `koanf:"port" json:"port" validate:"gt=0,lte=65535"`
	Timeout         time.Duration `koanf:"timeout" json:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout"`
	RateLimit       int           `koanf:"rate_limit" json:"rate_limit" validate:"gte=0"`
}

// CatalogConfig configures the music catalog collaborator.
type CatalogConfig struct {
	URL     string        `koanf:"url" json:"url" validate:"required,url"`
	APIKey  string        `koanf:"api_key" json:"api_key"`
	Timeout time.Duration `koanf:"timeout" json:"timeout"`

	// Breaker settings, see catalog.NewBreakerClient.
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests" json:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio" json:"breaker_failure_ratio" validate:"gte=0,lte=1"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout" json:"breaker_timeout"`
}

// ResolverConfig configures the media-resolution collaborator.
type ResolverConfig struct {
	URL     string        `koanf:"url" json:"url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout" json:"timeout"`
}

// HistoryConfig configures the per-user listening history store.
type HistoryConfig struct {
	// Cap is the maximum number of events kept per user. Oldest events
	// are evicted first once the cap is reached.
	Cap int `koanf:"cap" json:"cap" validate:"gt=0"`
}

// RecommendConfig holds the tunable constants of the three strategies.
// The similarity threshold and neighbour count carry over from the
// behaviour this engine was tuned against; they are configuration, not
// derived values.
type RecommendConfig struct {
	DefaultLimit int `koanf:"default_limit" json:"default_limit" validate:"gt=0"`
	MaxLimit     int `koanf:"max_limit" json:"max_limit" validate:"gt=0"`

	// SimilarityThreshold discards peer users below this Jaccard overlap.
	SimilarityThreshold float64 `koanf:"similarity_threshold" json:"similarity_threshold" validate:"gte=0,lte=1"`

	// TopKUsers bounds how many similar users contribute candidates.
	TopKUsers int `koanf:"top_k_users" json:"top_k_users" validate:"gt=0"`

	// NeighborWindow bounds how many recent events are taken per neighbour.
	NeighborWindow int `koanf:"neighbor_window" json:"neighbor_window" validate:"gt=0"`

	// RecentWindow is the target user's recent-events window for the
	// content strategy.
	RecentWindow int `koanf:"recent_window" json:"recent_window" validate:"gt=0"`

	// ArtistSample bounds how many of the most recent events contribute
	// distinct artists to catalog queries.
	ArtistSample int `koanf:"artist_sample" json:"artist_sample" validate:"gt=0"`

	// PerArtistLimit is the number of candidates requested per artist query.
	PerArtistLimit int `koanf:"per_artist_limit" json:"per_artist_limit" validate:"gt=0"`

	// TrendingQueries is the fallback query list when the home feed is
	// unavailable.
	TrendingQueries []string `koanf:"trending_queries" json:"trending_queries"`

	// PerQueryLimit is the number of results per fallback query.
	PerQueryLimit int `koanf:"per_query_limit" json:"per_query_limit" validate:"gt=0"`

	// CatalogTimeout bounds each individual catalog call issued by a
	// strategy. A hanging call degrades one strategy, never the request.
	CatalogTimeout time.Duration `koanf:"catalog_timeout" json:"catalog_timeout"`
}

// SnapshotConfig configures corpus persistence at process boundaries.
type SnapshotConfig struct {
	Enabled bool   `koanf:"enabled" json:"enabled"`
	Path    string `koanf:"path" json:"path"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" json:"level"`
	Format string `koanf:"format" json:"format" validate:"oneof=json console"`
}

// Default returns a Config with all default values applied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8002,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       300, // requests per minute per IP
		},
		Catalog: CatalogConfig{
			URL:                 "http://127.0.0.1:9090",
			Timeout:             10 * time.Second,
			BreakerMinRequests:  10,
			BreakerFailureRatio: 0.6,
			BreakerTimeout:      2 * time.Minute,
		},
		Resolver: ResolverConfig{
			URL:     "http://127.0.0.1:9091",
			Timeout: 15 * time.Second,
		},
		History: HistoryConfig{
			Cap: 100,
		},
		Recommend: RecommendConfig{
			DefaultLimit:        10,
			MaxLimit:            50,
			SimilarityThreshold: 0.1,
			TopKUsers:           5,
			NeighborWindow:      10,
			RecentWindow:        10,
			ArtistSample:        3,
			PerArtistLimit:      5,
			TrendingQueries: []string{
				"pop music",
				"rock songs",
				"hip hop",
				"electronic music",
				"indie music",
			},
			PerQueryLimit:  2,
			CatalogTimeout: 5 * time.Second,
		},
		Snapshot: SnapshotConfig{
			Enabled: true,
			Path:    "/data/tunedeck",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for structural and semantic errors.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if c.Recommend.MaxLimit < c.Recommend.DefaultLimit {
		return fmt.Errorf("recommend.max_limit (%d) must be >= recommend.default_limit (%d)",
			c.Recommend.MaxLimit, c.Recommend.DefaultLimit)
	}
	if len(c.Recommend.TrendingQueries) == 0 {
		return fmt.Errorf("recommend.trending_queries must not be empty")
	}
	if c.Snapshot.Enabled && c.Snapshot.Path == "" {
		return fmt.Errorf("snapshot.path is required when snapshot.enabled is true")
	}
	return nil
}
