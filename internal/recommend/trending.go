// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

package recommend

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/tunedeck/tunedeck/internal/catalog"
	"github.com/tunedeck/tunedeck/internal/config"
	"github.com/tunedeck/tunedeck/internal/metrics"
)

// TrendingStrategy falls back to catalog-wide popular content when
// personalization signal is absent. It needs no per-user input.
type TrendingStrategy struct {
	catalog catalog.Catalog
	cfg     *config.RecommendConfig
	logger  zerolog.Logger
}

// NewTrendingStrategy creates the trending fallback strategy.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrendingStrategy(cat catalog.Catalog, cfg *config.RecommendConfig, logger zerolog.Logger) *TrendingStrategy {
	return &TrendingStrategy{
		catalog: cat,
		cfg:     cfg,
		logger:  logger.With().Str("strategy", "trending").Logger(),
	}
}

// Name implements Strategy.
func (s *TrendingStrategy) Name() string { return "trending" }

// Recommend takes playable items from the catalog home feed in feed
// order. When the feed fails or yields nothing, it degrades to a fixed
// list of generic genre queries. Both paths failing yields an empty
// result, never an error.
func (s *TrendingStrategy) Recommend(ctx context.Context, _ string, limit int) []Candidate {
	if limit <= 0 {
		return []Candidate{}
	}

	if out := s.fromHomeFeed(ctx, limit); len(out) > 0 {
		return out
	}
	return s.fromGenreQueries(ctx, limit)
}

// fromHomeFeed collects playable feed items in section order.
func (s *TrendingStrategy) fromHomeFeed(ctx context.Context, limit int) []Candidate {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CatalogTimeout)
	defer cancel()

	sections, err := s.catalog.HomeFeed(callCtx)
	if err != nil {
		metrics.StrategyFailures.WithLabelValues(s.Name()).Inc()
		s.logger.Warn().Err(err).Msg("home feed unavailable, using genre fallback")
		return nil
	}

	out := make([]Candidate, 0, limit)
	seen := make(map[string]struct{}, limit)
	for _, section := range sections {
		for _, song := range section.Items {
			if song.SongID == "" {
				continue
			}
			if _, dup := seen[song.SongID]; dup {
				continue
			}
			seen[song.SongID] = struct{}{}
			out = append(out, Candidate{Song: song, Source: s.Name()})
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// fromGenreQueries is the fallback path: a bounded search per generic
// genre query, concatenated until the limit is reached or the query list
// is exhausted. Individual query failures are skipped.
func (s *TrendingStrategy) fromGenreQueries(ctx context.Context, limit int) []Candidate {
	out := make([]Candidate, 0, limit)
	seen := make(map[string]struct{}, limit)

	for _, query := range s.cfg.TrendingQueries {
		if ctx.Err() != nil {
			break
		}

		callCtx, cancel := context.WithTimeout(ctx, s.cfg.CatalogTimeout)
		songs, err := s.catalog.Search(callCtx, query, catalog.ResultTypeSongs, s.cfg.PerQueryLimit)
		cancel()
		if err != nil {
			metrics.StrategyFailures.WithLabelValues(s.Name()).Inc()
			s.logger.Warn().Str("query", query).Err(err).Msg("fallback query failed, skipping")
			continue
		}

		for _, song := range songs {
			if song.SongID == "" {
				continue
			}
			if _, dup := seen[song.SongID]; dup {
				continue
			}
			seen[song.SongID] = struct{}{}
			out = append(out, Candidate{Song: song, Source: s.Name()})
		}
		if len(out) >= limit {
			break
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
