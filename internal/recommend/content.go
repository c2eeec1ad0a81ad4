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
	"github.com/tunedeck/tunedeck/internal/models"
)

// ContentStrategy recommends songs by the artists the user has listened
// to most recently. "Content similarity" here is heuristic artist
// overlap against the catalog, not embeddings.
type ContentStrategy struct {
	history HistoryProvider
	catalog catalog.Catalog
	cfg     *config.RecommendConfig
	logger  zerolog.Logger
}

// NewContentStrategy creates the content-similarity strategy.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewContentStrategy(history HistoryProvider, cat catalog.Catalog, cfg *config.RecommendConfig, logger zerolog.Logger) *ContentStrategy {
	return &ContentStrategy{
		history: history,
		catalog: cat,
		cfg:     cfg,
		logger:  logger.With().Str("strategy", "content").Logger(),
	}
}

// Name implements Strategy.
func (s *ContentStrategy) Name() string { return "content" }

// Recommend issues one artist-constrained catalog query per distinct
// artist among the user's latest plays, excluding songs already in the
// recent window. A failing query skips its artist; it never aborts the
// others. A user without history yields an empty result.
func (s *ContentStrategy) Recommend(ctx context.Context, userID string, limit int) []Candidate {
	recent := s.history.Recent(userID, s.cfg.RecentWindow)
	if len(recent) == 0 || limit <= 0 {
		return []Candidate{}
	}

	exclude := make(map[string]struct{}, len(recent))
	for _, ev := range recent {
		exclude[ev.SongID] = struct{}{}
	}

	out := make([]Candidate, 0, limit)
	for _, artist := range recentArtists(recent, s.cfg.ArtistSample) {
		if ctx.Err() != nil {
			break
		}

		songs, err := s.searchArtist(ctx, artist)
		if err != nil {
			metrics.StrategyFailures.WithLabelValues(s.Name()).Inc()
			s.logger.Warn().
				Str("artist", artist).
				Err(err).
				Msg("artist query failed, skipping")
			continue
		}

		for _, song := range songs {
			if song.SongID == "" {
				continue
			}
			if _, seen := exclude[song.SongID]; seen {
				continue
			}
			exclude[song.SongID] = struct{}{}
			out = append(out, Candidate{Song: song, Source: s.Name()})
			if len(out) >= limit {
				return out
			}
		}
	}

	return out
}

// searchArtist issues one time-bounded catalog query for an artist.
func (s *ContentStrategy) searchArtist(ctx context.Context, artist string) ([]models.Song, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CatalogTimeout)
	defer cancel()
	return s.catalog.Search(callCtx, "artist:"+artist, catalog.ResultTypeSongs, s.cfg.PerArtistLimit)
}

// recentArtists returns the distinct non-empty artists of the last
// sample events, most recent first.
func recentArtists(recent []models.ListeningEvent, sample int) []string {
	if sample > len(recent) {
		sample = len(recent)
	}

	seen := make(map[string]struct{}, sample)
	artists := make([]string, 0, sample)
	for i := len(recent) - 1; i >= len(recent)-sample; i-- {
		artist := recent[i].Artist
		if artist == "" {
			continue
		}
		if _, dup := seen[artist]; dup {
			continue
		}
		seen[artist] = struct{}{}
		artists = append(artists, artist)
	}
	return artists
}
