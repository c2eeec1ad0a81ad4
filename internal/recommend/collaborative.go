// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

package recommend

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"github.com/tunedeck/tunedeck/internal/config"
	"github.com/tunedeck/tunedeck/internal/models"
)

// CollaborativeStrategy surfaces songs from the users whose play-sets
// overlap most with the target user's.
//
// Jaccard over play-sets is cheap, symmetric, and needs no vector math,
// which fits a core with no trained model. The similarity threshold
// keeps near-zero-overlap users from injecting noise.
type CollaborativeStrategy struct {
	history HistoryProvider
	cfg     *config.RecommendConfig
	logger  zerolog.Logger
}

// NewCollaborativeStrategy creates the peer-overlap strategy.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCollaborativeStrategy(history HistoryProvider, cfg *config.RecommendConfig, logger zerolog.Logger) *CollaborativeStrategy {
	return &CollaborativeStrategy{
		history: history,
		cfg:     cfg,
		logger:  logger.With().Str("strategy", "collaborative").Logger(),
	}
}

// Name implements Strategy.
func (s *CollaborativeStrategy) Name() string { return "collaborative" }

// neighbor is a similar user with their similarity score.
type neighbor struct {
	userID     string
	similarity float64
}

// Recommend ranks every other user by Jaccard similarity of play-sets,
// keeps the top K above the threshold, and takes unseen songs from their
// most recent plays in ranked-user order. A user with an empty history,
// or a corpus with no peers, yields an empty result.
func (s *CollaborativeStrategy) Recommend(ctx context.Context, userID string, limit int) []Candidate {
	targetSet := s.history.SongSet(userID)
	if len(targetSet) == 0 || limit <= 0 {
		return []Candidate{}
	}

	neighbors := s.similarUsers(userID, targetSet)
	if len(neighbors) == 0 {
		return []Candidate{}
	}

	out := make([]Candidate, 0, limit)
	seen := make(map[string]struct{}, limit)

	for _, nb := range neighbors {
		if ctx.Err() != nil {
			break
		}

		events := s.history.Recent(nb.userID, s.cfg.NeighborWindow)
		// Most recent first within each neighbour.
		for i := len(events) - 1; i >= 0; i-- {
			ev := events[i]
			if ev.SongID == "" {
				continue
			}
			if _, own := targetSet[ev.SongID]; own {
				continue
			}
			if _, dup := seen[ev.SongID]; dup {
				continue
			}
			seen[ev.SongID] = struct{}{}
			out = append(out, Candidate{Song: eventSong(ev), Source: s.Name()})
			if len(out) >= limit {
				return out
			}
		}
	}

	return out
}

// similarUsers returns the top-K users above the similarity threshold,
// ranked by similarity descending with user ID as a deterministic
// tiebreak.
func (s *CollaborativeStrategy) similarUsers(userID string, targetSet map[string]struct{}) []neighbor {
	var neighbors []neighbor
	for _, other := range s.history.Users() {
		if other == userID {
			continue
		}
		otherSet := s.history.SongSet(other)
		if len(otherSet) == 0 {
			continue
		}
		if sim := jaccard(targetSet, otherSet); sim > s.cfg.SimilarityThreshold {
			neighbors = append(neighbors, neighbor{userID: other, similarity: sim})
		}
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].similarity != neighbors[j].similarity {
			return neighbors[i].similarity > neighbors[j].similarity
		}
		return neighbors[i].userID < neighbors[j].userID
	})

	if len(neighbors) > s.cfg.TopKUsers {
		neighbors = neighbors[:s.cfg.TopKUsers]
	}
	return neighbors
}

// jaccard computes |a ∩ b| / |a ∪ b| for two song-ID sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for id := range a {
		if _, ok := b[id]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// eventSong rebuilds song metadata from a listening event. Only the
// fields the event retains are available; the rest stay zero.
func eventSong(ev models.ListeningEvent) models.Song {
	song := models.Song{
		SongID: ev.SongID,
		Title:  ev.Title,
	}
	if ev.Artist != "" {
		song.Artists = []models.ArtistRef{{Name: ev.Artist}}
	}
	return song
}
