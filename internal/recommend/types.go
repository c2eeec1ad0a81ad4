// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

// Package recommend implements the personalization core: three
// complementary recommendation strategies blended into a single ranked
// response.
//
// The package depends on the history corpus and the catalog collaborator
// only through small interfaces, so each strategy is testable against an
// in-memory fixture. Collaborator failures never escape a strategy: a
// strategy degrades to an empty contribution and the engine keeps going.
package recommend

import (
	"context"
	"errors"

	"github.com/tunedeck/tunedeck/internal/models"
)

// Request validation errors. These are the only failures the engine ever
// surfaces to its caller.
var (
	// ErrInvalidLimit indicates a non-positive result limit.
	ErrInvalidLimit = errors.New("recommendation limit must be positive")

	// ErrUnknownMode indicates an unrecognized recommendation mode.
	ErrUnknownMode = errors.New("unknown recommendation mode")
)

// Mode selects which strategies contribute to a response.
type Mode int

const (
	// ModeMixed blends all three strategies. This is the default.
	ModeMixed Mode = iota
	// ModeContent uses only artist-overlap content similarity.
	ModeContent
	// ModeCollaborative uses only peer-history collaborative filtering.
	ModeCollaborative
	// ModeTrending uses only the catalog-wide trending feed.
	ModeTrending
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeMixed:
		return "mixed"
	case ModeContent:
		return "content"
	case ModeCollaborative:
		return "collaborative"
	case ModeTrending:
		return "trending"
	default:
		return "unknown"
	}
}

// ParseMode parses a wire mode name. The empty string selects ModeMixed.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "mixed":
		return ModeMixed, nil
	case "content":
		return ModeContent, nil
	case "collaborative":
		return ModeCollaborative, nil
	case "trending":
		return ModeTrending, nil
	default:
		return ModeMixed, ErrUnknownMode
	}
}

// Candidate is a transient recommendation produced and consumed within a
// single request. Song metadata passes through untouched; Source names
// the strategy that produced the candidate.
type Candidate struct {
	models.Song
	Source string `json:"source"`
}

// Strategy is one recommendation algorithm. Implementations absorb all
// collaborator failures internally and return whatever they could
// produce, possibly nothing; they honor ctx cancellation between
// collaborator calls.
type Strategy interface {
	// Name returns the strategy identifier used in logs and metrics.
	Name() string

	// Recommend returns up to limit candidates for the user.
	Recommend(ctx context.Context, userID string, limit int) []Candidate
}

// HistoryProvider is the read surface of the listening-history corpus
// that strategies consume.
type HistoryProvider interface {
	// Recent returns up to n most recent events, most recent last.
	Recent(userID string, n int) []models.ListeningEvent

	// SongSet returns the set of song IDs in the user's full history.
	SongSet(userID string) map[string]struct{}

	// Users returns all users with a non-empty history in a stable order.
	Users() []string
}
