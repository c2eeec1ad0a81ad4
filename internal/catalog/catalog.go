// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

// Package catalog provides access to the external music catalog service.
//
// The catalog is a collaborator, not part of the recommendation core: the
// core only depends on the Catalog interface and treats every failure as
// "no result from this source". The HTTP client and the circuit breaker
// wrapper both implement the interface so callers never know which one
// they hold.
package catalog

import (
	"context"
	"errors"

	"github.com/tunedeck/tunedeck/internal/models"
)

// ResultTypeSongs filters catalog searches to song results.
const ResultTypeSongs = "songs"

// ErrUnavailable indicates the catalog could not serve the request,
// whether through transport failure, timeout, or an open circuit.
var ErrUnavailable = errors.New("catalog unavailable")

// Catalog is the narrow interface the recommendation core consumes.
type Catalog interface {
	// Search returns song metadata matching the query, bounded by limit.
	Search(ctx context.Context, query, resultType string, limit int) ([]models.Song, error)

	// HomeFeed returns the catalog's featured home sections.
	HomeFeed(ctx context.Context) ([]models.HomeSection, error)

	// Song returns metadata for a single song ID.
	Song(ctx context.Context, songID string) (*models.Song, error)
}
