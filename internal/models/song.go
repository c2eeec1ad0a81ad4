// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

// Package models contains the shared data types exchanged between the
// catalog collaborator, the history store, the recommendation engine,
// and the HTTP API.
package models

import "time"

// ArtistRef is a reference to an artist as returned by the catalog.
// The catalog contract only guarantees a name; ID is best-effort.
type ArtistRef struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

// Song is the catalog song metadata record. Fields beyond SongID, Title,
// Artists, Duration, and Year are passthrough: Tunedeck never interprets
// them, it only forwards them to clients.
type Song struct {
	SongID   string      `json:"song_id"`
	Title    string      `json:"title"`
	Artists  []ArtistRef `json:"artists,omitempty"`
	Album    string      `json:"album,omitempty"`
	Duration int         `json:"duration,omitempty"` // seconds
	Year     int         `json:"year,omitempty"`
	Thumb    string      `json:"thumb,omitempty"`
}

// PrimaryArtist returns the first artist name or an empty string.
// Catalog responses routinely omit the artists list for uploads and
// auto-generated content, so the empty default is part of the contract,
// not an error condition.
func (s *Song) PrimaryArtist() string {
	if len(s.Artists) == 0 {
		return ""
	}
	return s.Artists[0].Name
}

// HomeSection is one shelf of the catalog home feed.
type HomeSection struct {
	Title string `json:"title"`
	Items []Song `json:"contents"`
}

// ListeningEvent is a single completed play, immutable once recorded.
type ListeningEvent struct {
	SongID   string    `json:"song_id"`
	Title    string    `json:"title"`
	Artist   string    `json:"artist"`
	PlayedAt time.Time `json:"played_at"`
}
