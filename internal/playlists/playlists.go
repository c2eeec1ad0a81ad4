// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

// Package playlists manages per-user named playlists. Playlists are kept
// in memory and persisted through snapshots at process boundaries, the
// same lifecycle the listening-history corpus uses.
package playlists

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tunedeck/tunedeck/internal/models"
)

var (
	// ErrNotFound indicates the playlist does not exist for the user.
	ErrNotFound = errors.New("playlist not found")

	// ErrDuplicateName indicates the user already has a playlist with
	// that name.
	ErrDuplicateName = errors.New("playlist name already in use")

	// ErrEmptyName indicates a blank playlist name.
	ErrEmptyName = errors.New("playlist name must not be empty")

	// ErrDuplicateSong indicates the song is already on the playlist.
	ErrDuplicateSong = errors.New("song already on playlist")

	// ErrSongNotFound indicates the song is not on the playlist.
	ErrSongNotFound = errors.New("song not on playlist")
)

// Entry is a song on a playlist together with when it was added.
type Entry struct {
	models.Song
	AddedAt time.Time `json:"added_at"`
}

// Playlist is a named, ordered collection of songs owned by one user.
type Playlist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Entries   []Entry   `json:"entries"`
}

// Manager holds every user's playlists behind a single lock. Playlist
// mutations are rare compared to reads, so one RWMutex is enough.
type Manager struct {
	mu     sync.RWMutex
	byUser map[string]map[string]*Playlist // userID -> playlistID -> playlist
	logger zerolog.Logger

	now func() time.Time
}

// NewManager creates an empty playlist manager.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{
		byUser: make(map[string]map[string]*Playlist),
		logger: logger.With().Str("component", "playlists").Logger(),
		now:    time.Now,
	}
}

// Create adds a new empty playlist for the user. Names are unique per
// user.
func (m *Manager) Create(userID, name string) (Playlist, error) {
	if name == "" {
		return Playlist{}, ErrEmptyName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	lists := m.byUser[userID]
	if lists == nil {
		lists = make(map[string]*Playlist)
		m.byUser[userID] = lists
	}
	for _, pl := range lists {
		if pl.Name == name {
			return Playlist{}, ErrDuplicateName
		}
	}

	pl := &Playlist{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: m.now(),
		Entries:   []Entry{},
	}
	lists[pl.ID] = pl

	m.logger.Debug().Str("user_id", userID).Str("playlist_id", pl.ID).Str("name", name).Msg("playlist created")
	return clonePlaylist(pl), nil
}

// List returns the user's playlists ordered by creation time, oldest
// first, with playlist ID as tiebreak.
func (m *Manager) List(userID string) []Playlist {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lists := m.byUser[userID]
	out := make([]Playlist, 0, len(lists))
	for _, pl := range lists {
		out = append(out, clonePlaylist(pl))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Get returns one playlist by ID.
func (m *Manager) Get(userID, playlistID string) (Playlist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pl := m.byUser[userID][playlistID]
	if pl == nil {
		return Playlist{}, ErrNotFound
	}
	return clonePlaylist(pl), nil
}

// Delete removes a playlist.
func (m *Manager) Delete(userID, playlistID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lists := m.byUser[userID]
	if _, ok := lists[playlistID]; !ok {
		return ErrNotFound
	}
	delete(lists, playlistID)
	return nil
}

// AddSong appends a song to the playlist. Each song appears at most once
// per playlist.
func (m *Manager) AddSong(userID, playlistID string, song models.Song) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pl := m.byUser[userID][playlistID]
	if pl == nil {
		return ErrNotFound
	}
	for _, e := range pl.Entries {
		if e.SongID == song.SongID {
			return ErrDuplicateSong
		}
	}

	pl.Entries = append(pl.Entries, Entry{Song: song, AddedAt: m.now()})
	return nil
}

// RemoveSong removes a song from the playlist.
func (m *Manager) RemoveSong(userID, playlistID, songID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pl := m.byUser[userID][playlistID]
	if pl == nil {
		return ErrNotFound
	}
	for i, e := range pl.Entries {
		if e.SongID == songID {
			pl.Entries = append(pl.Entries[:i], pl.Entries[i+1:]...)
			return nil
		}
	}
	return ErrSongNotFound
}

// Songs returns the playlist's entries, most recently added first.
func (m *Manager) Songs(userID, playlistID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pl := m.byUser[userID][playlistID]
	if pl == nil {
		return nil, ErrNotFound
	}

	out := make([]Entry, len(pl.Entries))
	copy(out, pl.Entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AddedAt.After(out[j].AddedAt)
	})
	return out, nil
}

// Snapshot is a point-in-time copy of every user's playlists.
type Snapshot struct {
	Users map[string][]Playlist `json:"users"`
}

// Snapshot returns a deep copy of all playlists for persistence.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make(map[string][]Playlist, len(m.byUser))
	for userID, lists := range m.byUser {
		if len(lists) == 0 {
			continue
		}
		cp := make([]Playlist, 0, len(lists))
		for _, pl := range lists {
			cp = append(cp, clonePlaylist(pl))
		}
		sort.Slice(cp, func(i, j int) bool { return cp[i].ID < cp[j].ID })
		users[userID] = cp
	}
	return Snapshot{Users: users}
}

// Restore replaces the manager contents with the snapshot.
func (m *Manager) Restore(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byUser = make(map[string]map[string]*Playlist, len(snap.Users))
	for userID, lists := range snap.Users {
		byID := make(map[string]*Playlist, len(lists))
		for i := range lists {
			pl := clonePlaylist(&lists[i])
			byID[pl.ID] = &pl
		}
		m.byUser[userID] = byID
	}
}

func clonePlaylist(pl *Playlist) Playlist {
	cp := *pl
	cp.Entries = make([]Entry, len(pl.Entries))
	copy(cp.Entries, pl.Entries)
	return cp
}
