// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

package recommend

import (
	"context"
	"sort"
	"time"

	"github.com/tunedeck/tunedeck/internal/config"
	"github.com/tunedeck/tunedeck/internal/models"
)

// fakeHistory is an in-memory HistoryProvider fixture.
type fakeHistory struct {
	logs map[string][]models.ListeningEvent
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{logs: make(map[string][]models.ListeningEvent)}
}

// play appends an event; insertion order is chronological order.
func (f *fakeHistory) play(userID, songID, title, artist string) {
	f.logs[userID] = append(f.logs[userID], models.ListeningEvent{
		SongID:   songID,
		Title:    title,
		Artist:   artist,
		PlayedAt: time.Date(2026, 1, 1, 0, 0, len(f.logs[userID]), 0, time.UTC),
	})
}

func (f *fakeHistory) Recent(userID string, n int) []models.ListeningEvent {
	log := f.logs[userID]
	if n > len(log) {
		n = len(log)
	}
	if n <= 0 {
		return []models.ListeningEvent{}
	}
	out := make([]models.ListeningEvent, n)
	copy(out, log[len(log)-n:])
	return out
}

func (f *fakeHistory) SongSet(userID string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, ev := range f.logs[userID] {
		set[ev.SongID] = struct{}{}
	}
	return set
}

func (f *fakeHistory) Users() []string {
	users := make([]string, 0, len(f.logs))
	for id, log := range f.logs {
		if len(log) > 0 {
			users = append(users, id)
		}
	}
	sort.Strings(users)
	return users
}

// fakeCatalog is a scriptable catalog fixture.
type fakeCatalog struct {
	searchFn func(query, resultType string, limit int) ([]models.Song, error)
	homeFn   func() ([]models.HomeSection, error)

	searchQueries []string
}

func (f *fakeCatalog) Search(ctx context.Context, query, resultType string, limit int) ([]models.Song, error) {
	f.searchQueries = append(f.searchQueries, query)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.searchFn == nil {
		return nil, nil
	}
	return f.searchFn(query, resultType, limit)
}

func (f *fakeCatalog) HomeFeed(ctx context.Context) ([]models.HomeSection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.homeFn == nil {
		return nil, nil
	}
	return f.homeFn()
}

func (f *fakeCatalog) Song(ctx context.Context, songID string) (*models.Song, error) {
	return &models.Song{SongID: songID}, nil
}

// testRecommendConfig returns the default strategy tuning for tests.
func testRecommendConfig() *config.RecommendConfig {
	cfg := config.Default().Recommend
	return &cfg
}

// catalogSong builds a song with a single artist.
func catalogSong(id, title, artist string) models.Song {
	return models.Song{
		SongID:  id,
		Title:   title,
		Artists: []models.ArtistRef{{Name: artist}},
	}
}

// candidateIDs extracts song IDs in order.
func candidateIDs(cands []Candidate) []string {
	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.SongID
	}
	return ids
}
