// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

// Package history owns the per-user listening logs and the artist
// preference tables derived from them.
//
// The corpus is the single shared mutable structure in the recommendation
// core: recommendation strategies scan it while play events append to it.
// One RWMutex guards the whole corpus; every append is atomic with respect
// to readers, and per-user logs are independent so no finer locking is
// needed at this scale.
package history

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tunedeck/tunedeck/internal/models"
)

// DefaultCap is the per-user event cap used when none is configured.
const DefaultCap = 100

// Corpus is the collection of per-user listening logs. It is safe for
// concurrent use.
type Corpus struct {
	mu     sync.RWMutex
	cap    int
	logs   map[string][]models.ListeningEvent
	prefs  map[string]map[string]int
	logger zerolog.Logger

	// now is a seam for deterministic timestamps in tests.
	now func() time.Time

	// prefUpdate applies one artist observation to the preference table.
	// Replaceable in tests to exercise the failure-isolation contract.
	prefUpdate func(userID, artist string)
}

// NewCorpus creates an empty corpus with the given per-user event cap.
// A non-positive cap falls back to DefaultCap.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCorpus(eventCap int, logger zerolog.Logger) *Corpus {
	if eventCap <= 0 {
		eventCap = DefaultCap
	}

	c := &Corpus{
		cap:    eventCap,
		logs:   make(map[string][]models.ListeningEvent),
		prefs:  make(map[string]map[string]int),
		logger: logger.With().Str("component", "history").Logger(),
		now:    time.Now,
	}
	c.prefUpdate = c.incrementPreference
	return c
}

// Record appends a listening event built from song metadata, stamped with
// the current time. The artist field falls back to an empty string when
// the metadata carries no artist list. Recording never fails: a failing
// preference-table update is swallowed and logged, because losing the
// event over a secondary enrichment would invert the priorities.
func (c *Corpus) Record(userID string, song models.Song) {
	artist := song.PrimaryArtist()
	ev := models.ListeningEvent{
		SongID:   song.SongID,
		Title:    song.Title,
		Artist:   artist,
		PlayedAt: c.now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	log := append(c.logs[userID], ev)
	var evicted []models.ListeningEvent
	if len(log) > c.cap {
		evicted = log[:len(log)-c.cap]
		log = log[len(log)-c.cap:]
	}
	c.logs[userID] = log

	c.updatePreferences(userID, artist, evicted)
}

// updatePreferences applies the artist observation and reverses the
// observations of any evicted events, so the table always matches the
// artist frequencies of the live log. Panics are absorbed so a
// bookkeeping failure never loses the recorded event.
// Must be called with mu held.
func (c *Corpus) updatePreferences(userID, artist string, evicted []models.ListeningEvent) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn().
				Str("user_id", userID).
				Interface("panic", r).
				Msg("preference table update failed")
		}
	}()

	for _, ev := range evicted {
		c.decrementPreference(userID, ev.Artist)
	}

	if artist == "" {
		return
	}
	c.prefUpdate(userID, artist)
}

// incrementPreference is the default preference update.
// Must be called with mu held.
func (c *Corpus) incrementPreference(userID, artist string) {
	table := c.prefs[userID]
	if table == nil {
		table = make(map[string]int)
		c.prefs[userID] = table
	}
	table[artist]++
}

// decrementPreference reverses one artist observation, dropping entries
// that reach zero so the table never reports artists absent from the log.
// Must be called with mu held.
func (c *Corpus) decrementPreference(userID, artist string) {
	if artist == "" {
		return
	}
	table := c.prefs[userID]
	if table == nil {
		return
	}
	if table[artist] <= 1 {
		delete(table, artist)
	} else {
		table[artist]--
	}
	if len(table) == 0 {
		delete(c.prefs, userID)
	}
}

// Recent returns up to n of the user's most recent events in chronological
// order (most recent last). Unknown users yield an empty slice.
func (c *Corpus) Recent(userID string, n int) []models.ListeningEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()

	log := c.logs[userID]
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

// Len returns the number of events recorded for the user.
func (c *Corpus) Len(userID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.logs[userID])
}

// SongSet returns the set of song IDs in the user's full history.
func (c *Corpus) SongSet(userID string) map[string]struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	set := make(map[string]struct{}, len(c.logs[userID]))
	for _, ev := range c.logs[userID] {
		set[ev.SongID] = struct{}{}
	}
	return set
}

// Users returns the IDs of all users with a non-empty history, sorted so
// scans over the corpus are reproducible for a fixed snapshot.
func (c *Corpus) Users() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	users := make([]string, 0, len(c.logs))
	for id, log := range c.logs {
		if len(log) > 0 {
			users = append(users, id)
		}
	}
	sort.Strings(users)
	return users
}

// Preferences returns a copy of the user's artist frequency table. The
// table is derived signal only; it is maintained for future ranking use
// and is always consistent with the artists appearing in the log.
func (c *Corpus) Preferences(userID string) map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]int, len(c.prefs[userID]))
	for artist, n := range c.prefs[userID] {
		out[artist] = n
	}
	return out
}

// Snapshot is a point-in-time copy of the corpus suitable for persistence.
// Preference tables are not part of the snapshot: the logs are the source
// of truth and the tables are rebuilt on Restore.
type Snapshot struct {
	Logs map[string][]models.ListeningEvent `json:"logs"`
}

// Snapshot returns a deep copy of all per-user logs.
func (c *Corpus) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	logs := make(map[string][]models.ListeningEvent, len(c.logs))
	for id, log := range c.logs {
		cp := make([]models.ListeningEvent, len(log))
		copy(cp, log)
		logs[id] = cp
	}
	return Snapshot{Logs: logs}
}

// Restore replaces the corpus contents with the snapshot, re-enforcing the
// cap and rebuilding the preference tables from the logs.
func (c *Corpus) Restore(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logs = make(map[string][]models.ListeningEvent, len(snap.Logs))
	c.prefs = make(map[string]map[string]int, len(snap.Logs))

	for id, log := range snap.Logs {
		if len(log) > c.cap {
			log = log[len(log)-c.cap:]
		}
		cp := make([]models.ListeningEvent, len(log))
		copy(cp, log)
		c.logs[id] = cp

		for _, ev := range cp {
			if ev.Artist != "" {
				c.incrementPreference(id, ev.Artist)
			}
		}
	}
}
