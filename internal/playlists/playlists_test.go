// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

package playlists

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/tunedeck/tunedeck/internal/models"
)

func testManager() *Manager {
	m := NewManager(zerolog.Nop())
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	m.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return m
}

func song(id, title string) models.Song {
	return models.Song{SongID: id, Title: title}
}

func TestCreateAndList(t *testing.T) {
	m := testManager()

	first, err := m.Create("u", "Morning")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if first.ID == "" || first.Name != "Morning" {
		t.Errorf("Create() = %+v, want named playlist with ID", first)
	}

	if _, err := m.Create("u", "Evening"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got := m.List("u")
	if len(got) != 2 {
		t.Fatalf("List() returned %d playlists, want 2", len(got))
	}
	if got[0].Name != "Morning" || got[1].Name != "Evening" {
		t.Errorf("List() order = [%s %s], want creation order", got[0].Name, got[1].Name)
	}
}

func TestCreateValidation(t *testing.T) {
	m := testManager()
	if _, err := m.Create("u", ""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Create(empty) err = %v, want ErrEmptyName", err)
	}

	if _, err := m.Create("u", "Gym"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := m.Create("u", "Gym"); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("Create(dup) err = %v, want ErrDuplicateName", err)
	}

	// Same name for another user is fine.
	if _, err := m.Create("other", "Gym"); err != nil {
		t.Errorf("Create() for other user error = %v", err)
	}
}

func TestListIsolatedPerUser(t *testing.T) {
	m := testManager()
	if _, err := m.Create("alice", "Jazz"); err != nil {
		t.Fatal(err)
	}

	if got := m.List("bob"); len(got) != 0 {
		t.Errorf("List(bob) = %v, want empty", got)
	}
}

func TestAddRemoveSongs(t *testing.T) {
	m := testManager()
	pl, err := m.Create("u", "Mix")
	if err != nil {
		t.Fatal(err)
	}

	if err := m.AddSong("u", pl.ID, song("a", "A")); err != nil {
		t.Fatalf("AddSong() error = %v", err)
	}
	if err := m.AddSong("u", pl.ID, song("b", "B")); err != nil {
		t.Fatalf("AddSong() error = %v", err)
	}
	if err := m.AddSong("u", pl.ID, song("a", "A")); !errors.Is(err, ErrDuplicateSong) {
		t.Errorf("AddSong(dup) err = %v, want ErrDuplicateSong", err)
	}

	songs, err := m.Songs("u", pl.ID)
	if err != nil {
		t.Fatalf("Songs() error = %v", err)
	}
	// Most recently added first.
	if len(songs) != 2 || songs[0].SongID != "b" || songs[1].SongID != "a" {
		t.Errorf("Songs() = %+v, want [b a]", songs)
	}

	if err := m.RemoveSong("u", pl.ID, "a"); err != nil {
		t.Fatalf("RemoveSong() error = %v", err)
	}
	if err := m.RemoveSong("u", pl.ID, "a"); !errors.Is(err, ErrSongNotFound) {
		t.Errorf("RemoveSong(gone) err = %v, want ErrSongNotFound", err)
	}

	songs, _ = m.Songs("u", pl.ID)
	if len(songs) != 1 || songs[0].SongID != "b" {
		t.Errorf("Songs() = %+v, want [b]", songs)
	}
}

func TestUnknownPlaylist(t *testing.T) {
	m := testManager()

	if err := m.AddSong("u", "nope", song("a", "A")); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddSong() err = %v, want ErrNotFound", err)
	}
	if err := m.RemoveSong("u", "nope", "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveSong() err = %v, want ErrNotFound", err)
	}
	if _, err := m.Songs("u", "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Songs() err = %v, want ErrNotFound", err)
	}
	if _, err := m.Get("u", "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() err = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	m := testManager()
	pl, err := m.Create("u", "Temp")
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Delete("u", pl.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := m.Delete("u", pl.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(gone) err = %v, want ErrNotFound", err)
	}
	if got := m.List("u"); len(got) != 0 {
		t.Errorf("List() = %v, want empty after delete", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := testManager()
	pl, err := m.Create("u", "Keep")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.AddSong("u", pl.ID, song("a", "A")); err != nil {
		t.Fatal(err)
	}

	snap := m.Snapshot()

	restored := testManager()
	restored.Restore(snap)

	got := restored.List("u")
	if len(got) != 1 || got[0].ID != pl.ID || got[0].Name != "Keep" {
		t.Fatalf("List() after restore = %+v, want the snapshotted playlist", got)
	}
	songs, err := restored.Songs("u", pl.ID)
	if err != nil || len(songs) != 1 || songs[0].SongID != "a" {
		t.Errorf("Songs() after restore = %+v (err %v), want [a]", songs, err)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	m := testManager()
	pl, err := m.Create("u", "Keep")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.AddSong("u", pl.ID, song("a", "A")); err != nil {
		t.Fatal(err)
	}

	snap := m.Snapshot()
	snap.Users["u"][0].Entries[0].SongID = "mutated"

	songs, _ := m.Songs("u", pl.ID)
	if songs[0].SongID != "a" {
		t.Error("mutating a snapshot leaked into the manager")
	}
}
