// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

// Package storage persists corpus and playlist snapshots in BadgerDB.
// The store is written at process boundaries only: a full load at start
// and a full save at shutdown. In between, the in-memory structures are
// the source of truth.
package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tunedeck/tunedeck/internal/history"
	"github.com/tunedeck/tunedeck/internal/metrics"
	"github.com/tunedeck/tunedeck/internal/models"
	"github.com/tunedeck/tunedeck/internal/playlists"
)

// Key prefixes for BadgerDB storage
const (
	historyKeyPrefix  = "history:"
	playlistKeyPrefix = "playlists:"
)

// Store is a BadgerDB-backed snapshot store.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger
}

// Open opens (or creates) the store at path.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(path string, logger zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Badger's own logger is too chatty

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.With().Str("component", "storage").Logger(),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveHistory persists the corpus snapshot, one key per user. Users no
// longer present in the snapshot are removed.
func (s *Store) SaveHistory(snap history.Snapshot) error {
	err := s.replacePrefix(historyKeyPrefix, func(txn *badger.Txn) error {
		for userID, log := range snap.Logs {
			data, err := json.Marshal(log)
			if err != nil {
				return fmt.Errorf("marshal history for %s: %w", userID, err)
			}
			if err := txn.Set([]byte(historyKeyPrefix+userID), data); err != nil {
				return fmt.Errorf("set history for %s: %w", userID, err)
			}
		}
		return nil
	})

	if err != nil {
		metrics.SnapshotOps.WithLabelValues("save_history", "error").Inc()
		return err
	}
	metrics.SnapshotOps.WithLabelValues("save_history", "success").Inc()
	s.logger.Info().Int("users", len(snap.Logs)).Msg("history snapshot saved")
	return nil
}

// LoadHistory reads the persisted corpus snapshot. A fresh store yields
// an empty snapshot, not an error.
func (s *Store) LoadHistory() (history.Snapshot, error) {
	snap := history.Snapshot{Logs: make(map[string][]models.ListeningEvent)}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(historyKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			userID := strings.TrimPrefix(string(item.Key()), historyKeyPrefix)

			err := item.Value(func(val []byte) error {
				var log []models.ListeningEvent
				if err := json.Unmarshal(val, &log); err != nil {
					return fmt.Errorf("unmarshal history for %s: %w", userID, err)
				}
				snap.Logs[userID] = log
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		metrics.SnapshotOps.WithLabelValues("load_history", "error").Inc()
		return history.Snapshot{}, err
	}
	metrics.SnapshotOps.WithLabelValues("load_history", "success").Inc()
	return snap, nil
}

// SavePlaylists persists the playlist snapshot, one key per user.
func (s *Store) SavePlaylists(snap playlists.Snapshot) error {
	err := s.replacePrefix(playlistKeyPrefix, func(txn *badger.Txn) error {
		for userID, lists := range snap.Users {
			data, err := json.Marshal(lists)
			if err != nil {
				return fmt.Errorf("marshal playlists for %s: %w", userID, err)
			}
			if err := txn.Set([]byte(playlistKeyPrefix+userID), data); err != nil {
				return fmt.Errorf("set playlists for %s: %w", userID, err)
			}
		}
		return nil
	})

	if err != nil {
		metrics.SnapshotOps.WithLabelValues("save_playlists", "error").Inc()
		return err
	}
	metrics.SnapshotOps.WithLabelValues("save_playlists", "success").Inc()
	s.logger.Info().Int("users", len(snap.Users)).Msg("playlist snapshot saved")
	return nil
}

// LoadPlaylists reads the persisted playlist snapshot.
func (s *Store) LoadPlaylists() (playlists.Snapshot, error) {
	snap := playlists.Snapshot{Users: make(map[string][]playlists.Playlist)}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(playlistKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			userID := strings.TrimPrefix(string(item.Key()), playlistKeyPrefix)

			err := item.Value(func(val []byte) error {
				var lists []playlists.Playlist
				if err := json.Unmarshal(val, &lists); err != nil {
					return fmt.Errorf("unmarshal playlists for %s: %w", userID, err)
				}
				snap.Users[userID] = lists
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		metrics.SnapshotOps.WithLabelValues("load_playlists", "error").Inc()
		return playlists.Snapshot{}, err
	}
	metrics.SnapshotOps.WithLabelValues("load_playlists", "success").Inc()
	return snap, nil
}

// replacePrefix deletes every key under prefix and then runs write
// within the same transaction, so a save fully replaces the previous
// snapshot.
func (s *Store) replacePrefix(prefix string, write func(txn *badger.Txn) error) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var stale [][]byte

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range stale {
			if err := txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete stale key %s: %w", key, err)
			}
		}

		return write(txn)
	})
}
