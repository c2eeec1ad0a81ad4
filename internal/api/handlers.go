// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tunedeck/tunedeck/internal/catalog"
	"github.com/tunedeck/tunedeck/internal/config"
	"github.com/tunedeck/tunedeck/internal/history"
	"github.com/tunedeck/tunedeck/internal/metrics"
	"github.com/tunedeck/tunedeck/internal/models"
	"github.com/tunedeck/tunedeck/internal/playlists"
	"github.com/tunedeck/tunedeck/internal/recommend"
	"github.com/tunedeck/tunedeck/internal/resolve"
)

// Recommender is the engine surface the handlers consume.
type Recommender interface {
	Recommend(ctx context.Context, userID string, mode recommend.Mode, limit int) ([]recommend.Candidate, error)
}

// Handler holds the dependencies of all HTTP handlers.
type Handler struct {
	cfg       *config.Config
	catalog   catalog.Catalog
	resolver  resolve.Resolver
	corpus    *history.Corpus
	playlists *playlists.Manager
	engine    Recommender
	validate  *validator.Validate

	startedAt time.Time
}

// NewHandler creates the handler set.
func NewHandler(
	cfg *config.Config,
	cat catalog.Catalog,
	res resolve.Resolver,
	corpus *history.Corpus,
	pls *playlists.Manager,
	engine Recommender,
) *Handler {
	return &Handler{
		cfg:       cfg,
		catalog:   cat,
		resolver:  res,
		corpus:    corpus,
		playlists: pls,
		engine:    engine,
		validate:  validator.New(),
		startedAt: time.Now(),
	}
}

// Health reports liveness and uptime.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// Search proxies a catalog search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "query parameter 'q' is required", nil)
		return
	}
	limit := getIntParam(r, "limit", 20)
	if limit <= 0 || limit > 100 {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "limit must be between 1 and 100", nil)
		return
	}

	songs, err := h.catalog.Search(r.Context(), query, catalog.ResultTypeSongs, limit)
	if err != nil {
		respondError(w, r, http.StatusBadGateway, "CATALOG_UNAVAILABLE", "catalog search failed", err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": songs,
	})
}

// Stream resolves a playable stream URL for a song and records the play
// against the session's listening history. Catalog metadata failures do
// not block playback: the play is recorded with whatever metadata is
// available.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	songID := chi.URLParam(r, "songID")
	if songID == "" {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "song ID is required", nil)
		return
	}

	song := models.Song{SongID: songID}
	if full, err := h.catalog.Song(r.Context(), songID); err == nil && full != nil {
		song = *full
	}

	streamURL, err := h.resolver.StreamURL(r.Context(), songID)
	if err != nil {
		respondError(w, r, http.StatusBadGateway, "RESOLVER_UNAVAILABLE", "could not resolve stream", err)
		return
	}

	h.corpus.Record(userID(r), song)
	metrics.PlaysRecorded.Inc()

	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"song_id":    songID,
		"title":      song.Title,
		"stream_url": streamURL,
	})
}

// playRequest is the body of POST /plays.
type playRequest struct {
	SongID string `json:"song_id" validate:"required"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// RecordPlay records a listening event reported by the client, for
// playback that happened outside the stream endpoint.
func (h *Handler) RecordPlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "song_id is required", nil)
		return
	}

	song := models.Song{SongID: req.SongID, Title: req.Title}
	if req.Artist != "" {
		song.Artists = []models.ArtistRef{{Name: req.Artist}}
	}

	h.corpus.Record(userID(r), song)
	metrics.PlaysRecorded.Inc()

	respondJSON(w, r, http.StatusCreated, map[string]interface{}{
		"song_id": req.SongID,
		"total":   h.corpus.Len(userID(r)),
	})
}

// History returns the session's recent listening events, most recent
// first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", h.cfg.History.Cap)
	if limit <= 0 {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "limit must be positive", nil)
		return
	}

	uid := userID(r)
	events := h.corpus.Recent(uid, limit)

	// Recent returns oldest first; clients want the newest on top.
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}

	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"events": events,
		"total":  h.corpus.Len(uid),
	})
}

// Preferences returns the session's per-artist play counts.
func (h *Handler) Preferences(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"artists": h.corpus.Preferences(userID(r)),
	})
}

// Recommendations generates personalized recommendations for the
// session. The type parameter selects a strategy; absent or "mixed"
// blends all three.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	mode, err := recommend.ParseMode(r.URL.Query().Get("type"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "unknown recommendation type", nil)
		return
	}
	limit := getIntParam(r, "limit", h.cfg.Recommend.DefaultLimit)

	candidates, err := h.engine.Recommend(r.Context(), userID(r), mode, limit)
	if err != nil {
		if errors.Is(err, recommend.ErrInvalidLimit) {
			respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "limit must be positive", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "recommendation failed", err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"type":            mode.String(),
		"recommendations": candidates,
	})
}

// createPlaylistRequest is the body of POST /playlists.
type createPlaylistRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreatePlaylist creates a new empty playlist for the session.
func (h *Handler) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "name is required", nil)
		return
	}

	pl, err := h.playlists.Create(userID(r), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, playlists.ErrDuplicateName):
			respondError(w, r, http.StatusConflict, "DUPLICATE_NAME", "playlist name already in use", nil)
		case errors.Is(err, playlists.ErrEmptyName):
			respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "name is required", nil)
		default:
			respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "could not create playlist", err)
		}
		return
	}

	respondJSON(w, r, http.StatusCreated, pl)
}

// ListPlaylists returns the session's playlists.
func (h *Handler) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"playlists": h.playlists.List(userID(r)),
	})
}

// PlaylistSongs returns a playlist's songs, most recently added first.
func (h *Handler) PlaylistSongs(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "playlistID")

	pl, err := h.playlists.Get(userID(r), playlistID)
	if err != nil {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "playlist not found", nil)
		return
	}
	songs, err := h.playlists.Songs(userID(r), playlistID)
	if err != nil {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "playlist not found", nil)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"id":    pl.ID,
		"name":  pl.Name,
		"songs": songs,
	})
}

// DeletePlaylist removes a playlist.
func (h *Handler) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "playlistID")

	if err := h.playlists.Delete(userID(r), playlistID); err != nil {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "playlist not found", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]interface{}{"deleted": playlistID})
}

// addSongRequest is the body of POST /playlists/{id}/songs.
type addSongRequest struct {
	SongID string `json:"song_id" validate:"required"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// AddPlaylistSong adds a song to a playlist. When the catalog can serve
// full metadata it is stored; otherwise the client-supplied fields are.
func (h *Handler) AddPlaylistSong(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "playlistID")

	var req addSongRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "song_id is required", nil)
		return
	}

	song := models.Song{SongID: req.SongID, Title: req.Title}
	if req.Artist != "" {
		song.Artists = []models.ArtistRef{{Name: req.Artist}}
	}
	if full, err := h.catalog.Song(r.Context(), req.SongID); err == nil && full != nil {
		song = *full
	}

	if err := h.playlists.AddSong(userID(r), playlistID, song); err != nil {
		switch {
		case errors.Is(err, playlists.ErrNotFound):
			respondError(w, r, http.StatusNotFound, "NOT_FOUND", "playlist not found", nil)
		case errors.Is(err, playlists.ErrDuplicateSong):
			respondError(w, r, http.StatusConflict, "DUPLICATE_SONG", "song already on playlist", nil)
		default:
			respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "could not add song", err)
		}
		return
	}

	respondJSON(w, r, http.StatusCreated, map[string]interface{}{
		"playlist_id": playlistID,
		"song_id":     req.SongID,
	})
}

// RemovePlaylistSong removes a song from a playlist.
func (h *Handler) RemovePlaylistSong(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "playlistID")
	songID := chi.URLParam(r, "songID")

	if err := h.playlists.RemoveSong(userID(r), playlistID, songID); err != nil {
		switch {
		case errors.Is(err, playlists.ErrNotFound):
			respondError(w, r, http.StatusNotFound, "NOT_FOUND", "playlist not found", nil)
		case errors.Is(err, playlists.ErrSongNotFound):
			respondError(w, r, http.StatusNotFound, "NOT_FOUND", "song not on playlist", nil)
		default:
			respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "could not remove song", err)
		}
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"playlist_id": playlistID,
		"song_id":     songID,
	})
}
