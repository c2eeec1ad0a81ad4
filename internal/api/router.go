// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

// Package api provides the HTTP surface of Tunedeck: search, streaming,
// listening history, recommendations, and playlists, all scoped to a
// cookie-bound session identity.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tunedeck/tunedeck/internal/config"
	"github.com/tunedeck/tunedeck/internal/identity"
)

// NewRouter wires the middleware stack and all routes.
func NewRouter(cfg *config.ServerConfig, resolver *identity.Resolver, h *Handler) http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied in order.
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Everything personalized runs behind the session identity.
		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(resolver))

			r.Get("/search", h.Search)
			r.Get("/stream/{songID}", h.Stream)

			r.Post("/plays", h.RecordPlay)
			r.Get("/history", h.History)
			r.Get("/preferences", h.Preferences)
			r.Get("/recommendations", h.Recommendations)

			r.Route("/playlists", func(r chi.Router) {
				r.Get("/", h.ListPlaylists)
				r.Post("/", h.CreatePlaylist)
				r.Get("/{playlistID}", h.PlaylistSongs)
				r.Delete("/{playlistID}", h.DeletePlaylist)
				r.Post("/{playlistID}/songs", h.AddPlaylistSong)
				r.Delete("/{playlistID}/songs/{songID}", h.RemovePlaylistSong)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
