// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

package api

import (
	"context"
	"net/http"

	"github.com/tunedeck/tunedeck/internal/identity"
)

// cookiePrefix namespaces Tunedeck session cookies.
const cookiePrefix = "td_"

// sessionCookieMaxAge keeps the identity cookie for a year. A user ID
// lives exactly as long as the client keeps the cookie.
const sessionCookieMaxAge = 365 * 24 * 60 * 60

type contextKey string

const userIDContextKey contextKey = "tunedeck.user_id"

// cookieSession implements identity.Session over HTTP cookies. Get reads
// from the incoming request; Set writes a cookie on the response.
type cookieSession struct {
	r *http.Request
	w http.ResponseWriter
}

func (s *cookieSession) Get(key string) (string, bool) {
	c, err := s.r.Cookie(cookiePrefix + key)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (s *cookieSession) Set(key, value string) {
	http.SetCookie(s.w, &http.Cookie{
		Name:     cookiePrefix + key,
		Value:    value,
		Path:     "/",
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionMiddleware resolves the request's session to a stable user ID
// and places it in the request context. First contact mints an ID and
// sets the session cookie.
func SessionMiddleware(resolver *identity.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := resolver.Resolve(&cookieSession{r: r, w: w})
			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userID returns the user ID bound by SessionMiddleware.
func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDContextKey).(string)
	return id
}
