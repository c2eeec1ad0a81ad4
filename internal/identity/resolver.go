// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

// Package identity maps opaque client sessions to stable user identifiers.
//
// A user ID lives exactly as long as its session: minted on first contact,
// bound to the session, never reused and never explicitly expired.
package identity

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
)

// SessionKey is the session field under which the user ID is stored.
const SessionKey = "user_id"

// tokenLen is the minted token width in hex characters. Eight characters
// of a 64-bit hash are collision-resistant for the population a single
// Tunedeck instance serves.
const tokenLen = 8

// Session is the minimal mutable session surface the resolver needs.
// The HTTP layer implements it over cookies.
type Session interface {
	// Get returns the value bound under key, if any.
	Get(key string) (string, bool)

	// Set binds value under key for subsequent requests.
	Set(key, value string)
}

// Resolver resolves sessions to user IDs, minting IDs on first contact.
// The zero value is ready to use.
type Resolver struct{}

// NewResolver creates a session identity resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the user ID bound to the session, minting and binding
// a fresh one when the session carries none. It always succeeds.
func (r *Resolver) Resolve(s Session) string {
	if id, ok := s.Get(SessionKey); ok && id != "" {
		return id
	}

	id := mintUserID()
	s.Set(SessionKey, id)
	return id
}

// mintUserID derives a short fixed-width token from a random UUID and a
// high-resolution clock reading.
func mintUserID() string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s:%d", uuid.NewString(), time.Now().UnixNano())
	token := fmt.Sprintf("%016x", h.Sum64())
	return token[:tokenLen]
}
