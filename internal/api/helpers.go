// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/tunedeck/tunedeck/internal/logging"
	"github.com/tunedeck/tunedeck/internal/models"
)

// respondJSON sends a JSON response in the uniform envelope.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	resp := &models.APIResponse{
		Status: "ok",
		Data:   payload,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			RequestID: middleware.GetReqID(r.Context()),
		},
	}
	writeJSON(w, status, resp)
}

// respondError sends an error response in the uniform envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Err(err).Msg("request failed")
	}

	resp := &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			RequestID: middleware.GetReqID(r.Context()),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, resp *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write response")
	}
}

// getIntParam extracts an integer query parameter with a default value.
// Malformed values fall back to the default.
func getIntParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// decodeBody decodes a JSON request body into dst, rejecting bodies over
// maxBodyBytes.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

const maxBodyBytes = 1 << 20
