// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

// Package resolve provides access to the external media-resolution
// service, which turns a song ID into a playable stream URL.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tunedeck/tunedeck/internal/config"
)

// ErrUnavailable indicates the resolution service could not serve the
// request.
var ErrUnavailable = errors.New("media resolver unavailable")

// Resolver resolves song IDs to playable stream URLs.
type Resolver interface {
	StreamURL(ctx context.Context, songID string) (string, error)
}

// Ensure Client implements Resolver.
var _ Resolver = (*Client)(nil)

// Client is the HTTP implementation of Resolver.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a media-resolution client from configuration.
func NewClient(cfg *config.ResolverConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// StreamURL returns the playable URL for a song ID.
func (c *Client) StreamURL(ctx context.Context, songID string) (string, error) {
	endpoint := c.baseURL + "/v1/resolve/" + url.PathEscape(songID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload struct {
		StreamURL string `json:"stream_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode resolve response: %w", err)
	}
	if payload.StreamURL == "" {
		return "", fmt.Errorf("%w: empty stream url for %s", ErrUnavailable, songID)
	}
	return payload.StreamURL, nil
}
