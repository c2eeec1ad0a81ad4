// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tunedeck/tunedeck/internal/config"
	"github.com/tunedeck/tunedeck/internal/models"
)

// Ensure Client implements Catalog.
var _ Catalog = (*Client)(nil)

// Client is the HTTP implementation of the Catalog interface.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a catalog API client from configuration.
func NewClient(cfg *config.CatalogConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search queries the catalog for songs matching query.
func (c *Client) Search(ctx context.Context, query, resultType string, limit int) ([]models.Song, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", resultType)
	params.Set("limit", strconv.Itoa(limit))

	var songs []models.Song
	if err := c.get(ctx, "/v1/search?"+params.Encode(), &songs); err != nil {
		return nil, fmt.Errorf("catalog search %q: %w", query, err)
	}
	return songs, nil
}

// HomeFeed fetches the catalog's featured home sections.
func (c *Client) HomeFeed(ctx context.Context) ([]models.HomeSection, error) {
	var sections []models.HomeSection
	if err := c.get(ctx, "/v1/home", &sections); err != nil {
		return nil, fmt.Errorf("catalog home feed: %w", err)
	}
	return sections, nil
}

// Song fetches metadata for a single song.
func (c *Client) Song(ctx context.Context, songID string) (*models.Song, error) {
	var song models.Song
	if err := c.get(ctx, "/v1/songs/"+url.PathEscape(songID), &song); err != nil {
		return nil, fmt.Errorf("catalog song %q: %w", songID, err)
	}
	return &song, nil
}

// get performs a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 512))
		if readErr != nil {
			return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
