// Tunedeck - Personal Music Streaming and Recommendations
// Copyright 2026 Tunedeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunedeck/tunedeck

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tunedeck/tunedeck/internal/config"
	"github.com/tunedeck/tunedeck/internal/history"
	"github.com/tunedeck/tunedeck/internal/identity"
	"github.com/tunedeck/tunedeck/internal/models"
	"github.com/tunedeck/tunedeck/internal/playlists"
	"github.com/tunedeck/tunedeck/internal/recommend"
)

// fakeCatalog is a scriptable catalog collaborator.
type fakeCatalog struct {
	searchFn func(query string, limit int) ([]models.Song, error)
	songFn   func(songID string) (*models.Song, error)
}

func (f *fakeCatalog) Search(_ context.Context, query, _ string, limit int) ([]models.Song, error) {
	if f.searchFn == nil {
		return nil, nil
	}
	return f.searchFn(query, limit)
}

func (f *fakeCatalog) HomeFeed(_ context.Context) ([]models.HomeSection, error) {
	return nil, nil
}

func (f *fakeCatalog) Song(_ context.Context, songID string) (*models.Song, error) {
	if f.songFn == nil {
		return &models.Song{SongID: songID}, nil
	}
	return f.songFn(songID)
}

// fakeResolver scripts the stream resolution collaborator.
type fakeResolver struct {
	url string
	err error
}

func (f *fakeResolver) StreamURL(_ context.Context, songID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.url != "" {
		return f.url, nil
	}
	return "https://stream.example/" + songID, nil
}

// fakeEngine records the last recommendation request.
type fakeEngine struct {
	candidates []recommend.Candidate
	err        error

	gotMode  recommend.Mode
	gotLimit int
}

func (f *fakeEngine) Recommend(_ context.Context, _ string, mode recommend.Mode, limit int) ([]recommend.Candidate, error) {
	f.gotMode = mode
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

type fixture struct {
	catalog  *fakeCatalog
	resolver *fakeResolver
	engine   *fakeEngine
	corpus   *history.Corpus
	server   *httptest.Server
	client   *http.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.Default()
	f := &fixture{
		catalog:  &fakeCatalog{},
		resolver: &fakeResolver{},
		engine:   &fakeEngine{},
		corpus:   history.NewCorpus(cfg.History.Cap, zerolog.Nop()),
	}

	h := NewHandler(cfg, f.catalog, f.resolver, f.corpus, playlists.NewManager(zerolog.Nop()), f.engine)
	f.server = httptest.NewServer(NewRouter(&cfg.Server, identity.NewResolver(), h))
	t.Cleanup(f.server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	f.client = &http.Client{Jar: jar}
	return f
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := f.client.Get(f.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp, decodeEnvelope(t, resp)
}

func (f *fixture) post(t *testing.T, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := f.client.Post(f.server.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp, decodeEnvelope(t, resp)
}

func (f *fixture) delete(t *testing.T, path string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, f.server.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		t.Fatalf("DELETE %s: %v", path, err)
	}
	return resp, decodeEnvelope(t, resp)
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()

	var envelope map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope
}

func dataField(t *testing.T, envelope map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := envelope["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("response data = %v, want object", envelope["data"])
	}
	return data
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	resp, envelope := f.get(t, "/api/v1/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if envelope["status"] != "ok" {
		t.Errorf("envelope status = %v, want ok", envelope["status"])
	}
	if dataField(t, envelope)["status"] != "healthy" {
		t.Errorf("health status = %v, want healthy", dataField(t, envelope)["status"])
	}
}

func TestSessionCookieMinted(t *testing.T) {
	f := newFixture(t)

	resp, err := f.client.Get(f.server.URL + "/api/v1/history")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	var found string
	for _, c := range resp.Cookies() {
		if c.Name == cookiePrefix+identity.SessionKey {
			found = c.Value
		}
	}
	if len(found) != 8 {
		t.Fatalf("session cookie = %q, want 8-character user ID", found)
	}

	// A second request with the same jar must not mint a new ID.
	resp2, err := f.client.Get(f.server.URL + "/api/v1/history")
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	for _, c := range resp2.Cookies() {
		if c.Name == cookiePrefix+identity.SessionKey && c.Value != found {
			t.Errorf("second request rebound session to %q, want %q", c.Value, found)
		}
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	f.catalog.searchFn = func(query string, limit int) ([]models.Song, error) {
		if query != "boards of canada" {
			t.Errorf("query = %q", query)
		}
		return []models.Song{{SongID: "a", Title: "Roygbiv"}}, nil
	}

	resp, envelope := f.get(t, "/api/v1/search?q=boards+of+canada")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	results := dataField(t, envelope)["results"].([]interface{})
	if len(results) != 1 {
		t.Errorf("results = %v, want 1 song", results)
	}
}

func TestSearchValidation(t *testing.T) {
	f := newFixture(t)

	resp, envelope := f.get(t, "/api/v1/search")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	errObj := envelope["error"].(map[string]interface{})
	if errObj["code"] != "INVALID_REQUEST" {
		t.Errorf("error code = %v, want INVALID_REQUEST", errObj["code"])
	}
}

func TestSearchCatalogDown(t *testing.T) {
	f := newFixture(t)
	f.catalog.searchFn = func(string, int) ([]models.Song, error) {
		return nil, errors.New("boom")
	}

	resp, _ := f.get(t, "/api/v1/search?q=x")
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
}

func TestStreamRecordsPlay(t *testing.T) {
	f := newFixture(t)
	f.catalog.songFn = func(songID string) (*models.Song, error) {
		return &models.Song{
			SongID:  songID,
			Title:   "Roygbiv",
			Artists: []models.ArtistRef{{Name: "Boards of Canada"}},
		}, nil
	}

	resp, envelope := f.get(t, "/api/v1/stream/abc")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	data := dataField(t, envelope)
	if data["stream_url"] != "https://stream.example/abc" {
		t.Errorf("stream_url = %v", data["stream_url"])
	}

	// The play landed in this session's history.
	_, histEnvelope := f.get(t, "/api/v1/history")
	events := dataField(t, histEnvelope)["events"].([]interface{})
	if len(events) != 1 {
		t.Fatalf("history = %v, want the streamed play", events)
	}
	ev := events[0].(map[string]interface{})
	if ev["song_id"] != "abc" || ev["artist"] != "Boards of Canada" {
		t.Errorf("event = %v", ev)
	}
}

func TestStreamSurvivesCatalogFailure(t *testing.T) {
	f := newFixture(t)
	f.catalog.songFn = func(string) (*models.Song, error) {
		return nil, errors.New("metadata down")
	}

	resp, envelope := f.get(t, "/api/v1/stream/abc")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite metadata failure", resp.StatusCode)
	}
	if dataField(t, envelope)["stream_url"] == "" {
		t.Error("stream_url missing")
	}
}

func TestStreamResolverDown(t *testing.T) {
	f := newFixture(t)
	f.resolver.err = errors.New("resolver down")

	resp, envelope := f.get(t, "/api/v1/stream/abc")
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
	errObj := envelope["error"].(map[string]interface{})
	if errObj["code"] != "RESOLVER_UNAVAILABLE" {
		t.Errorf("error code = %v, want RESOLVER_UNAVAILABLE", errObj["code"])
	}
}

func TestRecordPlayAndHistory(t *testing.T) {
	f := newFixture(t)

	for _, play := range []map[string]string{
		{"song_id": "a", "title": "First", "artist": "X"},
		{"song_id": "b", "title": "Second", "artist": "Y"},
	} {
		resp, _ := f.post(t, "/api/v1/plays", play)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want 201", resp.StatusCode)
		}
	}

	_, envelope := f.get(t, "/api/v1/history")
	data := dataField(t, envelope)
	events := data["events"].([]interface{})
	if len(events) != 2 {
		t.Fatalf("events = %v, want 2", events)
	}
	// Most recent first.
	if events[0].(map[string]interface{})["song_id"] != "b" {
		t.Errorf("events[0] = %v, want the most recent play", events[0])
	}
	if data["total"].(float64) != 2 {
		t.Errorf("total = %v, want 2", data["total"])
	}
}

func TestRecordPlayValidation(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.post(t, "/api/v1/plays", map[string]string{"title": "no id"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestPreferences(t *testing.T) {
	f := newFixture(t)

	f.post(t, "/api/v1/plays", map[string]string{"song_id": "a", "artist": "X"})
	f.post(t, "/api/v1/plays", map[string]string{"song_id": "b", "artist": "X"})

	_, envelope := f.get(t, "/api/v1/preferences")
	artists := dataField(t, envelope)["artists"].(map[string]interface{})
	if artists["X"].(float64) != 2 {
		t.Errorf("preferences = %v, want X:2", artists)
	}
}

func TestRecommendationsDefaults(t *testing.T) {
	f := newFixture(t)
	f.engine.candidates = []recommend.Candidate{
		{Song: models.Song{SongID: "a", Title: "A"}, Source: "content"},
	}

	resp, envelope := f.get(t, "/api/v1/recommendations")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if f.engine.gotMode != recommend.ModeMixed {
		t.Errorf("mode = %v, want mixed by default", f.engine.gotMode)
	}
	if f.engine.gotLimit != config.Default().Recommend.DefaultLimit {
		t.Errorf("limit = %d, want default", f.engine.gotLimit)
	}

	data := dataField(t, envelope)
	if data["type"] != "mixed" {
		t.Errorf("type = %v, want mixed", data["type"])
	}
	recs := data["recommendations"].([]interface{})
	if len(recs) != 1 || recs[0].(map[string]interface{})["source"] != "content" {
		t.Errorf("recommendations = %v", recs)
	}
}

func TestRecommendationsModeAndLimit(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.get(t, "/api/v1/recommendations?type=trending&limit=7")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if f.engine.gotMode != recommend.ModeTrending || f.engine.gotLimit != 7 {
		t.Errorf("engine got (%v, %d), want (trending, 7)", f.engine.gotMode, f.engine.gotLimit)
	}
}

func TestRecommendationsBadRequests(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.get(t, "/api/v1/recommendations?type=psychic")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown type status = %d, want 400", resp.StatusCode)
	}

	f.engine.err = recommend.ErrInvalidLimit
	resp, _ = f.get(t, "/api/v1/recommendations?limit=-1")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", resp.StatusCode)
	}
}

func TestPlaylistLifecycle(t *testing.T) {
	f := newFixture(t)

	resp, envelope := f.post(t, "/api/v1/playlists", map[string]string{"name": "Focus"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	playlistID := dataField(t, envelope)["id"].(string)

	// Duplicate name conflicts.
	resp, _ = f.post(t, "/api/v1/playlists", map[string]string{"name": "Focus"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", resp.StatusCode)
	}

	resp, _ = f.post(t, "/api/v1/playlists/"+playlistID+"/songs", map[string]string{
		"song_id": "a", "title": "A", "artist": "X",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add song status = %d, want 201", resp.StatusCode)
	}

	resp, _ = f.post(t, "/api/v1/playlists/"+playlistID+"/songs", map[string]string{"song_id": "a"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate song status = %d, want 409", resp.StatusCode)
	}

	_, envelope = f.get(t, "/api/v1/playlists/"+playlistID)
	songs := dataField(t, envelope)["songs"].([]interface{})
	if len(songs) != 1 {
		t.Fatalf("songs = %v, want 1", songs)
	}

	resp, _ = f.delete(t, "/api/v1/playlists/"+playlistID+"/songs/a")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("remove song status = %d, want 200", resp.StatusCode)
	}

	resp, _ = f.delete(t, "/api/v1/playlists/"+playlistID)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete status = %d, want 200", resp.StatusCode)
	}

	resp, _ = f.get(t, "/api/v1/playlists/"+playlistID)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get deleted status = %d, want 404", resp.StatusCode)
	}
}

func TestPlaylistNotFound(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.post(t, "/api/v1/playlists/nope/songs", map[string]string{"song_id": "a"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
