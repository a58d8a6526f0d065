// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"screenscout/internal/catalog"
)

type fakeGenerator struct {
	lastReq *catalog.Request
	result  *catalog.Result
}

func (f *fakeGenerator) Generate(ctx context.Context, req *catalog.Request) *catalog.Result {
	f.lastReq = req
	if f.result != nil {
		return f.result
	}
	return &catalog.Result{GeneratedAt: time.Now()}
}

type fakeValidator struct {
	err error
}

func (f *fakeValidator) Validate(ctx context.Context, cfg *catalog.UserConfig) error {
	return f.err
}

func testServer(gen Generator) *httptest.Server {
	return testServerWithValidator(gen, &fakeValidator{})
}

func testServerWithValidator(gen Generator, v CredentialValidator) *httptest.Server {
	handler := NewHandler(gen, v, "1.2.3")
	router := NewRouter(handler, NewMiddleware(nil))
	return httptest.NewServer(router.Setup())
}

func encodeConfig(t *testing.T) string {
	t.Helper()
	raw, err := json.Marshal(catalog.UserConfig{Provider: "openai", APIKey: "sk-test-12345678"})
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv := testServer(&fakeGenerator{})
	defer srv.Close()

	var body map[string]any
	resp := getJSON(t, srv.URL+"/api/v1/health", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["status"] != "ok" || body["version"] != "1.2.3" {
		t.Errorf("health body = %v", body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("response should carry X-Request-ID")
	}
}

func TestBaseManifestRequiresConfiguration(t *testing.T) {
	srv := testServer(&fakeGenerator{})
	defer srv.Close()

	var m Manifest
	getJSON(t, srv.URL+"/manifest.json", &m)
	if !m.Behavior.ConfigurationRequired {
		t.Error("base manifest should require configuration")
	}
	if len(m.Catalogs) != 0 {
		t.Errorf("base manifest has %d catalogs, want 0", len(m.Catalogs))
	}
}

func TestConfiguredManifest(t *testing.T) {
	srv := testServer(&fakeGenerator{})
	defer srv.Close()

	var m Manifest
	resp := getJSON(t, srv.URL+"/"+encodeConfig(t)+"/manifest.json", &m)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if m.Behavior.ConfigurationRequired {
		t.Error("configured manifest should not require configuration")
	}
	if want := 2 * len(catalogDefs); len(m.Catalogs) != want {
		t.Errorf("catalogs = %d, want %d", len(m.Catalogs), want)
	}
}

func TestManifestRejectsBadConfig(t *testing.T) {
	srv := testServer(&fakeGenerator{})
	defer srv.Close()

	resp := getJSON(t, srv.URL+"/not-a-config/manifest.json", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCatalogHappyPath(t *testing.T) {
	gen := &fakeGenerator{result: &catalog.Result{
		Items: []catalog.Item{
			{ID: "tt0113277", Title: "Heat", Category: "movie", Year: 1995, Poster: "https://img/heat.jpg", Description: "taut crime drama"},
		},
		GeneratedAt: time.Now(),
	}}
	srv := testServer(gen)
	defer srv.Close()

	var body catalogResponse
	resp := getJSON(t, srv.URL+"/"+encodeConfig(t)+"/catalog/movie/discover.json", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(body.Metas) != 1 {
		t.Fatalf("metas = %d, want 1", len(body.Metas))
	}
	m := body.Metas[0]
	if m.ID != "tt0113277" || m.Type != "movie" || m.Name != "Heat" || m.ReleaseInfo != "1995" {
		t.Errorf("meta = %+v", m)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("Cache-Control = %q", cc)
	}

	if gen.lastReq.Category != "movie" || gen.lastReq.CatalogID != "discover" {
		t.Errorf("request = %+v", gen.lastReq)
	}
}

func TestCatalogGenreExtra(t *testing.T) {
	gen := &fakeGenerator{}
	srv := testServer(gen)
	defer srv.Close()

	getJSON(t, srv.URL+"/"+encodeConfig(t)+"/catalog/movie/discover/genre=Horror.json", nil)
	if gen.lastReq == nil || gen.lastReq.Genre != "Horror" {
		t.Errorf("request = %+v, want Genre=Horror", gen.lastReq)
	}
}

func TestCatalogFallbackNotCached(t *testing.T) {
	gen := &fakeGenerator{result: &catalog.Result{
		Items:       []catalog.Item{{ID: "tt-old", Title: "Old Pick", Category: "movie"}},
		GeneratedAt: time.Now(),
		Stale:       true,
		Notice:      "showing previous results",
	}}
	srv := testServer(gen)
	defer srv.Close()

	resp := getJSON(t, srv.URL+"/"+encodeConfig(t)+"/catalog/movie/discover.json", nil)
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}
}

func TestCatalogUnknownCategory(t *testing.T) {
	srv := testServer(&fakeGenerator{})
	defer srv.Close()

	resp := getJSON(t, srv.URL+"/"+encodeConfig(t)+"/catalog/music/discover.json", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCatalogBadConfig(t *testing.T) {
	srv := testServer(&fakeGenerator{})
	defer srv.Close()

	resp := getJSON(t, srv.URL+"/bm90LWpzb24/catalog/movie/discover.json", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestValidateAcceptsGoodCredential(t *testing.T) {
	srv := testServerWithValidator(&fakeGenerator{}, &fakeValidator{})
	defer srv.Close()

	var body map[string]any
	resp := getJSON(t, srv.URL+"/"+encodeConfig(t)+"/validate.json", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["valid"] != true {
		t.Errorf("body = %v, want valid=true", body)
	}
}

func TestValidateRejectsBadCredential(t *testing.T) {
	v := &fakeValidator{err: errors.New("upstream status 401: invalid api key")}
	srv := testServerWithValidator(&fakeGenerator{}, v)
	defer srv.Close()

	var body map[string]any
	resp := getJSON(t, srv.URL+"/"+encodeConfig(t)+"/validate.json", &body)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if body["valid"] != false {
		t.Errorf("body = %v, want valid=false", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(&fakeGenerator{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestExtraGenreParsing(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"genre=Horror", "Horror"},
		{"genre=Sci-Fi", "Sci-Fi"},
		{"skip=20", ""},
		{"%zz", ""},
	}
	for _, tt := range tests {
		if got := extraGenre(tt.in); got != tt.want {
			t.Errorf("extraGenre(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
