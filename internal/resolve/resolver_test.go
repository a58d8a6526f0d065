// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package resolve

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func metaServer(t *testing.T, calls *atomic.Int32, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func TestResolver_ResolveBatch(t *testing.T) {
	srv := metaServer(t, nil, `{"metas":[
		{"id":"tt0113277","name":"Heat","type":"movie","poster":"https://img/heat.jpg","releaseInfo":"1995"},
		{"id":"tt7888964","name":"Heat","type":"movie","poster":"https://img/heat2.jpg","releaseInfo":"2022"}
	]}`)
	defer srv.Close()

	r := New(Config{BaseURL: srv.URL})
	got := r.ResolveBatch(context.Background(), []Lookup{
		{Title: "Heat", Year: 1995, Category: "movie"},
	})

	meta, ok := got["Heat"]
	if !ok {
		t.Fatal("Expected Heat resolved")
	}
	if meta.StableID != "tt0113277" {
		t.Errorf("Expected year-matched candidate tt0113277, got %s", meta.StableID)
	}
	if meta.PosterURL != "https://img/heat.jpg" || meta.Year != 1995 {
		t.Errorf("Unexpected meta: %+v", meta)
	}
}

func TestResolver_UnresolvedTitleAbsent(t *testing.T) {
	srv := metaServer(t, nil, `{"metas":[]}`)
	defer srv.Close()

	r := New(Config{BaseURL: srv.URL})
	got := r.ResolveBatch(context.Background(), []Lookup{
		{Title: "Entirely Made Up Film", Year: 2030, Category: "movie"},
	})

	if _, ok := got["Entirely Made Up Film"]; ok {
		t.Error("Expected unresolvable title absent from results")
	}
}

func TestResolver_CachesLookups(t *testing.T) {
	var calls atomic.Int32
	srv := metaServer(t, &calls, `{"metas":[{"id":"tt1","name":"Dune","type":"movie","poster":"p","releaseInfo":"2021"}]}`)
	defer srv.Close()

	r := New(Config{BaseURL: srv.URL})
	lookup := []Lookup{{Title: "Dune", Year: 2021, Category: "movie"}}

	r.ResolveBatch(context.Background(), lookup)
	r.ResolveBatch(context.Background(), lookup)

	if n := calls.Load(); n != 1 {
		t.Errorf("Expected 1 upstream call with cache, got %d", n)
	}
}

func TestResolver_NegativeResultCached(t *testing.T) {
	var calls atomic.Int32
	srv := metaServer(t, &calls, `{"metas":[]}`)
	defer srv.Close()

	r := New(Config{BaseURL: srv.URL})
	lookup := []Lookup{{Title: "Nothing", Year: 0, Category: "movie"}}

	r.ResolveBatch(context.Background(), lookup)
	r.ResolveBatch(context.Background(), lookup)

	if n := calls.Load(); n != 1 {
		t.Errorf("Expected negative result cached, got %d calls", n)
	}
}

func TestResolver_ServerErrorDropsItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := New(Config{BaseURL: srv.URL})
	got := r.ResolveBatch(context.Background(), []Lookup{{Title: "Heat", Category: "movie"}})
	if len(got) != 0 {
		t.Errorf("Expected no results on upstream failure, got %+v", got)
	}
}

func TestPickCandidate_Preferences(t *testing.T) {
	parsed := searchResponse{Metas: []searchMeta{
		{ID: "first", Name: "Solaris", ReleaseInfo: "2002", Type: "movie"},
		{ID: "exact-year", Name: "Solaris", ReleaseInfo: "1972", Type: "movie"},
	}}

	// Name+year match beats positional order.
	meta := pickCandidate(Lookup{Title: "solaris", Year: 1972, Category: "movie"}, parsed)
	if meta.StableID != "exact-year" {
		t.Errorf("Expected exact-year candidate, got %s", meta.StableID)
	}

	// Without a year, the first exact-name match wins.
	meta = pickCandidate(Lookup{Title: "Solaris", Category: "movie"}, parsed)
	if meta.StableID != "first" {
		t.Errorf("Expected first name match, got %s", meta.StableID)
	}

	// Unknown name falls back to the first result.
	meta = pickCandidate(Lookup{Title: "Solyaris", Year: 0}, parsed)
	if meta.StableID != "first" {
		t.Errorf("Expected first result fallback, got %s", meta.StableID)
	}
}

func TestParseYear(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"1995", 1995},
		{"2008-2013", 2008},
		{"2021-", 2021},
		{"", 0},
		{"n/a", 0},
	}
	for _, tc := range cases {
		if got := parseYear(tc.in); got != tc.want {
			t.Errorf("parseYear(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestResolver_BatchParallelism(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(30 * time.Millisecond)
		w.Write([]byte(`{"metas":[{"id":"tt1","name":"X","type":"movie","releaseInfo":"2000"}]}`))
	}))
	defer srv.Close()

	r := New(Config{BaseURL: srv.URL, Workers: 4, RequestsPerSecond: 1000})
	lookups := []Lookup{
		{Title: "A", Category: "movie"},
		{Title: "B", Category: "movie"},
		{Title: "C", Category: "movie"},
		{Title: "D", Category: "movie"},
	}

	start := time.Now()
	r.ResolveBatch(context.Background(), lookups)
	elapsed := time.Since(start)

	// Four 30ms lookups across four workers should take well under the
	// 120ms a serial pass would need.
	if elapsed > 100*time.Millisecond {
		t.Errorf("Expected parallel batch resolution, took %v", elapsed)
	}
}
