// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestNew_DispatchesAllKinds(t *testing.T) {
	for _, kind := range Kinds() {
		c, err := New(kind, Options{APIKey: "test-key"})
		if err != nil {
			t.Errorf("New(%s) failed: %v", kind, err)
			continue
		}
		if c.Kind() != kind {
			t.Errorf("New(%s).Kind() = %s", kind, c.Kind())
		}
	}
}

func TestNew_RejectsUnknownKindAndMissingKey(t *testing.T) {
	if _, err := New(Kind("mystery"), Options{APIKey: "k"}); err == nil {
		t.Error("Expected error for unknown kind")
	}
	if _, err := New(KindOpenAI, Options{}); err == nil {
		t.Error("Expected error for missing api key")
	}
}

func TestKind_Valid(t *testing.T) {
	if !KindGemini.Valid() {
		t.Error("Expected gemini to be valid")
	}
	if Kind("").Valid() || Kind("mystery").Valid() {
		t.Error("Expected unknown kinds to be invalid")
	}
}

func chatCompletionBody(content string) string {
	resp := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	}
	raw, _ := json.Marshal(resp)
	return string(raw)
}

func TestOpenAIClient_GenerateParsesSuggestions(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatCompletionBody(`[{"title":"Heat","year":1995,"reason":"classic"},{"title":"Ronin","year":1998}]`)))
	}))
	defer srv.Close()

	c, _ := New(KindOpenAI, Options{APIKey: "sk-test", BaseURL: srv.URL})
	got, err := c.Generate(context.Background(), "crime thrillers", 10)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(got) != 2 || got[0].Title != "Heat" || got[0].Year != 1995 {
		t.Errorf("Unexpected suggestions: %+v", got)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Expected bearer auth, got %q", gotAuth)
	}
}

func TestOpenAIClient_GenerateTruncatesToCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatCompletionBody(`[{"title":"A","year":2001},{"title":"B","year":2002},{"title":"C","year":2003}]`)))
	}))
	defer srv.Close()

	c, _ := New(KindOpenAI, Options{APIKey: "k", BaseURL: srv.URL})
	got, err := c.Generate(context.Background(), "p", 2)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected truncation to 2, got %d", len(got))
	}
}

func TestOpenAIClient_RateLimitErrorCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit reached. Please try again in 20s."}}`))
	}))
	defer srv.Close()

	c, _ := New(KindOpenAI, Options{APIKey: "k", BaseURL: srv.URL})
	_, err := c.Generate(context.Background(), "p", 5)
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("Expected status in error, got %v", err)
	}
	if !strings.Contains(err.Error(), "try again in 20s") {
		t.Errorf("Expected retry hint preserved in error, got %v", err)
	}
}

func TestOpenAIClient_MalformedOutputIsSchemaViolation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatCompletionBody("I'm sorry, I cannot recommend anything today.")))
	}))
	defer srv.Close()

	c, _ := New(KindOpenAI, Options{APIKey: "k", BaseURL: srv.URL})
	_, err := c.Generate(context.Background(), "p", 5)
	if err == nil || !strings.Contains(err.Error(), "schema violation") {
		t.Errorf("Expected schema violation, got %v", err)
	}
}

func TestClaudeClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "ak-test" {
			t.Errorf("Expected x-api-key header, got %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("Expected anthropic-version header")
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"[{\"title\":\"Alien\",\"year\":1979}]"}]}`))
	}))
	defer srv.Close()

	c, _ := New(KindClaude, Options{APIKey: "ak-test", BaseURL: srv.URL})
	got, err := c.Generate(context.Background(), "sci-fi horror", 5)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Alien" {
		t.Errorf("Unexpected suggestions: %+v", got)
	}
}

func TestGeminiClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "g-test" {
			t.Errorf("Expected x-goog-api-key header, got %q", r.Header.Get("x-goog-api-key"))
		}
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"[{\"title\":\"Spirited Away\",\"year\":2001}]"}]}}]}`))
	}))
	defer srv.Close()

	c, _ := New(KindGemini, Options{APIKey: "g-test", BaseURL: srv.URL})
	got, err := c.Generate(context.Background(), "animation", 5)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Spirited Away" {
		t.Errorf("Unexpected suggestions: %+v", got)
	}
}

func TestParseSuggestions_StripsFencesAndProse(t *testing.T) {
	content := "Here are my picks:\n```json\n[{\"title\":\"Dune\",\"year\":2021,\"reason\":\"epic\"}]\n```\nEnjoy!"
	got, err := parseSuggestions(content, 5)
	if err != nil {
		t.Fatalf("parseSuggestions failed: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Dune" {
		t.Errorf("Unexpected result: %+v", got)
	}
}

func TestParseSuggestions_DropsEmptyTitles(t *testing.T) {
	got, err := parseSuggestions(`[{"title":"","year":2000},{"title":"Real","year":2001}]`, 5)
	if err != nil {
		t.Fatalf("parseSuggestions failed: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Real" {
		t.Errorf("Expected empty titles dropped, got %+v", got)
	}
}

func TestParseSuggestions_AllInvalidIsError(t *testing.T) {
	if _, err := parseSuggestions(`[{"title":"","year":2000}]`, 5); err == nil {
		t.Error("Expected error when nothing usable remains")
	}
	if _, err := parseSuggestions(`not json at all`, 5); err == nil {
		t.Error("Expected error for non-JSON output")
	}
}

func TestOptions_TimeoutDefault(t *testing.T) {
	c, _ := New(KindOpenAI, Options{APIKey: "k"})
	oc := c.(*openAIClient)
	if oc.requestTimeout() != 60*time.Second {
		t.Errorf("Expected 60s default timeout, got %v", oc.requestTimeout())
	}
}
