// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the upstream AI recommendation providers as a
// closed set of HTTP clients behind one capability interface. Dispatch is a
// tagged switch over Kind, not open-ended registration: adding a provider
// means adding a variant here.
//
// Error contract: HTTP 429/5xx failures surface with the upstream body
// embedded so the retry policy can classify them and extract retry-after
// hints; malformed model output is a schema violation and terminal.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Kind identifies an upstream provider.
type Kind string

const (
	KindOpenAI   Kind = "openai"
	KindGemini   Kind = "gemini"
	KindClaude   Kind = "claude"
	KindDeepSeek Kind = "deepseek"
)

// Kinds lists every supported provider.
func Kinds() []Kind {
	return []Kind{KindOpenAI, KindGemini, KindClaude, KindDeepSeek}
}

// Valid reports whether k names a supported provider.
func (k Kind) Valid() bool {
	switch k {
	case KindOpenAI, KindGemini, KindClaude, KindDeepSeek:
		return true
	}
	return false
}

// Suggestion is one recommended title from a provider.
type Suggestion struct {
	Title  string `json:"title"`
	Year   int    `json:"year"`
	Reason string `json:"reason,omitempty"`
}

// Client is the shared capability interface over all provider variants.
type Client interface {
	// Kind returns the provider tag for dispatch and metrics.
	Kind() Kind

	// Generate asks the provider for count suggestions for the prompt.
	Generate(ctx context.Context, prompt string, count int) ([]Suggestion, error)

	// ValidateCredential performs a cheap authenticated call to verify the
	// configured API key.
	ValidateCredential(ctx context.Context) error
}

// Options configures a provider client.
type Options struct {
	// APIKey is the caller's credential for the provider.
	APIKey string

	// BaseURL overrides the provider's default API endpoint, mainly for
	// tests and proxies.
	BaseURL string

	// Model overrides the provider's default model.
	Model string

	// Timeout bounds each HTTP request. Default: 60s. The orchestrator's
	// request deadline is enforced separately and may expire earlier.
	Timeout time.Duration
}

// New constructs the client variant for kind.
func New(kind Kind, opts Options) (Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("provider %s: missing api key", kind)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	switch kind {
	case KindOpenAI:
		return newOpenAICompatible(KindOpenAI, "https://api.openai.com/v1", "gpt-5.2", opts), nil
	case KindDeepSeek:
		return newOpenAICompatible(KindDeepSeek, "https://api.deepseek.com/v1", "deepseek-chat", opts), nil
	case KindClaude:
		return newClaude(opts), nil
	case KindGemini:
		return newGemini(opts), nil
	default:
		return nil, fmt.Errorf("provider: unknown kind %q", kind)
	}
}

// maxResponseBytes bounds upstream response bodies.
const maxResponseBytes = 1 << 20 // 1MB

// systemInstruction steers every provider toward parseable output.
const systemInstruction = "You are a film and television recommendation engine. " +
	"Respond ONLY with a JSON array of objects, each with keys " +
	`"title" (string), "year" (number) and "reason" (short string). ` +
	"No prose, no markdown fences, no trailing commentary."

// parseSuggestions decodes the model's text output into suggestions.
// Models occasionally wrap the array in markdown fences or prose despite
// instructions; everything outside the outermost brackets is discarded.
// Anything that still fails to decode is a terminal schema violation.
func parseSuggestions(content string, count int) ([]Suggestion, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("schema violation: no JSON array in model output")
	}

	var suggestions []Suggestion
	if err := json.Unmarshal([]byte(content[start:end+1]), &suggestions); err != nil {
		return nil, fmt.Errorf("schema violation: %w", err)
	}

	valid := suggestions[:0]
	for _, s := range suggestions {
		if strings.TrimSpace(s.Title) == "" {
			continue
		}
		valid = append(valid, s)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("schema violation: no usable suggestions in model output")
	}
	if len(valid) > count {
		valid = valid[:count]
	}
	return valid, nil
}

// upstreamError converts a non-2xx response into an error carrying the
// status and a bounded slice of the body, so the retry policy can classify
// it and extract any retry-after hint the provider embedded.
func upstreamError(kind Kind, resp *http.Response, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return fmt.Errorf("%s: http %d: %s", kind, resp.StatusCode, msg)
}
