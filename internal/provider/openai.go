// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// openAIClient speaks the OpenAI chat-completions API. DeepSeek exposes the
// same wire format, so both kinds share this variant with different
// defaults.
type openAIClient struct {
	kind    Kind
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func newOpenAICompatible(kind Kind, defaultBase, defaultModel string, opts Options) *openAIClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBase
	}
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	return &openAIClient{
		kind:    kind,
		baseURL: baseURL,
		apiKey:  opts.APIKey,
		model:   model,
		http:    &http.Client{Timeout: opts.Timeout},
	}
}

func (c *openAIClient) Kind() Kind { return c.kind }

// chatRequest is the chat-completions request payload.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the subset of the chat-completions response we read.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *openAIClient) Generate(ctx context.Context, prompt string, count int) ([]Suggestion, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.8,
		MaxTokens:   4096,
	}

	var parsed chatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/chat/completions", payload, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("schema violation: %s returned no choices", c.kind)
	}
	return parseSuggestions(parsed.Choices[0].Message.Content, count)
}

func (c *openAIClient) ValidateCredential(ctx context.Context) error {
	// The models listing is the cheapest authenticated endpoint.
	return c.doJSON(ctx, http.MethodGet, "/models", nil, nil)
}

// doJSON executes one API request and decodes the JSON response into result
// when non-nil.
func (c *openAIClient) doJSON(ctx context.Context, method, path string, payload, result interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", c.kind, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.kind, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", c.kind, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", c.kind, err)
	}
	if resp.StatusCode != http.StatusOK {
		return upstreamError(c.kind, resp, raw)
	}
	if result != nil {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("schema violation: %s response: %w", c.kind, err)
		}
	}
	return nil
}

// ensure interface compliance at compile time
var _ Client = (*openAIClient)(nil)

// timeout accessor used in tests
func (c *openAIClient) requestTimeout() time.Duration { return c.http.Timeout }
