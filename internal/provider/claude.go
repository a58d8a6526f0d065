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

	"github.com/goccy/go-json"
)

// claudeClient speaks the Anthropic messages API.
type claudeClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func newClaude(opts Options) *claudeClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}
	model := opts.Model
	if model == "" {
		model = "claude-sonnet-4-5"
	}
	return &claudeClient{
		baseURL: baseURL,
		apiKey:  opts.APIKey,
		model:   model,
		http:    &http.Client{Timeout: opts.Timeout},
	}
}

func (c *claudeClient) Kind() Kind { return KindClaude }

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system,omitempty"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (c *claudeClient) Generate(ctx context.Context, prompt string, count int) ([]Suggestion, error) {
	payload := claudeRequest{
		Model:     c.model,
		MaxTokens: 4096,
		System:    systemInstruction,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	}

	var parsed claudeResponse
	if err := c.doJSON(ctx, payload, &parsed); err != nil {
		return nil, err
	}
	for _, block := range parsed.Content {
		if block.Type == "text" {
			return parseSuggestions(block.Text, count)
		}
	}
	return nil, fmt.Errorf("schema violation: %s returned no text content", KindClaude)
}

func (c *claudeClient) ValidateCredential(ctx context.Context) error {
	// A one-token message is the smallest authenticated request the
	// messages API accepts.
	payload := claudeRequest{
		Model:     c.model,
		MaxTokens: 1,
		Messages:  []claudeMessage{{Role: "user", Content: "ping"}},
	}
	return c.doJSON(ctx, payload, nil)
}

func (c *claudeClient) doJSON(ctx context.Context, payload, result interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", KindClaude, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", KindClaude, err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", KindClaude, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", KindClaude, err)
	}
	if resp.StatusCode != http.StatusOK {
		return upstreamError(KindClaude, resp, body)
	}
	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("schema violation: %s response: %w", KindClaude, err)
		}
	}
	return nil
}

var _ Client = (*claudeClient)(nil)
