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

// geminiClient speaks the Google Generative Language API.
type geminiClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func newGemini(opts Options) *geminiClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &geminiClient{
		baseURL: baseURL,
		apiKey:  opts.APIKey,
		model:   model,
		http:    &http.Client{Timeout: opts.Timeout},
	}
}

func (c *geminiClient) Kind() Kind { return KindGemini }

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (c *geminiClient) Generate(ctx context.Context, prompt string, count int) ([]Suggestion, error) {
	payload := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemInstruction}}},
		Contents:          []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}

	path := fmt.Sprintf("/models/%s:generateContent", c.model)
	var parsed geminiResponse
	if err := c.doJSON(ctx, http.MethodPost, path, payload, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("schema violation: %s returned no candidates", KindGemini)
	}
	return parseSuggestions(parsed.Candidates[0].Content.Parts[0].Text, count)
}

func (c *geminiClient) ValidateCredential(ctx context.Context) error {
	// Model metadata is the cheapest call that still checks the key.
	return c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/models/%s", c.model), nil, nil)
}

func (c *geminiClient) doJSON(ctx context.Context, method, path string, payload, result interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", KindGemini, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", KindGemini, err)
	}
	// Gemini authenticates via header, not URL, so keys never land in logs.
	req.Header.Set("x-goog-api-key", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", KindGemini, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", KindGemini, err)
	}
	if resp.StatusCode != http.StatusOK {
		return upstreamError(KindGemini, resp, raw)
	}
	if result != nil {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("schema violation: %s response: %w", KindGemini, err)
		}
	}
	return nil
}

var _ Client = (*geminiClient)(nil)
