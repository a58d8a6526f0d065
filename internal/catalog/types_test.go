// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestDecodeUserConfig(t *testing.T) {
	raw := `{"provider":"openai","apiKey":"sk-test-12345678","model":"gpt-5.2"}`

	for name, enc := range map[string]string{
		"raw url":  base64.RawURLEncoding.EncodeToString([]byte(raw)),
		"standard": base64.StdEncoding.EncodeToString([]byte(raw)),
	} {
		t.Run(name, func(t *testing.T) {
			cfg, err := DecodeUserConfig(enc)
			if err != nil {
				t.Fatalf("DecodeUserConfig() error = %v", err)
			}
			if cfg.Provider != "openai" || cfg.Model != "gpt-5.2" {
				t.Errorf("decoded config = %+v", cfg)
			}
		})
	}
}

func TestDecodeUserConfigErrors(t *testing.T) {
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name    string
		encoded string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"not json", enc("hello world")},
		{"missing api key", enc(`{"provider":"openai"}`)},
		{"short api key", enc(`{"provider":"openai","apiKey":"abc"}`)},
		{"unknown provider", enc(`{"provider":"skynet","apiKey":"sk-test-12345678"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeUserConfig(tt.encoded); err == nil {
				t.Error("DecodeUserConfig() = nil error, want error")
			}
		})
	}
}

func TestUserConfigHash(t *testing.T) {
	a := &UserConfig{Provider: "openai", APIKey: "sk-test-12345678"}
	b := &UserConfig{Provider: "openai", APIKey: "sk-test-12345678"}
	c := &UserConfig{Provider: "claude", APIKey: "sk-test-12345678"}

	if a.Hash() != b.Hash() {
		t.Error("identical configs should hash identically")
	}
	if a.Hash() == c.Hash() {
		t.Error("different providers should hash differently")
	}
	if strings.Contains(a.Hash(), a.APIKey) {
		t.Error("hash must not contain the raw API key")
	}
}

func TestUserConfigKind(t *testing.T) {
	cfg := &UserConfig{Provider: "OpenAI", APIKey: "sk-test-12345678"}
	if !cfg.Kind().Valid() {
		t.Errorf("Kind() = %q, want valid kind regardless of case", cfg.Kind())
	}
}
