// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"fmt"
	"strings"
	"time"
)

// catalogFlavors adds a steering sentence per catalog ID. Unknown IDs
// fall through to a neutral prompt so new catalog names degrade
// gracefully.
var catalogFlavors = map[string]string{
	"discover":    "Mix well-known crowd pleasers with a few less obvious picks.",
	"hidden-gems": "Focus on critically appreciated titles most viewers have not heard of. Avoid blockbusters.",
	"trending":    "Focus on titles currently generating buzz and conversation.",
	"classics":    "Focus on enduring, widely acclaimed titles from past decades.",
}

// buildPrompt renders the provider prompt for a request. The temporal
// wording matches the fingerprint bucket so one cache entry always
// corresponds to one prompt context.
func buildPrompt(req *Request, count int, now time.Time) string {
	noun := "movies"
	if req.Category == "series" {
		noun = "TV series"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recommend exactly %d %s.\n", count, noun)
	if flavor, ok := catalogFlavors[req.CatalogID]; ok {
		b.WriteString(flavor)
		b.WriteString("\n")
	}
	if req.Genre != "" {
		fmt.Fprintf(&b, "Every title must belong to the %s genre.\n", req.Genre)
	}
	if req.Config.Language != "" {
		fmt.Fprintf(&b, "Prefer titles available in %s or with strong appeal to %s-speaking audiences.\n",
			req.Config.Language, req.Config.Language)
	}
	fmt.Fprintf(&b, "Context: it is %s on a %s in %s. Suit the picks to that viewing moment.\n",
		timeOfDay(now), dayType(now), season(now))
	b.WriteString("Only include real, released titles.")
	return b.String()
}
