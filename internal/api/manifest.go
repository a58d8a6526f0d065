// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

// Manifest is the addon descriptor served at /manifest.json, shaped
// for Stremio-compatible clients.
type Manifest struct {
	ID          string            `json:"id"`
	Version     string            `json:"version"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Resources   []string          `json:"resources"`
	Types       []string          `json:"types"`
	Catalogs    []ManifestCatalog `json:"catalogs"`
	Behavior    BehaviorHints     `json:"behaviorHints"`
}

// ManifestCatalog describes one catalog the addon offers.
type ManifestCatalog struct {
	Type  string       `json:"type"`
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Extra []ExtraField `json:"extra,omitempty"`
}

// ExtraField describes an optional catalog parameter such as a genre
// filter.
type ExtraField struct {
	Name       string   `json:"name"`
	Options    []string `json:"options,omitempty"`
	IsRequired bool     `json:"isRequired"`
}

// BehaviorHints signals client-side behavior.
type BehaviorHints struct {
	Configurable          bool `json:"configurable"`
	ConfigurationRequired bool `json:"configurationRequired"`
}

// catalogDefs is the fixed set of catalogs the addon exposes, one row
// per flavor; each row is served for both movies and series.
var catalogDefs = []struct {
	ID   string
	Name string
}{
	{"discover", "AI Discover"},
	{"hidden-gems", "AI Hidden Gems"},
	{"trending", "AI Trending"},
	{"classics", "AI Classics"},
}

// genreOptions feeds the genre extra field in the manifest.
var genreOptions = []string{
	"Action", "Adventure", "Animation", "Comedy", "Crime", "Documentary",
	"Drama", "Family", "Fantasy", "History", "Horror", "Music", "Mystery",
	"Romance", "Sci-Fi", "Thriller", "War", "Western",
}

// buildManifest renders the manifest. configured controls whether the
// client is told it still needs to supply a user config.
func buildManifest(version string, configured bool) *Manifest {
	m := &Manifest{
		ID:          "community.screenscout",
		Version:     version,
		Name:        "Screenscout",
		Description: "AI-generated movie and series catalogs, refreshed with the time of day.",
		Resources:   []string{"catalog"},
		Types:       []string{"movie", "series"},
		Behavior: BehaviorHints{
			Configurable:          true,
			ConfigurationRequired: !configured,
		},
	}
	if !configured {
		return m
	}

	extra := []ExtraField{{Name: "genre", Options: genreOptions}}
	for _, category := range m.Types {
		for _, def := range catalogDefs {
			m.Catalogs = append(m.Catalogs, ManifestCatalog{
				Type:  category,
				ID:    def.ID,
				Name:  def.Name,
				Extra: extra,
			})
		}
	}
	return m
}
