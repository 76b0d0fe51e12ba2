// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package service

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/curatarr/curatarr/internal/ledger"
)

// SuggestionSource supplies the "currently suggested" set for a scoring
// cycle. How suggestions are computed is outside Curatarr; the source is the
// boundary where an external recommender hands its output over.
type SuggestionSource interface {
	Fetch() ([]ledger.SuggestedItem, error)
}

// suggestionEntry is the on-disk shape of one suggested item.
type suggestionEntry struct {
	RatingKey     string  `json:"rating_key"`
	Title         string  `json:"title"`
	TMDBID        string  `json:"tmdb_id,omitempty"`
	RatingAverage float64 `json:"rating_average,omitempty"`
	RatingCount   int     `json:"rating_count,omitempty"`
	InCatalog     bool    `json:"in_catalog"`
}

// FileSource reads a suggestion set from a JSON file dropped by an external
// recommender. The file is re-read on every fetch so the recommender can
// replace it between cycles.
//
// A missing or unreadable file is an error, not an empty set: an empty set
// decays every active candidate, and a recommender outage must not trigger
// mass eviction.
type FileSource struct {
	path string
}

// NewFileSource creates a file-backed suggestion source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Fetch implements SuggestionSource.
func (f *FileSource) Fetch() ([]ledger.SuggestedItem, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read suggestions file: %w", err)
	}

	var entries []suggestionEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse suggestions file %s: %w", f.path, err)
	}

	items := make([]ledger.SuggestedItem, 0, len(entries))
	for _, e := range entries {
		if e.RatingKey == "" {
			continue // entries without an identity cannot be scored
		}
		items = append(items, ledger.SuggestedItem{
			RatingKey:     e.RatingKey,
			Title:         e.Title,
			TMDBID:        e.TMDBID,
			RatingAverage: e.RatingAverage,
			RatingCount:   e.RatingCount,
			InCatalog:     e.InCatalog,
		})
	}
	return items, nil
}
