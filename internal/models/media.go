// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package models

// CollectionRef identifies a collection in the catalog by rating key and
// display title.
type CollectionRef struct {
	RatingKey string
	Title     string
}

// ItemRef identifies a member item of a collection.
type ItemRef struct {
	RatingKey string
	Title     string
}

// Visibility holds the promotion flags of a collection's presentation hub.
type Visibility struct {
	Recommended bool
	OwnHome     bool
	SharedHome  bool
}

// MediaCopy is one physical copy of a catalog item. PartID is the stable
// identifier required for deletion; a copy without one cannot be safely
// deleted.
type MediaCopy struct {
	PartID     string
	File       string
	Size       int64
	Resolution string
}

// ItemMetadata is the typed view of a catalog item's metadata used by the
// consolidator and the ledger. The catalog client is responsible for mapping
// the raw payload into this shape; core packages never see raw payloads.
type ItemMetadata struct {
	RatingKey string
	Title     string
	Type      string // "movie", "episode", ...
	Year      int

	// ExternalRefs holds cross-reference ids from metadata providers, e.g.
	// "tmdb://603" or "imdb://tt0133093".
	ExternalRefs []string

	RatingAverage float64
	RatingCount   int

	Copies []MediaCopy
}

// ExternalRef returns the first external reference matching the given provider
// prefix (e.g. "tmdb"), or "" if the item carries none.
func (m *ItemMetadata) ExternalRef(provider string) string {
	prefix := provider + "://"
	for _, ref := range m.ExternalRefs {
		if len(ref) > len(prefix) && ref[:len(prefix)] == prefix {
			return ref[len(prefix):]
		}
	}
	return ""
}
