// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package plex

// Plex API response structures. Every payload arrives wrapped in a
// MediaContainer; the client maps these into the typed models the core
// packages consume, so raw shapes never leave this package.

// metadataResponse is the generic wrapper for endpoints returning Metadata
// arrays (collections, members, item metadata).
type metadataResponse struct {
	MediaContainer metadataContainer `json:"MediaContainer"`
}

type metadataContainer struct {
	Size     int            `json:"size"`
	Metadata []metadataItem `json:"Metadata"`
}

// metadataItem is a single Metadata entry. Only the fields Curatarr consumes
// are mapped; Plex returns many more.
type metadataItem struct {
	RatingKey string `json:"ratingKey"`
	Key       string `json:"key"`
	Type      string `json:"type"` // "movie", "episode", "collection", ...
	Title     string `json:"title"`
	Year      int    `json:"year,omitempty"`

	// External metadata provider references, e.g. {"id": "tmdb://603"}.
	Guid []guidEntry `json:"Guid,omitempty"`

	// Community rating data, refreshed opportunistically by the ledger.
	AudienceRating      float64 `json:"audienceRating,omitempty"`
	AudienceRatingCount int     `json:"ratingCount,omitempty"`

	Media []mediaEntry `json:"Media,omitempty"`
}

type guidEntry struct {
	ID string `json:"id"`
}

// mediaEntry is one physical version of an item; each version can span
// several parts (files).
type mediaEntry struct {
	ID              int         `json:"id"`
	VideoResolution string      `json:"videoResolution,omitempty"`
	Part            []partEntry `json:"Part,omitempty"`
}

type partEntry struct {
	ID   int    `json:"id"`
	File string `json:"file,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// sectionsResponse wraps GET /library/sections.
type sectionsResponse struct {
	MediaContainer sectionsContainer `json:"MediaContainer"`
}

type sectionsContainer struct {
	Directory []sectionEntry `json:"Directory"`
}

type sectionEntry struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Type  string `json:"type"` // "movie", "show"
}

// identityResponse wraps GET /identity.
type identityResponse struct {
	MediaContainer identityContainer `json:"MediaContainer"`
}

type identityContainer struct {
	MachineIdentifier string `json:"machineIdentifier"`
	Version           string `json:"version"`
}

// hubManageResponse wraps GET /hubs/sections/{id}/manage, the managed-hub
// listing used for visibility and home-screen ordering.
type hubManageResponse struct {
	MediaContainer hubManageContainer `json:"MediaContainer"`
}

type hubManageContainer struct {
	Size int        `json:"size"`
	Hub  []hubEntry `json:"Hub"`
}

type hubEntry struct {
	Identifier string `json:"identifier"` // e.g. "custom-collection-61425"
	Title      string `json:"title"`
	Promoted   bool   `json:"promoted,omitempty"`
}

// collectionSortModes maps the reconciler's sort mode names to the numeric
// values of the collectionSort preference.
var collectionSortModes = map[string]string{
	"release":  "0",
	"alpha":    "1",
	"custom":   "2",
	"manual":   "2", // alias, same preference value
	"addedAt":  "3",
	"relative": "4",
}
