// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

// Package models defines the shared domain types exchanged between the catalog
// client, the candidate ledger, and the curation engine.
package models

import (
	"fmt"
	"time"
)

// CandidateStatus is the lifecycle state of a tracked candidate.
type CandidateStatus string

const (
	// StatusPending marks a candidate that is desired but not yet present in
	// the catalog.
	StatusPending CandidateStatus = "pending"

	// StatusActive marks a candidate confirmed present in the catalog.
	StatusActive CandidateStatus = "active"
)

// CandidateRecord is a persisted per-user, per-library candidate with a
// decaying interest score.
//
// Invariants maintained by the ledger:
//   - 0 <= Points <= maxPoints for the cycle that wrote them
//   - StatusActive implies the item was present in the catalog when written
//   - a record decayed to zero points is deleted, never stored
type CandidateRecord struct {
	Owner     string          `json:"owner"`
	Library   string          `json:"library"`
	RatingKey string          `json:"rating_key"`
	Title     string          `json:"title"`
	TMDBID    string          `json:"tmdb_id,omitempty"`
	Status    CandidateStatus `json:"status"`
	Points    int             `json:"points"`

	// External rating metadata, refreshed opportunistically.
	RatingAverage float64 `json:"rating_average,omitempty"`
	RatingCount   int     `json:"rating_count,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the storage key identity (owner, library, rating key).
func (r *CandidateRecord) Key() string {
	return fmt.Sprintf("%s:%s:%s", r.Owner, r.Library, r.RatingKey)
}
