// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package ledger

import (
	"context"
	"errors"

	"github.com/curatarr/curatarr/internal/models"
)

// ErrNotFound is returned by Get when no record matches.
var ErrNotFound = errors.New("candidate not found")

// CandidateFilter selects candidate records. Zero-valued fields match
// everything; IDs restricts to an identity set when non-nil.
type CandidateFilter struct {
	Owner   string
	Library string
	Status  models.CandidateStatus
	IDs     []string // rating keys
}

// Matches reports whether a record satisfies the filter.
func (f CandidateFilter) Matches(rec *models.CandidateRecord) bool {
	if f.Owner != "" && rec.Owner != f.Owner {
		return false
	}
	if f.Library != "" && rec.Library != f.Library {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if f.IDs != nil {
		found := false
		for _, id := range f.IDs {
			if rec.RatingKey == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// CandidateStore persists candidate records. The production implementation
// lives in internal/store on Badger.
//
// Update is status-scoped: the write applies only while the stored record
// still has the expected status, so concurrent cycles for different
// libraries cannot clobber a promotion with a stale decay.
type CandidateStore interface {
	Count(ctx context.Context, filter CandidateFilter) (int, error)
	Find(ctx context.Context, filter CandidateFilter) ([]models.CandidateRecord, error)
	Get(ctx context.Context, owner, library, ratingKey string) (*models.CandidateRecord, error)

	Create(ctx context.Context, rec *models.CandidateRecord) error
	// Update writes rec if the stored record's status equals ifStatus.
	// Returns false when the condition did not hold.
	Update(ctx context.Context, rec *models.CandidateRecord, ifStatus models.CandidateStatus) (bool, error)
	Upsert(ctx context.Context, rec *models.CandidateRecord) error

	Delete(ctx context.Context, owner, library, ratingKey string) error
	DeleteMany(ctx context.Context, filter CandidateFilter) (int, error)
}
