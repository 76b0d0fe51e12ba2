// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package curate

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/curatarr/curatarr/internal/logging"
	"github.com/curatarr/curatarr/internal/models"
)

// Job carries the cross-cutting context of one curation run: a stable id for
// log correlation and the dry-run flag. Core operations take a Job instead of
// reaching for ambient state.
type Job struct {
	ID     string
	DryRun bool

	log zerolog.Logger
}

// NewJob creates a job with a fresh id and a logger annotated with it.
func NewJob(name string, dryRun bool) *Job {
	id := uuid.NewString()
	return &Job{
		ID:     id,
		DryRun: dryRun,
		log:    logging.With().Str("job_id", id).Str("job", name).Logger(),
	}
}

// Log returns the job-scoped logger.
func (j *Job) Log() *zerolog.Logger {
	return &j.log
}

// CollectionTarget identifies the external collection one reconciliation
// manages.
type CollectionTarget struct {
	Library string `validate:"required"`
	Kind    string `validate:"required,oneof=movie show episode"`
	Name    string `validate:"required"`
}

// DesiredItem is one entry the reconciler must ensure is present, in order.
type DesiredItem struct {
	RatingKey string
	Title     string
}

// ReconcileReport is the structured outcome of one reconciliation. Per-item
// failures never abort the run; they surface here as counts.
type ReconcileReport struct {
	CollectionID string

	ExistingBefore int
	Added          int
	Removed        int
	Moved          int
	Skipped        int

	// FinalOrder holds member titles in their final order. When
	// OrderVerified is false the catalog listing never settled and the
	// requested order is reported instead.
	FinalOrder    []string
	OrderVerified bool
}

// MatchTier records which rule resolved a requested collection name.
type MatchTier string

const (
	MatchExact     MatchTier = "exact"
	MatchPreferred MatchTier = "preferred"
	MatchFallback  MatchTier = "fallback"
)

// MatchResult maps one requested curated-collection name to a resolved
// catalog identity.
type MatchResult struct {
	Requested    string
	CollectionID string
	Title        string
	Tier         MatchTier
}

// PinTarget selects which home screens a pinned family is promoted to.
type PinTarget string

const (
	PinOwner  PinTarget = "owner"
	PinShared PinTarget = "shared"
)

// PreferredTarget is a caller-supplied identity for a collection that may not
// be visible via listing yet, typically one the reconciler just created.
type PreferredTarget struct {
	Name         string
	CollectionID string
}

// PinRequest asks for a family of curated collections to be resolved, made
// visible, and ordered on the home screen.
type PinRequest struct {
	Library        string    `validate:"required"`
	RequestedOrder []string  `validate:"required,min=1"`
	Target         PinTarget `validate:"required,oneof=owner shared"`
	Preferred      []PreferredTarget
}

// PinReport is the structured outcome of one PinFamily call.
type PinReport struct {
	Matches []MatchResult
	// Missing lists requested names that resolved to nothing after all
	// match retries.
	Missing []string

	VisibilityFailures int
	OrderFailures      int
	// Ordered is true when every resolved hub was moved into place.
	Ordered bool
}

// ConsolidationPolicy governs which physical copy of a multi-copy movie is
// kept. Episodes ignore it and use a fixed resolution ranking.
type ConsolidationPolicy struct {
	// DeletePreference is "smallest_file" or "largest_file". "newest" and
	// "oldest" degrade to "smallest_file" with a warning since per-copy
	// timestamps are not available from the catalog.
	DeletePreference string
	// PreserveTerms are quality terms matched case-insensitively against
	// resolution and filename; a matching copy survives consolidation.
	PreserveTerms []string
}

// ConsolidationReport is the structured outcome of consolidating one item.
type ConsolidationReport struct {
	ItemID string
	DryRun bool

	// Kept is the single surviving copy. Unset when the item had at most
	// one copy and there was nothing to do.
	Kept models.MediaCopy

	// Removed lists copies deleted, or that would be deleted in dry run.
	Removed []models.MediaCopy

	// Failures lists copies that could not be deleted, including those
	// with no stable part identifier.
	Failures []string
}
