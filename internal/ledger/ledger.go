// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/curatarr/curatarr/internal/curate"
	"github.com/curatarr/curatarr/internal/metrics"
	"github.com/curatarr/curatarr/internal/models"
	"github.com/curatarr/curatarr/internal/validation"
)

// ratingBatchSize bounds how many catalog metadata fetches one activation
// issues back to back before yielding a progress log line.
const ratingBatchSize = 10

// SuggestedItem is one entry of a cycle's freshly computed suggestion set.
// InCatalog reports whether the item is physically present; the caller owns
// that check since presence is a catalog-side fact.
type SuggestedItem struct {
	RatingKey     string
	Title         string
	TMDBID        string
	RatingAverage float64
	RatingCount   int
	InCatalog     bool
}

// CycleSummary reports one scoring cycle's effects.
type CycleSummary struct {
	Created   int
	Refreshed int
	Promoted  int
	Decayed   int
	Evicted   int

	ActiveTotal  int
	PendingTotal int
}

// ActivationSummary reports an out-of-cycle promotion.
type ActivationSummary struct {
	Promoted         int
	RatingsRefreshed int
}

// Ledger evolves per-user, per-library candidate interest scores. Items gain
// full credit when suggested, decay by one point per cycle of non-selection,
// and age out at zero over exactly maxPoints cycles.
type Ledger struct {
	store   CandidateStore
	catalog curate.Catalog // optional, enables rating refresh on activation
}

// NewLedger creates a ledger over the given store. catalog may be nil.
func NewLedger(store CandidateStore, catalog curate.Catalog) *Ledger {
	return &Ledger{store: store, catalog: catalog}
}

type cycleInput struct {
	Owner     string `validate:"required"`
	Library   string `validate:"required"`
	MaxPoints int    `validate:"min=1"`
}

// ApplyPointsUpdate runs one scoring cycle. Suggested items are deduplicated
// by identity, credited or created, pending items present in the catalog are
// promoted, and every active record missing from the suggestion set decays by
// one point. Records that decay to zero are deleted.
//
// No transaction spans the cycle; partial application under crash is
// recovered by the next idempotent run.
func (l *Ledger) ApplyPointsUpdate(ctx context.Context, job *curate.Job, owner, library string, suggested []SuggestedItem, maxPoints int) (*CycleSummary, error) {
	if err := validation.ValidateStruct(&cycleInput{Owner: owner, Library: library, MaxPoints: maxPoints}); err != nil {
		return nil, err
	}

	log := job.Log().With().Str("owner", owner).Str("library", library).Logger()
	summary := &CycleSummary{}
	now := time.Now().UTC()

	deduped := dedupeSuggested(suggested)
	log.Info().Int("suggested", len(deduped)).Int("max_points", maxPoints).Msg("Applying candidate scoring cycle")

	suggestedSet := make(map[string]struct{}, len(deduped))
	for _, item := range deduped {
		suggestedSet[item.RatingKey] = struct{}{}
		if err := l.applySuggested(ctx, owner, library, item, maxPoints, now, summary); err != nil {
			return nil, err
		}
	}

	if err := l.decayUnselected(ctx, job, owner, library, suggestedSet, summary, now); err != nil {
		return nil, err
	}

	metrics.LedgerCycles.Inc()
	if active, err := l.store.Count(ctx, CandidateFilter{Owner: owner, Library: library, Status: models.StatusActive}); err == nil {
		summary.ActiveTotal = active
		metrics.LedgerCandidates.WithLabelValues(string(models.StatusActive)).Set(float64(active))
	}
	if pending, err := l.store.Count(ctx, CandidateFilter{Owner: owner, Library: library, Status: models.StatusPending}); err == nil {
		summary.PendingTotal = pending
		metrics.LedgerCandidates.WithLabelValues(string(models.StatusPending)).Set(float64(pending))
	}

	log.Info().
		Int("created", summary.Created).
		Int("refreshed", summary.Refreshed).
		Int("promoted", summary.Promoted).
		Int("decayed", summary.Decayed).
		Int("evicted", summary.Evicted).
		Msg("Scoring cycle complete")

	return summary, nil
}

// applySuggested credits one deduplicated suggestion.
func (l *Ledger) applySuggested(ctx context.Context, owner, library string, item SuggestedItem, maxPoints int, now time.Time, summary *CycleSummary) error {
	existing, err := l.store.Get(ctx, owner, library, item.RatingKey)
	if errors.Is(err, ErrNotFound) {
		rec := &models.CandidateRecord{
			Owner:         owner,
			Library:       library,
			RatingKey:     item.RatingKey,
			Title:         item.Title,
			TMDBID:        item.TMDBID,
			RatingAverage: item.RatingAverage,
			RatingCount:   item.RatingCount,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if item.InCatalog {
			rec.Status = models.StatusActive
			rec.Points = maxPoints
		} else {
			rec.Status = models.StatusPending
			rec.Points = 0
		}
		if err := l.store.Create(ctx, rec); err != nil {
			return err
		}
		summary.Created++
		return nil
	}
	if err != nil {
		return err
	}

	refreshMetadata(existing, item)
	existing.UpdatedAt = now

	switch {
	case existing.Status == models.StatusActive:
		// Full credit for being suggested again.
		existing.Points = maxPoints
		if _, err := l.store.Update(ctx, existing, models.StatusActive); err != nil {
			return err
		}
		summary.Refreshed++

	case item.InCatalog:
		existing.Status = models.StatusActive
		existing.Points = maxPoints
		if _, err := l.store.Update(ctx, existing, models.StatusPending); err != nil {
			return err
		}
		summary.Promoted++

	default:
		// Still pending and still absent; metadata refresh only.
		if _, err := l.store.Update(ctx, existing, models.StatusPending); err != nil {
			return err
		}
		summary.Refreshed++
	}
	return nil
}

// decayUnselected decrements every active record missing from the cycle's
// suggestion set and evicts any that reach zero.
func (l *Ledger) decayUnselected(ctx context.Context, job *curate.Job, owner, library string, suggestedSet map[string]struct{}, summary *CycleSummary, now time.Time) error {
	active, err := l.store.Find(ctx, CandidateFilter{Owner: owner, Library: library, Status: models.StatusActive})
	if err != nil {
		return err
	}

	log := job.Log()
	for i := range active {
		rec := &active[i]
		if _, ok := suggestedSet[rec.RatingKey]; ok {
			continue
		}

		rec.Points--
		rec.UpdatedAt = now
		if rec.Points <= 0 {
			// An active record never sits at zero; it is evicted instead.
			if err := l.store.Delete(ctx, owner, library, rec.RatingKey); err != nil {
				return err
			}
			summary.Evicted++
			metrics.LedgerEvictions.Inc()
			log.Info().Str("item", rec.RatingKey).Str("title", rec.Title).Msg("Candidate aged out")
			continue
		}
		if _, err := l.store.Update(ctx, rec, models.StatusActive); err != nil {
			return err
		}
		summary.Decayed++
	}
	return nil
}

type activationInput struct {
	Owner   string `validate:"required"`
	Library string `validate:"required"`
	Points  int    `validate:"min=1"`
}

// ActivatePendingNowInPlex promotes specific pending candidates as soon as
// they become physically available, outside the regular cycle. When a catalog
// is configured, external rating metadata is refreshed in small batches
// before the promotion is written.
func (l *Ledger) ActivatePendingNowInPlex(ctx context.Context, job *curate.Job, owner, library string, ids []string, pointsOnActivation int) (*ActivationSummary, error) {
	if err := validation.ValidateStruct(&activationInput{Owner: owner, Library: library, Points: pointsOnActivation}); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return &ActivationSummary{}, nil
	}

	log := job.Log().With().Str("owner", owner).Str("library", library).Logger()

	pending, err := l.store.Find(ctx, CandidateFilter{
		Owner:   owner,
		Library: library,
		Status:  models.StatusPending,
		IDs:     ids,
	})
	if err != nil {
		return nil, err
	}

	summary := &ActivationSummary{}
	now := time.Now().UTC()
	for i := range pending {
		rec := &pending[i]

		if l.catalog != nil {
			if meta, err := l.catalog.GetItemMetadata(ctx, rec.RatingKey); err == nil {
				rec.RatingAverage = meta.RatingAverage
				rec.RatingCount = meta.RatingCount
				summary.RatingsRefreshed++
			}
			if summary.RatingsRefreshed > 0 && summary.RatingsRefreshed%ratingBatchSize == 0 {
				log.Debug().Int("refreshed", summary.RatingsRefreshed).Msg("Rating refresh progress")
			}
		}

		rec.Status = models.StatusActive
		rec.Points = pointsOnActivation
		rec.UpdatedAt = now
		applied, err := l.store.Update(ctx, rec, models.StatusPending)
		if err != nil {
			return nil, err
		}
		if applied {
			summary.Promoted++
		}
	}

	log.Info().Int("promoted", summary.Promoted).Int("requested", len(ids)).Msg("Pending candidates activated")
	return summary, nil
}

// dedupeSuggested collapses duplicate identities: the first-seen title wins
// and later duplicates only fill gaps in the other fields.
func dedupeSuggested(suggested []SuggestedItem) []SuggestedItem {
	seen := make(map[string]int, len(suggested))
	deduped := make([]SuggestedItem, 0, len(suggested))
	for _, item := range suggested {
		if item.RatingKey == "" {
			continue
		}
		idx, ok := seen[item.RatingKey]
		if !ok {
			seen[item.RatingKey] = len(deduped)
			deduped = append(deduped, item)
			continue
		}
		first := &deduped[idx]
		if first.TMDBID == "" {
			first.TMDBID = item.TMDBID
		}
		if first.RatingAverage == 0 {
			first.RatingAverage = item.RatingAverage
		}
		if first.RatingCount == 0 {
			first.RatingCount = item.RatingCount
		}
		first.InCatalog = first.InCatalog || item.InCatalog
	}
	return deduped
}

// refreshMetadata fills an existing record from a fresh suggestion without
// overwriting known values with blanks.
func refreshMetadata(rec *models.CandidateRecord, item SuggestedItem) {
	if item.Title != "" {
		rec.Title = item.Title
	}
	if item.TMDBID != "" {
		rec.TMDBID = item.TMDBID
	}
	if item.RatingAverage != 0 {
		rec.RatingAverage = item.RatingAverage
	}
	if item.RatingCount != 0 {
		rec.RatingCount = item.RatingCount
	}
}
