// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package curate

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/curatarr/curatarr/internal/metrics"
	"github.com/curatarr/curatarr/internal/models"
	"github.com/curatarr/curatarr/internal/validation"
)

// Polling budgets. The catalog's inconsistency windows are short (hundreds of
// milliseconds to a few seconds), so fixed intervals without backoff are
// sufficient. Tunable constants, not load-bearing invariants.
const (
	deleteConfirmAttempts = 20
	deleteConfirmInterval = 250 * time.Millisecond

	identityAttempts = 25
	identityInterval = 400 * time.Millisecond

	orderSettleAttempts = 10
	orderSettleInterval = 300 * time.Millisecond

	// progressBatch controls how often bulk member operations log progress.
	progressBatch = 100

	// The catalog falls behind under sustained mutation bursts; a short
	// settle pause every pacingEvery writes keeps read-backs meaningful.
	pacingEvery = 50
	pacingDelay = 1 * time.Second
)

// Reconciler drives the catalog so that one named collection's membership
// and order exactly match a desired item list. It tolerates the catalog's
// unreliability with bounded confirmation polling; per-item failures never
// abort a run and are aggregated into the report.
//
// Not safe for concurrent invocations against the same target collection.
type Reconciler struct {
	catalog Catalog
	artwork *ArtworkStore // nil disables cosmetic artwork
}

// NewReconciler creates a reconciler over the given catalog. artwork may be
// nil.
func NewReconciler(catalog Catalog, artwork *ArtworkStore) *Reconciler {
	return &Reconciler{catalog: catalog, artwork: artwork}
}

// Reconcile makes the target collection's member set and custom order equal
// desired. An empty desired list deletes any existing collection and creates
// nothing. Only structurally invalid input or total failure to resolve a
// collection identity returns an error; everything else lands in the report.
//
// In dry-run mode the catalog is read but never mutated; the report carries
// the would-be counts.
func (r *Reconciler) Reconcile(ctx context.Context, job *Job, target CollectionTarget, desired []DesiredItem) (*ReconcileReport, error) {
	if err := validation.ValidateStruct(&target); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.ReconcileDuration.Observe(time.Since(start).Seconds())
	}()

	log := job.Log().With().Str("collection", target.Name).Str("library", target.Library).Logger()
	log.Info().Int("desired", len(desired)).Msg("Reconciling collection")

	report := &ReconcileReport{}

	// Step 1: locate existing collections whose title semantically matches
	// the target name. An exact-title match is reused in place so repeated
	// reconciliations converge with zero adds and removes; semantic
	// variants (punctuation, casing, stray duplicates) are rebuilt.
	reuseID, stale, err := r.locate(ctx, target)
	if err != nil {
		metrics.ReconcileRuns.WithLabelValues(target.Name, "failed").Inc()
		return nil, err
	}
	report.ExistingBefore = len(stale)
	if reuseID != "" {
		report.ExistingBefore++
	}

	if job.DryRun {
		report.Added = len(desired)
		report.Removed = len(stale)
		report.FinalOrder = desiredTitles(desired)
		log.Info().Int("would_add", report.Added).Int("would_delete", report.Removed).Msg("Dry run, no catalog mutations issued")
		metrics.ReconcileRuns.WithLabelValues(target.Name, "success").Inc()
		return report, nil
	}

	if len(desired) == 0 {
		if reuseID != "" {
			stale = append(stale, reuseID)
		}
		r.clear(ctx, log, target.Library, stale)
		log.Info().Msg("Desired list empty, collection left deleted")
		metrics.ReconcileRuns.WithLabelValues(target.Name, "success").Inc()
		return report, nil
	}

	// Step 2: clear the stale variants and confirm the deletes landed.
	r.clear(ctx, log, target.Library, stale)

	// Step 3: reconcile the reused collection's membership, or strip a
	// variant that survived its delete so repopulation starts from empty.
	collectionID := reuseID
	if collectionID != "" {
		r.trimExtras(ctx, log, collectionID, desired, report)
	} else {
		collectionID = r.recheck(ctx, log, target, report)
	}

	// Step 4: make sure a container exists. A seed item placed by the
	// create call still counts as added.
	seededID := ""
	if collectionID == "" {
		var seeded bool
		collectionID, seeded, err = r.ensureContainer(ctx, log, target, desired)
		if err != nil {
			metrics.ReconcileRuns.WithLabelValues(target.Name, "failed").Inc()
			return nil, err
		}
		if seeded {
			seededID = desired[0].RatingKey
		}
	}
	report.CollectionID = collectionID

	// Step 5: add every desired item not already a member.
	r.populate(ctx, log, collectionID, desired, seededID, report)

	// Step 6: force manual sorting and chain the items into desired order.
	r.order(ctx, log, collectionID, desired, report)

	// Step 7: best-effort read-back of the settled order.
	r.verifyOrder(ctx, log, collectionID, desired, report)

	// Step 8: cosmetic finishing, independently non-fatal.
	if r.artwork != nil && report.Added+report.ExistingBefore > 0 {
		r.artwork.Apply(ctx, r.catalog, collectionID, target.Name)
	}

	outcome := "success"
	if report.Skipped > 0 {
		outcome = "partial"
	}
	metrics.ReconcileRuns.WithLabelValues(target.Name, outcome).Inc()

	log.Info().
		Int("added", report.Added).
		Int("removed", report.Removed).
		Int("moved", report.Moved).
		Int("skipped", report.Skipped).
		Bool("order_verified", report.OrderVerified).
		Msg("Reconciliation complete")

	return report, nil
}

// locate finds every existing collection whose title matches the target name
// under normalization. The first exact-title match becomes the reuse
// candidate; every other match is stale and gets rebuilt.
func (r *Reconciler) locate(ctx context.Context, target CollectionTarget) (reuseID string, stale []string, err error) {
	existing, err := r.catalog.ListCollections(ctx, target.Library)
	if err != nil {
		return "", nil, fmt.Errorf("list collections in %q: %w", target.Library, err)
	}

	wantKey := normalizeName(target.Name)
	for _, c := range existing {
		if normalizeName(c.Title) != wantKey {
			continue
		}
		if reuseID == "" && c.Title == target.Name {
			reuseID = c.RatingKey
			continue
		}
		stale = append(stale, c.RatingKey)
	}
	return reuseID, stale, nil
}

// trimExtras removes members of a reused collection that are no longer
// desired. Kept members are left alone so an already-converged collection
// reconciles with zero adds and removes.
func (r *Reconciler) trimExtras(ctx context.Context, log zerolog.Logger, collectionID string, desired []DesiredItem, report *ReconcileReport) {
	want := make(map[string]struct{}, len(desired))
	for _, item := range desired {
		want[item.RatingKey] = struct{}{}
	}

	members, err := r.catalog.GetMembers(ctx, collectionID)
	if err != nil {
		log.Warn().Err(err).Msg("Member listing failed before trim")
		return
	}

	mutations := 0
	for _, m := range members {
		if _, ok := want[m.RatingKey]; ok {
			continue
		}
		if err := r.catalog.RemoveMember(ctx, collectionID, m.RatingKey); err != nil {
			log.Warn().Err(err).Str("item", m.RatingKey).Msg("Member removal failed")
			report.Skipped++
			continue
		}
		report.Removed++
		metrics.ReconcileItems.WithLabelValues("removed").Inc()
		mutations++
		r.pace(ctx, mutations)
	}
}

// clear deletes the stale collections and polls the listing until they are
// gone or the budget runs out. Exhausting the budget is non-fatal; the
// recheck step picks up any survivor.
func (r *Reconciler) clear(ctx context.Context, log zerolog.Logger, library string, stale []string) {
	if len(stale) == 0 {
		return
	}

	for _, id := range stale {
		if err := r.catalog.DeleteCollection(ctx, id); err != nil {
			log.Warn().Err(err).Str("id", id).Msg("Collection delete failed")
		}
	}

	pending := make(map[string]struct{}, len(stale))
	for _, id := range stale {
		pending[id] = struct{}{}
	}

	for attempt := 0; attempt < deleteConfirmAttempts; attempt++ {
		listing, err := r.catalog.ListCollections(ctx, library)
		if err == nil {
			found := false
			for _, c := range listing {
				if _, ok := pending[c.RatingKey]; ok {
					found = true
					break
				}
			}
			if !found {
				log.Debug().Int("attempts", attempt+1).Msg("Collection deletes confirmed")
				return
			}
		}
		if sleepCtx(ctx, deleteConfirmInterval) != nil {
			return
		}
	}
	log.Warn().Msg("Delete confirmation budget exhausted, proceeding")
}

// recheck finds a collection that survived clearing and strips its members so
// repopulation starts from empty. Returns the survivor's id, or "".
func (r *Reconciler) recheck(ctx context.Context, log zerolog.Logger, target CollectionTarget, report *ReconcileReport) string {
	collectionID, err := r.catalog.FindCollectionByName(ctx, target.Library, target.Name)
	if err != nil || collectionID == "" {
		return ""
	}

	members, err := r.catalog.GetMembers(ctx, collectionID)
	if err != nil || len(members) == 0 {
		return collectionID
	}

	log.Info().Int("members", len(members)).Str("id", collectionID).Msg("Collection survived delete, removing members in place")
	for i, m := range members {
		if err := r.catalog.RemoveMember(ctx, collectionID, m.RatingKey); err != nil {
			log.Warn().Err(err).Str("item", m.RatingKey).Msg("Member removal failed")
			report.Skipped++
		} else {
			report.Removed++
			metrics.ReconcileItems.WithLabelValues("removed").Inc()
		}
		logProgress(log, "removed", i+1, len(members))
		r.pace(ctx, i+1)
	}
	return collectionID
}

// ensureContainer creates the collection, seeding it with the first desired
// item. Seeded creation is more failure-prone than an empty one, so a failed
// seeded create is retried unseeded. When the server does not echo the new
// identity, the listing is polled until the name appears.
func (r *Reconciler) ensureContainer(ctx context.Context, log zerolog.Logger, target CollectionTarget, desired []DesiredItem) (string, bool, error) {
	seeded := true
	id, err := r.catalog.CreateCollection(ctx, target.Library, target.Name, target.Kind, desired[0].RatingKey)
	if err != nil {
		log.Warn().Err(err).Msg("Seeded collection create failed, retrying without seed")
		seeded = false
		id, err = r.catalog.CreateCollection(ctx, target.Library, target.Name, target.Kind, "")
		if err != nil {
			return "", false, fmt.Errorf("create collection %q: %w", target.Name, err)
		}
	}
	if id != "" {
		log.Debug().Str("id", id).Msg("Collection created")
		return id, seeded, nil
	}

	// Identity not echoed; discover it by polling.
	for attempt := 0; attempt < identityAttempts; attempt++ {
		id, err := r.catalog.FindCollectionByName(ctx, target.Library, target.Name)
		if err == nil && id != "" {
			log.Debug().Str("id", id).Int("attempts", attempt+1).Msg("Collection identity discovered")
			return id, seeded, nil
		}
		if serr := sleepCtx(ctx, identityInterval); serr != nil {
			return "", false, serr
		}
	}
	return "", false, fmt.Errorf("collection %q never appeared after creation (%d attempts)", target.Name, identityAttempts)
}

// populate adds every desired item not already a member. The just-created
// container may hold the seed item, so current members are inspected first to
// avoid duplicate-add side effects.
func (r *Reconciler) populate(ctx context.Context, log zerolog.Logger, collectionID string, desired []DesiredItem, seededID string, report *ReconcileReport) {
	present := make(map[string]struct{})
	if members, err := r.catalog.GetMembers(ctx, collectionID); err == nil {
		for _, m := range members {
			present[m.RatingKey] = struct{}{}
		}
	}

	mutations := 0
	for i, item := range desired {
		if _, ok := present[item.RatingKey]; ok {
			if item.RatingKey == seededID {
				// Placed by the seeded create call.
				report.Added++
				metrics.ReconcileItems.WithLabelValues("added").Inc()
			}
			logProgress(log, "populated", i+1, len(desired))
			continue
		}
		if err := r.catalog.AddMember(ctx, collectionID, item.RatingKey); err != nil {
			log.Warn().Err(err).Str("item", item.RatingKey).Str("title", item.Title).Msg("Member add failed")
			report.Skipped++
		} else {
			report.Added++
			metrics.ReconcileItems.WithLabelValues("added").Inc()
		}
		mutations++
		logProgress(log, "populated", i+1, len(desired))
		r.pace(ctx, mutations)
	}
}

// order switches the collection to manual sorting and chains each item after
// the previously placed one. Moves only have an effect once the sort mode is
// custom.
func (r *Reconciler) order(ctx context.Context, log zerolog.Logger, collectionID string, desired []DesiredItem, report *ReconcileReport) {
	if err := r.catalog.SetSortMode(ctx, collectionID, "custom"); err != nil {
		log.Warn().Err(err).Msg("Setting manual sort mode failed, moves may not stick")
	}

	// A failed move leaves that item's position unknown; the chain continues
	// after the last item actually placed.
	prev := ""
	for _, item := range desired {
		if err := r.catalog.MoveMember(ctx, collectionID, item.RatingKey, prev); err != nil {
			log.Warn().Err(err).Str("item", item.RatingKey).Msg("Member move failed")
			report.Skipped++
			continue
		}
		report.Moved++
		metrics.ReconcileItems.WithLabelValues("moved").Inc()
		prev = item.RatingKey
	}
}

// verifyOrder polls the member listing until its identity set equals the
// desired set, then reports the read-back order as final. The set comparison
// comes first because a not-yet-settled listing can transiently hold the
// right items in the wrong order. On budget exhaustion the requested order is
// reported, flagged unverified.
func (r *Reconciler) verifyOrder(ctx context.Context, log zerolog.Logger, collectionID string, desired []DesiredItem, report *ReconcileReport) {
	want := make(map[string]struct{}, len(desired))
	for _, item := range desired {
		want[item.RatingKey] = struct{}{}
	}

	for attempt := 0; attempt < orderSettleAttempts; attempt++ {
		members, err := r.catalog.GetMembers(ctx, collectionID)
		if err == nil && memberSetEquals(members, want) {
			report.FinalOrder = make([]string, 0, len(members))
			for _, m := range members {
				report.FinalOrder = append(report.FinalOrder, m.Title)
			}
			report.OrderVerified = true
			return
		}
		if sleepCtx(ctx, orderSettleInterval) != nil {
			break
		}
	}

	log.Warn().Msg("Member listing never settled, reporting requested order")
	report.FinalOrder = desiredTitles(desired)
	report.OrderVerified = false
}

// pace pauses after every pacingEvery-th mutation.
func (r *Reconciler) pace(ctx context.Context, mutations int) {
	if mutations > 0 && mutations%pacingEvery == 0 {
		_ = sleepCtx(ctx, pacingDelay)
	}
}

func memberSetEquals(members []models.ItemRef, want map[string]struct{}) bool {
	if len(members) != len(want) {
		return false
	}
	for _, m := range members {
		if _, ok := want[m.RatingKey]; !ok {
			return false
		}
	}
	return true
}

func desiredTitles(desired []DesiredItem) []string {
	titles := make([]string, 0, len(desired))
	for _, item := range desired {
		titles = append(titles, item.Title)
	}
	return titles
}

// logProgress emits one progress line per progressBatch items and a final one
// at the end of the batch.
func logProgress(log zerolog.Logger, action string, done, total int) {
	if done%progressBatch == 0 || done == total {
		log.Info().Str("action", action).Int("done", done).Int("total", total).Msg("Progress")
	}
}

// sleepCtx sleeps for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
