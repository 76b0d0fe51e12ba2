// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package curate

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/curatarr/curatarr/internal/metrics"
	"github.com/curatarr/curatarr/internal/models"
	"github.com/curatarr/curatarr/internal/validation"
)

const (
	matchAttempts = 6
	matchInterval = 400 * time.Millisecond

	// Hub entities lag behind collection creation, sometimes by seconds.
	hubIDAttempts = 8
	hubIDInterval = 300 * time.Millisecond
)

// HubResolver resolves a family of curated collections across naming
// variants, sets their home-screen promotion flags, and establishes a fixed
// display order among them.
type HubResolver struct {
	catalog Catalog
}

// NewHubResolver creates a resolver over the given catalog.
func NewHubResolver(catalog Catalog) *HubResolver {
	return &HubResolver{catalog: catalog}
}

// PinFamily resolves each requested name to a catalog collection, promotes
// the matches per the pin target, and orders their hubs to appear in the
// requested sequence. Per-target visibility and ordering failures are
// non-fatal and counted in the report.
func (h *HubResolver) PinFamily(ctx context.Context, job *Job, req PinRequest) (*PinReport, error) {
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, err
	}

	log := job.Log().With().Str("library", req.Library).Logger()
	log.Info().Strs("requested", req.RequestedOrder).Str("target", string(req.Target)).Msg("Pinning collection family")

	report := &PinReport{}

	matches, missing := h.resolveWithRetry(ctx, log, req)
	report.Matches = matches
	report.Missing = missing
	for _, name := range missing {
		log.Warn().Str("requested", name).Msg("No collection resolved for requested name")
		metrics.HubPinFailures.Inc()
	}

	if job.DryRun {
		log.Info().Int("resolved", len(matches)).Msg("Dry run, visibility and ordering skipped")
		return report, nil
	}

	h.applyVisibility(ctx, log, req, matches, report)
	h.orderHubs(ctx, log, req, matches, report)

	log.Info().
		Int("resolved", len(matches)).
		Int("missing", len(missing)).
		Int("visibility_failures", report.VisibilityFailures).
		Int("order_failures", report.OrderFailures).
		Bool("ordered", report.Ordered).
		Msg("Family pinning complete")

	return report, nil
}

// resolveWithRetry runs the full match pass against a fresh collection
// listing until every requested name resolves or the budget runs out.
// Permanently missing names are reported, not fatal.
func (h *HubResolver) resolveWithRetry(ctx context.Context, log zerolog.Logger, req PinRequest) (matches []MatchResult, missing []string) {
	for attempt := 0; attempt < matchAttempts; attempt++ {
		collections, err := h.catalog.ListCollections(ctx, req.Library)
		if err != nil {
			log.Warn().Err(err).Msg("Collection listing failed during match")
		} else {
			matches, missing = resolveFamily(req.RequestedOrder, collections, req.Preferred)
			if len(missing) == 0 {
				return matches, nil
			}
			log.Debug().Strs("missing", missing).Int("attempt", attempt+1).Msg("Match incomplete, re-listing")
		}
		if sleepCtx(ctx, matchInterval) != nil {
			break
		}
	}
	return matches, missing
}

// resolveFamily matches requested names to collections in priority order.
// Each collection and each preferred identity is consumable once.
//
// Tiers per requested name:
//  1. exact: normalized title equals the normalized requested name;
//  2. preferred: a caller-supplied identity (typically a collection created
//     moments ago and not yet listed) whose base name matches;
//  3. fallback: any remaining collection with a matching base name,
//     preferring one whose per-user suffix matches, else the alphabetically
//     first normalized title.
func resolveFamily(requested []string, collections []models.CollectionRef, preferred []PreferredTarget) (matches []MatchResult, missing []string) {
	usedCollections := make(map[string]bool)
	usedPreferred := make(map[int]bool)

	for _, name := range requested {
		if m, ok := matchExact(name, collections, usedCollections); ok {
			matches = append(matches, m)
			continue
		}
		if m, ok := matchPreferred(name, preferred, usedPreferred, usedCollections); ok {
			matches = append(matches, m)
			continue
		}
		if m, ok := matchFallback(name, collections, usedCollections); ok {
			matches = append(matches, m)
			continue
		}
		missing = append(missing, name)
	}
	return matches, missing
}

func matchExact(name string, collections []models.CollectionRef, used map[string]bool) (MatchResult, bool) {
	wantKey := normalizeName(name)
	for _, c := range collections {
		if used[c.RatingKey] || normalizeName(c.Title) != wantKey {
			continue
		}
		used[c.RatingKey] = true
		return MatchResult{Requested: name, CollectionID: c.RatingKey, Title: c.Title, Tier: MatchExact}, true
	}
	return MatchResult{}, false
}

func matchPreferred(name string, preferred []PreferredTarget, usedPreferred map[int]bool, usedCollections map[string]bool) (MatchResult, bool) {
	wantBase := baseKey(name)
	for i, p := range preferred {
		if usedPreferred[i] || usedCollections[p.CollectionID] || p.CollectionID == "" {
			continue
		}
		if baseKey(p.Name) != wantBase {
			continue
		}
		usedPreferred[i] = true
		usedCollections[p.CollectionID] = true
		return MatchResult{Requested: name, CollectionID: p.CollectionID, Title: p.Name, Tier: MatchPreferred}, true
	}
	return MatchResult{}, false
}

func matchFallback(name string, collections []models.CollectionRef, used map[string]bool) (MatchResult, bool) {
	wantBase := baseKey(name)
	wantSuffix := suffixKey(name)

	var candidates []models.CollectionRef
	for _, c := range collections {
		if !used[c.RatingKey] && baseKey(c.Title) == wantBase {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return MatchResult{}, false
	}

	// Prefer a matching per-user suffix, then the alphabetically first
	// normalized title so ties resolve deterministically.
	sort.SliceStable(candidates, func(i, j int) bool {
		si := suffixKey(candidates[i].Title) == wantSuffix
		sj := suffixKey(candidates[j].Title) == wantSuffix
		if si != sj {
			return si
		}
		return normalizeName(candidates[i].Title) < normalizeName(candidates[j].Title)
	})

	c := candidates[0]
	used[c.RatingKey] = true
	return MatchResult{Requested: name, CollectionID: c.RatingKey, Title: c.Title, Tier: MatchFallback}, true
}

// applyVisibility sets the promotion flags for each resolved collection.
// Owner mode promotes to recommended and the owner's home; shared mode to
// recommended and shared users' homes.
func (h *HubResolver) applyVisibility(ctx context.Context, log zerolog.Logger, req PinRequest, matches []MatchResult, report *PinReport) {
	vis := models.Visibility{Recommended: true, OwnHome: req.Target == PinOwner, SharedHome: req.Target == PinShared}

	for _, m := range matches {
		if err := h.catalog.SetVisibility(ctx, req.Library, m.CollectionID, vis); err != nil {
			log.Warn().Err(err).Str("collection", m.Title).Msg("Setting hub visibility failed")
			report.VisibilityFailures++
			metrics.HubPinFailures.Inc()
		}
	}
}

// orderHubs fetches each match's hub identifier, then reorders by moving each
// hub to the very top, iterating from the last requested item to the first.
// "Move to top" always wins, so after the final move the first-requested hub
// sits on top. Chained "after" moves are unstable under the catalog's weak
// read-after-write guarantees; this strategy avoids them entirely.
func (h *HubResolver) orderHubs(ctx context.Context, log zerolog.Logger, req PinRequest, matches []MatchResult, report *PinReport) {
	hubIDs := make([]string, len(matches))
	for i, m := range matches {
		id := h.awaitHubIdentifier(ctx, req.Library, m.CollectionID)
		if id == "" {
			log.Warn().Str("collection", m.Title).Msg("Hub never materialized, excluded from ordering")
			report.OrderFailures++
			metrics.HubPinFailures.Inc()
			continue
		}
		hubIDs[i] = id
	}

	ordered := true
	for i := len(hubIDs) - 1; i >= 0; i-- {
		if hubIDs[i] == "" {
			ordered = false
			continue
		}
		if err := h.catalog.MoveHub(ctx, req.Library, hubIDs[i], ""); err != nil {
			log.Warn().Err(err).Str("hub", hubIDs[i]).Msg("Hub move failed")
			report.OrderFailures++
			metrics.HubPinFailures.Inc()
			ordered = false
		}
	}
	report.Ordered = ordered && len(matches) > 0
}

// awaitHubIdentifier polls for a collection's hub identifier within the
// bounded budget, returning "" on exhaustion.
func (h *HubResolver) awaitHubIdentifier(ctx context.Context, library, collectionID string) string {
	for attempt := 0; attempt < hubIDAttempts; attempt++ {
		id, err := h.catalog.GetHubIdentifier(ctx, library, collectionID)
		if err == nil && id != "" {
			return id
		}
		if sleepCtx(ctx, hubIDInterval) != nil {
			break
		}
	}
	return ""
}
