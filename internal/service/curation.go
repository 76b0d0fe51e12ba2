// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/curatarr/curatarr/internal/config"
	"github.com/curatarr/curatarr/internal/curate"
	"github.com/curatarr/curatarr/internal/ledger"
	"github.com/curatarr/curatarr/internal/models"
)

// cycleTimeout bounds one full curation cycle. Large libraries take minutes,
// not hours; a cycle stuck longer than this is wedged on the catalog.
const cycleTimeout = 30 * time.Minute

// CurationService runs the periodic scoring and reconciliation cycle: fetch
// the freshly suggested set, apply the points update, rebuild the curated
// collection from the active candidates, and pin the collection family on the
// home screen.
type CurationService struct {
	ledger     *ledger.Ledger
	store      ledger.CandidateStore
	reconciler *curate.Reconciler
	hubs       *curate.HubResolver
	source     SuggestionSource

	cfg     config.CurationConfig
	library string
	logger  zerolog.Logger
	name    string
}

// NewCurationService creates the curation loop. source may be nil, in which
// case scoring is skipped each cycle and the collection is rebuilt from the
// current active set.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCurationService(lg *ledger.Ledger, store ledger.CandidateStore, reconciler *curate.Reconciler, hubs *curate.HubResolver, source SuggestionSource, cfg config.CurationConfig, library string, logger zerolog.Logger) *CurationService {
	return &CurationService{
		ledger:     lg,
		store:      store,
		reconciler: reconciler,
		hubs:       hubs,
		source:     source,
		cfg:        cfg,
		library:    library,
		logger:     logger.With().Str("service", "curation").Logger(),
		name:       "curation-service",
	}
}

// CycleOutcome aggregates the reports of one curation cycle.
type CycleOutcome struct {
	Cycle     *ledger.CycleSummary
	Reconcile *curate.ReconcileReport
	Pin       *curate.PinReport

	desired int
}

// Partial reports whether the cycle completed with per-item failures or an
// unverified final state.
func (o *CycleOutcome) Partial() bool {
	if o.Reconcile != nil {
		if o.Reconcile.Skipped > 0 {
			return true
		}
		if o.desired > 0 && !o.Reconcile.OrderVerified {
			return true
		}
	}
	if o.Pin != nil {
		if len(o.Pin.Missing) > 0 || o.Pin.VisibilityFailures > 0 || o.Pin.OrderFailures > 0 {
			return true
		}
	}
	return false
}

// Serve implements the suture.Service interface.
func (s *CurationService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("run_on_startup", s.cfg.RunOnStartup).
		Dur("interval", s.cfg.Interval).
		Str("collection", s.cfg.CollectionName).
		Msg("curation service starting")

	if s.cfg.RunOnStartup {
		if _, err := s.runCycle(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("startup cycle failed (will retry on schedule)")
		}
	}

	interval := s.cfg.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("curation service shutting down")
			return ctx.Err()

		case <-ticker.C:
			if _, err := s.runCycle(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled cycle failed")
			}
		}
	}
}

// runCycle executes one cycle with a bounded timeout.
func (s *CurationService) runCycle(ctx context.Context) (*CycleOutcome, error) {
	cycleCtx, cancel := context.WithTimeout(ctx, cycleTimeout)
	defer cancel()

	start := time.Now()
	outcome, err := s.RunCycle(cycleCtx)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Bool("partial", outcome.Partial()).
		Msg("curation cycle complete")
	return outcome, nil
}

// RunCycle performs one full curation cycle against the live catalog and
// returns the aggregated reports. Exposed for one-shot invocation.
func (s *CurationService) RunCycle(ctx context.Context) (*CycleOutcome, error) {
	job := curate.NewJob("curation-cycle", false)
	outcome := &CycleOutcome{}

	if s.source != nil {
		suggested, err := s.source.Fetch()
		if err != nil {
			return nil, fmt.Errorf("fetch suggestions: %w", err)
		}
		summary, err := s.ledger.ApplyPointsUpdate(ctx, job, s.cfg.Owner, s.library, suggested, s.cfg.MaxPoints)
		if err != nil {
			return nil, fmt.Errorf("points update: %w", err)
		}
		outcome.Cycle = summary
	} else {
		job.Log().Debug().Msg("No suggestion source configured, skipping scoring")
	}

	actives, err := s.store.Find(ctx, ledger.CandidateFilter{
		Owner:   s.cfg.Owner,
		Library: s.library,
		Status:  models.StatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("load active candidates: %w", err)
	}

	if s.cfg.Randomize {
		rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // presentation shuffle, not crypto
		actives = ledger.BuildThreeTierShuffleOrder(actives, rng)
	} else {
		sort.SliceStable(actives, func(i, j int) bool {
			if actives[i].RatingAverage != actives[j].RatingAverage {
				return actives[i].RatingAverage > actives[j].RatingAverage
			}
			if actives[i].RatingCount != actives[j].RatingCount {
				return actives[i].RatingCount > actives[j].RatingCount
			}
			return actives[i].RatingKey < actives[j].RatingKey
		})
	}

	desired := make([]curate.DesiredItem, 0, len(actives))
	for _, rec := range actives {
		desired = append(desired, curate.DesiredItem{RatingKey: rec.RatingKey, Title: rec.Title})
	}
	outcome.desired = len(desired)

	target := curate.CollectionTarget{
		Library: s.library,
		Kind:    "movie",
		Name:    s.cfg.CollectionName,
	}
	report, err := s.reconciler.Reconcile(ctx, job, target, desired)
	if err != nil {
		return nil, fmt.Errorf("reconcile %q: %w", s.cfg.CollectionName, err)
	}
	outcome.Reconcile = report

	if len(s.cfg.HubOrder) > 0 {
		req := curate.PinRequest{
			Library:        s.library,
			RequestedOrder: s.cfg.HubOrder,
			Target:         curate.PinTarget(s.cfg.PinTarget),
		}
		// The collection just reconciled may not be listable yet; hand its
		// identity to the resolver directly.
		if report.CollectionID != "" {
			req.Preferred = []curate.PreferredTarget{{Name: s.cfg.CollectionName, CollectionID: report.CollectionID}}
		}
		pin, err := s.hubs.PinFamily(ctx, job, req)
		if err != nil {
			return nil, fmt.Errorf("pin hub family: %w", err)
		}
		outcome.Pin = pin
	}

	return outcome, nil
}

// String returns the service name for logging.
func (s *CurationService) String() string {
	return s.name
}
