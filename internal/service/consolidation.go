// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/curatarr/curatarr/internal/config"
	"github.com/curatarr/curatarr/internal/curate"
)

// sweepTimeout bounds one full consolidation sweep.
const sweepTimeout = 2 * time.Hour

// ConsolidationService periodically sweeps the members of configured
// collections and consolidates any item holding multiple physical copies.
// The sweep is dry-run by default; deletions only happen when explicitly
// enabled.
type ConsolidationService struct {
	catalog      curate.Catalog
	consolidator *curate.Consolidator

	cfg     config.ConsolidationConfig
	library string
	logger  zerolog.Logger
	name    string
}

// SweepOutcome aggregates one sweep's results across all swept items.
type SweepOutcome struct {
	ItemsSwept   int
	CopiesKept   int
	Removed      int
	Failures     int
	SkippedItems int
}

// NewConsolidationService creates the sweep loop.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewConsolidationService(catalog curate.Catalog, cfg config.ConsolidationConfig, library string, logger zerolog.Logger) *ConsolidationService {
	return &ConsolidationService{
		catalog:      catalog,
		consolidator: curate.NewConsolidator(catalog),
		cfg:          cfg,
		library:      library,
		logger:       logger.With().Str("service", "consolidation").Logger(),
		name:         "consolidation-service",
	}
}

// Serve implements the suture.Service interface.
func (s *ConsolidationService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("dry_run", s.cfg.DryRun).
		Dur("interval", s.cfg.Interval).
		Strs("collections", s.cfg.Collections).
		Msg("consolidation service starting")

	interval := s.cfg.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("consolidation service shutting down")
			return ctx.Err()

		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
			outcome := s.Sweep(sweepCtx)
			cancel()

			s.logger.Info().
				Int("items", outcome.ItemsSwept).
				Int("removed", outcome.Removed).
				Int("failures", outcome.Failures).
				Bool("dry_run", s.cfg.DryRun).
				Msg("consolidation sweep complete")
		}
	}
}

// Sweep consolidates every member of the configured collections once.
// Per-item failures never abort the sweep. Exposed for one-shot invocation.
func (s *ConsolidationService) Sweep(ctx context.Context) *SweepOutcome {
	job := curate.NewJob("consolidation-sweep", s.cfg.DryRun)
	log := job.Log()

	policy := curate.ConsolidationPolicy{
		DeletePreference: s.cfg.DeletePreference,
		PreserveTerms:    s.cfg.PreserveTerms,
	}

	outcome := &SweepOutcome{}
	for _, name := range s.cfg.Collections {
		if ctx.Err() != nil {
			break
		}

		id, err := s.catalog.FindCollectionByName(ctx, s.library, name)
		if err != nil {
			log.Warn().Err(err).Str("collection", name).Msg("Collection lookup failed, skipping")
			continue
		}
		if id == "" {
			log.Debug().Str("collection", name).Msg("Collection not found, skipping")
			continue
		}

		members, err := s.catalog.GetMembers(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("collection", name).Msg("Member listing failed, skipping")
			continue
		}

		for _, member := range members {
			if ctx.Err() != nil {
				break
			}

			report, err := s.consolidator.Consolidate(ctx, job, member.RatingKey, policy)
			if err != nil {
				log.Warn().Err(err).Str("item", member.RatingKey).Msg("Consolidation failed")
				outcome.SkippedItems++
				continue
			}

			outcome.ItemsSwept++
			outcome.Removed += len(report.Removed)
			outcome.Failures += len(report.Failures)
			if len(report.Removed) > 0 {
				outcome.CopiesKept++
			}
		}
	}
	return outcome
}

// String returns the service name for logging.
func (s *ConsolidationService) String() string {
	return s.name
}
