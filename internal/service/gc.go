// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// gcInterval is how often Badger value-log garbage collection runs. The
// candidate ledger writes slowly, so a coarse interval is plenty.
const gcInterval = 10 * time.Minute

// Compactor is the store surface the GC service drives.
type Compactor interface {
	GC() error
}

// StoreGCService periodically runs value-log garbage collection on the
// candidate store.
type StoreGCService struct {
	store    Compactor
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewStoreGCService creates the GC loop. A non-positive interval uses the
// default.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewStoreGCService(store Compactor, interval time.Duration, logger zerolog.Logger) *StoreGCService {
	if interval <= 0 {
		interval = gcInterval
	}
	return &StoreGCService{
		store:    store,
		interval: interval,
		logger:   logger.With().Str("service", "store-gc").Logger(),
		name:     "store-gc-service",
	}
}

// Serve implements the suture.Service interface.
func (s *StoreGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			if err := s.store.GC(); err != nil {
				s.logger.Warn().Err(err).Msg("value log GC failed")
			}
		}
	}
}

// String returns the service name for logging.
func (s *StoreGCService) String() string {
	return s.name
}
