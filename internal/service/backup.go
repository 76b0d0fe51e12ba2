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

// Archiver is the store surface the backup service drives.
type Archiver interface {
	BackupToDir(dir string, keep int) (string, error)
}

// BackupService writes periodic full backups of the candidate store and
// retains the most recent ones.
type BackupService struct {
	store    Archiver
	dir      string
	keep     int
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewBackupService creates the backup loop. A non-positive interval defaults
// to daily.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBackupService(store Archiver, dir string, keep int, interval time.Duration, logger zerolog.Logger) *BackupService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &BackupService{
		store:    store,
		dir:      dir,
		keep:     keep,
		interval: interval,
		logger:   logger.With().Str("service", "backup").Logger(),
		name:     "backup-service",
	}
}

// Serve implements the suture.Service interface.
func (s *BackupService) Serve(ctx context.Context) error {
	s.logger.Info().
		Str("dir", s.dir).
		Int("keep", s.keep).
		Dur("interval", s.interval).
		Msg("backup service starting")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			start := time.Now()
			path, err := s.store.BackupToDir(s.dir, s.keep)
			if err != nil {
				s.logger.Error().Err(err).Msg("backup failed")
				continue
			}
			s.logger.Info().
				Str("path", path).
				Dur("duration", time.Since(start)).
				Msg("backup complete")
		}
	}
}

// String returns the service name for logging.
func (s *BackupService) String() string {
	return s.name
}
