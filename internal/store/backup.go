// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/curatarr/curatarr/internal/logging"
)

// backupPrefix names backup files: curatarr-20260831-120000.badger.
const (
	backupPrefix = "curatarr-"
	backupSuffix = ".badger"
)

// restoreMaxPendingWrites bounds memory during Load.
const restoreMaxPendingWrites = 256

// Backup streams a full backup of the candidate ledger to w and returns the
// version up to which entries were written.
func (s *Store) Backup(w io.Writer) (uint64, error) {
	since, err := s.db.Backup(w, 0)
	if err != nil {
		return 0, fmt.Errorf("badger backup: %w", err)
	}
	return since, nil
}

// Restore loads a backup stream into the store. Existing records with newer
// versions win; Restore is intended for an empty store.
func (s *Store) Restore(r io.Reader) error {
	if err := s.db.Load(r, restoreMaxPendingWrites); err != nil {
		return fmt.Errorf("badger restore: %w", err)
	}
	return nil
}

// BackupToDir writes a timestamped backup file into dir, then prunes the
// oldest backups beyond keep. Returns the path of the backup written. keep
// <= 0 disables pruning.
func (s *Store) BackupToDir(dir string, keep int) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := backupPrefix + time.Now().UTC().Format("20060102-150405") + backupSuffix
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}

	if _, err := s.Backup(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close backup file: %w", err)
	}

	if keep > 0 {
		pruneBackups(dir, keep)
	}
	return path, nil
}

// pruneBackups removes the oldest backup files beyond keep. The timestamped
// names sort lexically by age, so no stat calls are needed.
func pruneBackups(dir string, keep int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Warn().Err(err).Str("dir", dir).Msg("Backup prune skipped")
		return
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, backupPrefix) && strings.HasSuffix(name, backupSuffix) {
			names = append(names, name)
		}
	}
	if len(names) <= keep {
		return
	}

	sort.Strings(names)
	for _, name := range names[:len(names)-keep] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			logging.Warn().Err(err).Str("file", name).Msg("Failed to prune backup")
		} else {
			logging.Debug().Str("file", name).Msg("Pruned old backup")
		}
	}
}
