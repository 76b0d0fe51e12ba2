// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/curatarr/curatarr/internal/models"
)

func TestBackupRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := testStore(t)

	for _, key := range []string{"1", "2", "3"} {
		if err := src.Create(ctx, candidate("alice", "Movies", key, models.StatusActive, 40)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	dir := t.TempDir()
	path, err := src.BackupToDir(dir, 0)
	if err != nil {
		t.Fatalf("BackupToDir: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), backupPrefix) {
		t.Errorf("backup file name %q missing prefix", filepath.Base(path))
	}

	dst := testStore(t)
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	defer f.Close()
	if err := dst.Restore(f); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	for _, key := range []string{"1", "2", "3"} {
		rec, err := dst.Get(ctx, "alice", "Movies", key)
		if err != nil {
			t.Fatalf("Get %s after restore: %v", key, err)
		}
		if rec.Points != 40 || rec.Status != models.StatusActive {
			t.Errorf("restored record %s = %+v", key, rec)
		}
	}
}

func TestBackupPruneKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"curatarr-20260101-000000.badger",
		"curatarr-20260102-000000.badger",
		"curatarr-20260103-000000.badger",
		"curatarr-20260104-000000.badger",
		"unrelated.txt",
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o640); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	pruneBackups(dir, 2)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var remaining []string
	for _, e := range entries {
		remaining = append(remaining, e.Name())
	}

	want := map[string]bool{
		"curatarr-20260103-000000.badger": true,
		"curatarr-20260104-000000.badger": true,
		"unrelated.txt":                   true,
	}
	if len(remaining) != len(want) {
		t.Fatalf("remaining = %v, want %v", remaining, want)
	}
	for _, name := range remaining {
		if !want[name] {
			t.Errorf("unexpected survivor %s", name)
		}
	}
}

func TestBackupToDirPrunesBeyondKeep(t *testing.T) {
	src := testStore(t)
	dir := t.TempDir()

	// Seed an older backup file so the prune pass has something to remove.
	old := filepath.Join(dir, "curatarr-20250101-000000.badger")
	if err := os.WriteFile(old, []byte("x"), 0o640); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := src.BackupToDir(dir, 1); err != nil {
		t.Fatalf("BackupToDir: %v", err)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("old backup survived keep=1 prune")
	}
}
