// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package service

import (
	"context"
	"io"
	"reflect"
	"testing"

	"github.com/curatarr/curatarr/internal/config"
	"github.com/curatarr/curatarr/internal/logging"
	"github.com/curatarr/curatarr/internal/models"
)

func sweepConfig(dryRun bool) config.ConsolidationConfig {
	return config.ConsolidationConfig{
		Enabled:          true,
		DryRun:           dryRun,
		Collections:      []string{"Dupes"},
		DeletePreference: "smallest_file",
	}
}

func dupeCatalog() *svcCatalog {
	catalog := newSvcCatalog()
	catalog.addItem(&models.ItemMetadata{
		RatingKey: "10",
		Title:     "Doubled",
		Type:      "movie",
		Copies: []models.MediaCopy{
			{PartID: "p1", File: "/m/doubled-big.mkv", Size: 9000, Resolution: "1080"},
			{PartID: "p2", File: "/m/doubled-small.mkv", Size: 4000, Resolution: "720"},
		},
	})
	catalog.addItem(&models.ItemMetadata{
		RatingKey: "11",
		Title:     "Single",
		Type:      "movie",
		Copies: []models.MediaCopy{
			{PartID: "p3", File: "/m/single.mkv", Size: 5000, Resolution: "1080"},
		},
	})
	catalog.addCollection("Dupes",
		models.ItemRef{RatingKey: "10", Title: "Doubled"},
		models.ItemRef{RatingKey: "11", Title: "Single"},
	)
	return catalog
}

func TestSweepConsolidatesCollectionMembers(t *testing.T) {
	catalog := dupeCatalog()
	svc := NewConsolidationService(catalog, sweepConfig(false), "Movies", logging.NewTestLogger(io.Discard))

	outcome := svc.Sweep(context.Background())

	if outcome.ItemsSwept != 2 {
		t.Errorf("items swept = %d, want 2", outcome.ItemsSwept)
	}
	if outcome.Removed != 1 {
		t.Errorf("removed = %d, want 1", outcome.Removed)
	}
	if outcome.Failures != 0 {
		t.Errorf("failures = %d, want 0", outcome.Failures)
	}
	// smallest_file preference deletes the smaller copy.
	if want := []string{"p2"}; !reflect.DeepEqual(catalog.deletedParts, want) {
		t.Errorf("deleted parts = %v, want %v", catalog.deletedParts, want)
	}
}

func TestSweepDryRunDeletesNothing(t *testing.T) {
	catalog := dupeCatalog()
	svc := NewConsolidationService(catalog, sweepConfig(true), "Movies", logging.NewTestLogger(io.Discard))

	outcome := svc.Sweep(context.Background())

	if outcome.Removed != 1 {
		t.Errorf("removed = %d, want 1 (counted, not executed)", outcome.Removed)
	}
	if len(catalog.deletedParts) != 0 {
		t.Errorf("dry run deleted parts: %v", catalog.deletedParts)
	}
}

func TestSweepSkipsUnknownCollections(t *testing.T) {
	catalog := newSvcCatalog()
	cfg := sweepConfig(false)
	cfg.Collections = []string{"Nope", "Also Nope"}
	svc := NewConsolidationService(catalog, cfg, "Movies", logging.NewTestLogger(io.Discard))

	outcome := svc.Sweep(context.Background())
	if outcome.ItemsSwept != 0 || outcome.Removed != 0 {
		t.Errorf("unexpected work on missing collections: %+v", outcome)
	}
}
