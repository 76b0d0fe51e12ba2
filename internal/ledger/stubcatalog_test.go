// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package ledger

import (
	"context"
	"fmt"

	"github.com/curatarr/curatarr/internal/curate"
	"github.com/curatarr/curatarr/internal/models"
)

// stubCatalog serves item metadata for rating refreshes; every other catalog
// operation is unused by the ledger.
type stubCatalog struct {
	items map[string]*models.ItemMetadata
}

func (s *stubCatalog) GetItemMetadata(_ context.Context, itemID string) (*models.ItemMetadata, error) {
	meta, ok := s.items[itemID]
	if !ok {
		return nil, fmt.Errorf("item %s not found", itemID)
	}
	return meta, nil
}

func (s *stubCatalog) ListCollections(context.Context, string) ([]models.CollectionRef, error) {
	return nil, nil
}
func (s *stubCatalog) FindCollectionByName(context.Context, string, string) (string, error) {
	return "", nil
}
func (s *stubCatalog) CreateCollection(context.Context, string, string, string, string) (string, error) {
	return "", nil
}
func (s *stubCatalog) DeleteCollection(context.Context, string) error        { return nil }
func (s *stubCatalog) GetMembers(context.Context, string) ([]models.ItemRef, error) {
	return nil, nil
}
func (s *stubCatalog) AddMember(context.Context, string, string) error       { return nil }
func (s *stubCatalog) RemoveMember(context.Context, string, string) error    { return nil }
func (s *stubCatalog) SetSortMode(context.Context, string, string) error     { return nil }
func (s *stubCatalog) MoveMember(context.Context, string, string, string) error { return nil }
func (s *stubCatalog) SetVisibility(context.Context, string, string, models.Visibility) error {
	return nil
}
func (s *stubCatalog) GetHubIdentifier(context.Context, string, string) (string, error) {
	return "", nil
}
func (s *stubCatalog) MoveHub(context.Context, string, string, string) error { return nil }
func (s *stubCatalog) DeleteCopy(context.Context, string) error              { return nil }
func (s *stubCatalog) UploadPoster(context.Context, string, []byte) error    { return nil }
func (s *stubCatalog) UploadArt(context.Context, string, []byte) error       { return nil }

var _ curate.Catalog = (*stubCatalog)(nil)
