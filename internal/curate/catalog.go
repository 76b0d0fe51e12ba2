// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package curate

import (
	"context"

	"github.com/curatarr/curatarr/internal/models"
)

// Catalog is the catalog-service surface the curation engines drive. The
// production implementation lives in internal/plex; tests substitute an
// in-memory fake.
//
// Operations may silently no-op, return stale reads, or fail transiently.
// Callers own bounded confirmation polling; the interface makes no
// consistency promises beyond what each method documents.
type Catalog interface {
	// Collections.
	ListCollections(ctx context.Context, library string) ([]models.CollectionRef, error)
	FindCollectionByName(ctx context.Context, library, name string) (string, error)
	// CreateCollection returns "" when the server accepts the create without
	// echoing the new identity; the caller must discover it by polling.
	CreateCollection(ctx context.Context, library, name, kind, seedItemID string) (string, error)
	DeleteCollection(ctx context.Context, id string) error
	GetMembers(ctx context.Context, id string) ([]models.ItemRef, error)
	AddMember(ctx context.Context, id, itemID string) error
	RemoveMember(ctx context.Context, id, itemID string) error
	SetSortMode(ctx context.Context, id, mode string) error
	// MoveMember places itemID after afterItemID; "" means move to the top.
	MoveMember(ctx context.Context, id, itemID, afterItemID string) error

	// Hubs.
	SetVisibility(ctx context.Context, library, id string, vis models.Visibility) error
	// GetHubIdentifier returns "" while the hub has not materialized yet.
	GetHubIdentifier(ctx context.Context, library, id string) (string, error)
	MoveHub(ctx context.Context, library, hubID, afterHubID string) error

	// Item metadata and physical copies.
	GetItemMetadata(ctx context.Context, itemID string) (*models.ItemMetadata, error)
	DeleteCopy(ctx context.Context, partID string) error

	// Artwork.
	UploadPoster(ctx context.Context, id string, data []byte) error
	UploadArt(ctx context.Context, id string, data []byte) error
}
