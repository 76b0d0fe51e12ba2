// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/curatarr/curatarr/internal/models"
)

// mediaKindTypes maps the curation engine's media-kind names to Plex
// metadata type values used by collection creation.
var mediaKindTypes = map[string]string{
	"movie":   "1",
	"show":    "2",
	"episode": "4",
}

// ListCollections returns every collection in the given library.
func (c *PlexClient) ListCollections(ctx context.Context, library string) ([]models.CollectionRef, error) {
	sectionKey, err := c.SectionKey(ctx, library)
	if err != nil {
		return nil, err
	}

	lctx, cancel := c.listCtx(ctx)
	defer cancel()

	var resp metadataResponse
	path := fmt.Sprintf("/library/sections/%s/collections", sectionKey)
	if err := c.doJSONRequest(lctx, path, &resp); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	refs := make([]models.CollectionRef, 0, len(resp.MediaContainer.Metadata))
	for _, md := range resp.MediaContainer.Metadata {
		refs = append(refs, models.CollectionRef{RatingKey: md.RatingKey, Title: md.Title})
	}
	return refs, nil
}

// FindCollectionByName returns the rating key of the collection with the
// exact given title, or "" when none exists.
func (c *PlexClient) FindCollectionByName(ctx context.Context, library, name string) (string, error) {
	sectionKey, err := c.SectionKey(ctx, library)
	if err != nil {
		return "", err
	}

	rctx, cancel := c.readCtx(ctx)
	defer cancel()

	query := url.Values{}
	query.Set("title", name)

	var resp metadataResponse
	path := fmt.Sprintf("/library/sections/%s/collections", sectionKey)
	if err := c.doJSONRequestWithQuery(rctx, path, query, &resp); err != nil {
		return "", fmt.Errorf("find collection %q: %w", name, err)
	}

	// Plex title filtering is a substring match; insist on exact equality.
	for _, md := range resp.MediaContainer.Metadata {
		if md.Title == name {
			return md.RatingKey, nil
		}
	}
	return "", nil
}

// CreateCollection creates a collection in the library, optionally seeded
// with one item. Returns the new collection's rating key when the server
// reports one; "" means the caller must discover the identity by polling the
// listing.
func (c *PlexClient) CreateCollection(ctx context.Context, library, name, kind, seedItemID string) (string, error) {
	sectionKey, err := c.SectionKey(ctx, library)
	if err != nil {
		return "", err
	}
	machineID, err := c.MachineID(ctx)
	if err != nil {
		return "", err
	}

	typeValue, ok := mediaKindTypes[kind]
	if !ok {
		return "", fmt.Errorf("unknown media kind %q", kind)
	}

	query := url.Values{}
	query.Set("title", name)
	query.Set("smart", "0")
	query.Set("type", typeValue)
	query.Set("sectionId", sectionKey)
	uri := fmt.Sprintf("server://%s/com.plexapp.plugins.library", machineID)
	if seedItemID != "" {
		uri = fmt.Sprintf("%s/library/metadata/%s", uri, seedItemID)
	}
	query.Set("uri", uri)

	mctx, cancel, err := c.mutateCtx(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	var resp metadataResponse
	if err := c.doMutation(mctx, http.MethodPost, "/library/collections", query, &resp); err != nil {
		return "", fmt.Errorf("create collection %q: %w", name, err)
	}

	if len(resp.MediaContainer.Metadata) > 0 {
		return resp.MediaContainer.Metadata[0].RatingKey, nil
	}
	return "", nil
}

// DeleteCollection removes a collection by rating key. The items it contained
// are not touched.
func (c *PlexClient) DeleteCollection(ctx context.Context, id string) error {
	mctx, cancel, err := c.mutateCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	path := fmt.Sprintf("/library/collections/%s", id)
	if err := c.doMutation(mctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete collection %s: %w", id, err)
	}
	return nil
}

// GetMembers returns the collection's members in their current display order.
func (c *PlexClient) GetMembers(ctx context.Context, id string) ([]models.ItemRef, error) {
	lctx, cancel := c.listCtx(ctx)
	defer cancel()

	var resp metadataResponse
	path := fmt.Sprintf("/library/collections/%s/children", id)
	if err := c.doJSONRequest(lctx, path, &resp); err != nil {
		return nil, fmt.Errorf("get members of collection %s: %w", id, err)
	}

	items := make([]models.ItemRef, 0, len(resp.MediaContainer.Metadata))
	for _, md := range resp.MediaContainer.Metadata {
		items = append(items, models.ItemRef{RatingKey: md.RatingKey, Title: md.Title})
	}
	return items, nil
}

// AddMember adds one item to a collection.
func (c *PlexClient) AddMember(ctx context.Context, id, itemID string) error {
	machineID, err := c.MachineID(ctx)
	if err != nil {
		return err
	}

	mctx, cancel, err := c.mutateCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	query := url.Values{}
	query.Set("uri", fmt.Sprintf("server://%s/com.plexapp.plugins.library/library/metadata/%s", machineID, itemID))

	path := fmt.Sprintf("/library/collections/%s/items", id)
	if err := c.doMutation(mctx, http.MethodPut, path, query, nil); err != nil {
		return fmt.Errorf("add item %s to collection %s: %w", itemID, id, err)
	}
	return nil
}

// RemoveMember removes one item from a collection.
func (c *PlexClient) RemoveMember(ctx context.Context, id, itemID string) error {
	mctx, cancel, err := c.mutateCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	path := fmt.Sprintf("/library/collections/%s/items/%s", id, itemID)
	if err := c.doMutation(mctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("remove item %s from collection %s: %w", itemID, id, err)
	}
	return nil
}

// SetSortMode sets the collection's sort preference. Mode "custom" (alias
// "manual") must be applied before member moves have any effect.
func (c *PlexClient) SetSortMode(ctx context.Context, id, mode string) error {
	sortValue, ok := collectionSortModes[mode]
	if !ok {
		return fmt.Errorf("unknown collection sort mode %q", mode)
	}

	mctx, cancel, err := c.mutateCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	query := url.Values{}
	query.Set("collectionSort", sortValue)

	path := fmt.Sprintf("/library/metadata/%s/prefs", id)
	if err := c.doMutation(mctx, http.MethodPut, path, query, nil); err != nil {
		return fmt.Errorf("set sort mode %q on collection %s: %w", mode, id, err)
	}
	return nil
}

// MoveMember places itemID directly after afterItemID within the collection's
// custom order. An empty afterItemID moves the item to the top.
func (c *PlexClient) MoveMember(ctx context.Context, id, itemID, afterItemID string) error {
	mctx, cancel, err := c.mutateCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	var query url.Values
	if afterItemID != "" {
		query = url.Values{}
		query.Set("after", afterItemID)
	}

	path := fmt.Sprintf("/library/collections/%s/items/%s/move", id, itemID)
	if err := c.doMutation(mctx, http.MethodPut, path, query, nil); err != nil {
		return fmt.Errorf("move item %s in collection %s: %w", itemID, id, err)
	}
	return nil
}
