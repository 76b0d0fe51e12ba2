// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package plex

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/curatarr/curatarr/internal/models"
)

// GetItemMetadata fetches one item's metadata, mapping the raw payload into
// the typed view consumed by the consolidator and the ledger. Every physical
// part of every media version becomes one MediaCopy.
func (c *PlexClient) GetItemMetadata(ctx context.Context, itemID string) (*models.ItemMetadata, error) {
	rctx, cancel := c.readCtx(ctx)
	defer cancel()

	var resp metadataResponse
	path := fmt.Sprintf("/library/metadata/%s", itemID)
	if err := c.doJSONRequest(rctx, path, &resp); err != nil {
		return nil, fmt.Errorf("get item metadata %s: %w", itemID, err)
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return nil, fmt.Errorf("item %s not found", itemID)
	}

	md := resp.MediaContainer.Metadata[0]
	meta := &models.ItemMetadata{
		RatingKey:     md.RatingKey,
		Title:         md.Title,
		Type:          md.Type,
		Year:          md.Year,
		RatingAverage: md.AudienceRating,
		RatingCount:   md.AudienceRatingCount,
	}

	for _, guid := range md.Guid {
		if guid.ID != "" {
			meta.ExternalRefs = append(meta.ExternalRefs, guid.ID)
		}
	}

	for _, media := range md.Media {
		for _, part := range media.Part {
			copy := models.MediaCopy{
				File:       part.File,
				Size:       part.Size,
				Resolution: media.VideoResolution,
			}
			// A part id of zero means the server did not report a stable
			// identifier; the consolidator refuses to delete such copies.
			if part.ID != 0 {
				copy.PartID = strconv.Itoa(part.ID)
			}
			meta.Copies = append(meta.Copies, copy)
		}
	}

	return meta, nil
}

// DeleteCopy deletes one physical copy by its part identifier. This removes
// the underlying file; callers own dry-run handling.
func (c *PlexClient) DeleteCopy(ctx context.Context, partID string) error {
	mctx, cancel, err := c.mutateCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	path := fmt.Sprintf("/library/parts/%s", partID)
	if err := c.doMutation(mctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete copy %s: %w", partID, err)
	}
	return nil
}

// UploadPoster uploads poster artwork for an item or collection.
func (c *PlexClient) UploadPoster(ctx context.Context, id string, data []byte) error {
	mctx, cancel, err := c.mutateCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	path := fmt.Sprintf("/library/metadata/%s/posters", id)
	if err := c.doUpload(mctx, path, data); err != nil {
		return fmt.Errorf("upload poster for %s: %w", id, err)
	}
	return nil
}

// UploadArt uploads background artwork for an item or collection.
func (c *PlexClient) UploadArt(ctx context.Context, id string, data []byte) error {
	mctx, cancel, err := c.mutateCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	path := fmt.Sprintf("/library/metadata/%s/arts", id)
	if err := c.doUpload(mctx, path, data); err != nil {
		return fmt.Errorf("upload art for %s: %w", id, err)
	}
	return nil
}
