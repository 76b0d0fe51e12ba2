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
	"strings"

	"github.com/curatarr/curatarr/internal/models"
)

// SetVisibility sets the promotion flags of a collection's managed hub.
func (c *PlexClient) SetVisibility(ctx context.Context, library, id string, vis models.Visibility) error {
	sectionKey, err := c.SectionKey(ctx, library)
	if err != nil {
		return err
	}

	mctx, cancel, err := c.mutateCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	query := url.Values{}
	query.Set("metadataItemId", id)
	query.Set("promotedToRecommended", boolFlag(vis.Recommended))
	query.Set("promotedToOwnHome", boolFlag(vis.OwnHome))
	query.Set("promotedToSharedHome", boolFlag(vis.SharedHome))

	path := fmt.Sprintf("/hubs/sections/%s/manage", sectionKey)
	if err := c.doMutation(mctx, http.MethodPost, path, query, nil); err != nil {
		return fmt.Errorf("set visibility of collection %s: %w", id, err)
	}
	return nil
}

// GetHubIdentifier returns the managed-hub identifier associated with a
// collection, or "" when the hub has not materialized yet. Hub creation lags
// behind collection creation; callers poll.
func (c *PlexClient) GetHubIdentifier(ctx context.Context, library, id string) (string, error) {
	sectionKey, err := c.SectionKey(ctx, library)
	if err != nil {
		return "", err
	}

	rctx, cancel := c.readCtx(ctx)
	defer cancel()

	var resp hubManageResponse
	path := fmt.Sprintf("/hubs/sections/%s/manage", sectionKey)
	if err := c.doJSONRequest(rctx, path, &resp); err != nil {
		return "", fmt.Errorf("list managed hubs: %w", err)
	}

	// Collection hubs carry identifiers of the form "custom-collection-{id}".
	suffix := "-" + id
	for _, hub := range resp.MediaContainer.Hub {
		if strings.HasSuffix(hub.Identifier, suffix) && strings.Contains(hub.Identifier, "collection") {
			return hub.Identifier, nil
		}
	}
	return "", nil
}

// MoveHub places hubID directly after afterHubID in the section's managed hub
// order. An empty afterHubID moves the hub to the very top.
func (c *PlexClient) MoveHub(ctx context.Context, library, hubID, afterHubID string) error {
	sectionKey, err := c.SectionKey(ctx, library)
	if err != nil {
		return err
	}

	mctx, cancel, err := c.mutateCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	var query url.Values
	if afterHubID != "" {
		query = url.Values{}
		query.Set("after", afterHubID)
	}

	path := fmt.Sprintf("/hubs/sections/%s/manage/%s/move", sectionKey, hubID)
	if err := c.doMutation(mctx, http.MethodPut, path, query, nil); err != nil {
		return fmt.Errorf("move hub %s: %w", hubID, err)
	}
	return nil
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
