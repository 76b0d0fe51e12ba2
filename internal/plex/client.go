// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

/*
client.go - Plex Media Server API Client

Core PlexClient struct for communicating with Plex Media Server's REST API.

Client Features:
  - X-Plex-Token authentication on every request
  - Per-operation-class timeouts (read / mutate / list)
  - Mutation rate limiting via golang.org/x/time/rate
  - Automatic retry with exponential backoff on HTTP 429
  - Cached library-section and machine-identifier lookups

The Plex API offers no transactions and no atomic batch operations, and
read-after-write consistency is unreliable for deletes, creates, and
reorderings. The client deliberately does NOT hide this: callers in
internal/curate own the bounded confirmation polling.

Related files:
  - request.go: HTTP request helpers
  - collections.go: collection CRUD and membership
  - hubs.go: hub visibility and home-screen ordering
  - metadata.go: item metadata, copy deletion, artwork upload
  - breaker.go: circuit breaker wrapper for supervised loops
*/

//nolint:staticcheck // File documentation, not package doc
package plex

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/curatarr/curatarr/internal/config"
	"github.com/curatarr/curatarr/internal/logging"
)

// PlexClient handles communication with the Plex Media Server API.
type PlexClient struct {
	baseURL    string
	token      string
	httpClient *http.Client

	readTimeout   time.Duration
	mutateTimeout time.Duration
	listTimeout   time.Duration

	// mutationLimiter throttles write operations; nil disables throttling.
	mutationLimiter *rate.Limiter

	mu        sync.Mutex
	machineID string            // cached /identity machineIdentifier
	sections  map[string]string // cached library title -> section key
}

// NewPlexClient creates an authenticated Plex API client from configuration.
func NewPlexClient(cfg *config.PlexConfig) *PlexClient {
	c := &PlexClient{
		baseURL: cfg.URL,
		token:   cfg.Token,
		// No global client timeout: per-call context deadlines control
		// cancellation so listings can outlive mutations.
		httpClient:    &http.Client{},
		readTimeout:   cfg.ReadTimeout,
		mutateTimeout: cfg.MutateTimeout,
		listTimeout:   cfg.ListTimeout,
		sections:      make(map[string]string),
	}

	if cfg.MutationsPerSecond > 0 {
		c.mutationLimiter = rate.NewLimiter(rate.Limit(cfg.MutationsPerSecond), 1)
	}

	return c
}

// readCtx derives a context bounded by the read timeout.
func (c *PlexClient) readCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.readTimeout)
}

// mutateCtx derives a context bounded by the mutation timeout, waiting on the
// mutation rate limiter first.
func (c *PlexClient) mutateCtx(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if c.mutationLimiter != nil {
		if err := c.mutationLimiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
	}
	cctx, cancel := context.WithTimeout(ctx, c.mutateTimeout)
	return cctx, cancel, nil
}

// listCtx derives a context bounded by the bulk-listing timeout.
func (c *PlexClient) listCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.listTimeout)
}

// MachineID returns the server's machine identifier, fetching and caching it
// on first use. It is required for the library URIs used by collection
// creation and membership mutations.
func (c *PlexClient) MachineID(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.machineID != "" {
		id := c.machineID
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	rctx, cancel := c.readCtx(ctx)
	defer cancel()

	var resp identityResponse
	if err := c.doJSONRequest(rctx, "/identity", &resp); err != nil {
		return "", fmt.Errorf("fetch server identity: %w", err)
	}
	if resp.MediaContainer.MachineIdentifier == "" {
		return "", fmt.Errorf("server identity response missing machineIdentifier")
	}

	c.mu.Lock()
	c.machineID = resp.MediaContainer.MachineIdentifier
	c.mu.Unlock()

	return resp.MediaContainer.MachineIdentifier, nil
}

// SectionKey resolves a library title to its section key, caching the full
// section listing on first use.
func (c *PlexClient) SectionKey(ctx context.Context, library string) (string, error) {
	c.mu.Lock()
	if key, ok := c.sections[library]; ok {
		c.mu.Unlock()
		return key, nil
	}
	c.mu.Unlock()

	rctx, cancel := c.readCtx(ctx)
	defer cancel()

	var resp sectionsResponse
	if err := c.doJSONRequest(rctx, "/library/sections", &resp); err != nil {
		return "", fmt.Errorf("list library sections: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, dir := range resp.MediaContainer.Directory {
		c.sections[dir.Title] = dir.Key
	}
	if key, ok := c.sections[library]; ok {
		return key, nil
	}

	return "", fmt.Errorf("library section %q not found", library)
}

// doRequestWithRateLimit executes an HTTP request with automatic retry on
// HTTP 429. Max 5 attempts with exponential backoff (1s, 2s, 4s, 8s, 16s),
// honoring a Retry-After header when present.
func (c *PlexClient) doRequestWithRateLimit(req *http.Request) (*http.Response, error) {
	const maxRetries = 5
	baseDelay := 1 * time.Second

	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("execute request: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		resp.Body.Close()

		if attempt == maxRetries {
			return nil, fmt.Errorf("rate limit exceeded after %d retries", maxRetries)
		}

		retryDelay := baseDelay * (1 << attempt)
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				retryDelay = seconds
			}
		}

		logging.Warn().Dur("retry_delay", retryDelay).Int("attempt", attempt+1).Msg("Plex API rate limited (HTTP 429), retrying")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(retryDelay):
		}

		// The first attempt drains the request body; rewind it before
		// resending so uploads retry with their full payload.
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewind request body: %w", err)
			}
			req.Body = body
		}
	}

	return nil, fmt.Errorf("unreachable: retry loop should return or error")
}
