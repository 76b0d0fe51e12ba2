// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package plex

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/curatarr/curatarr/internal/metrics"
)

// requestConfig holds configuration for building HTTP requests.
type requestConfig struct {
	method      string
	path        string
	query       url.Values
	acceptJSON  bool
	expectOK    bool // if true, require 200 OK
	expectNoErr bool // if true, also accept 201/204
}

// pathTemplate collapses numeric path segments so metric labels stay bounded,
// e.g. /library/collections/61425/children -> /library/collections/{id}/children.
func pathTemplate(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		numeric := true
		for _, r := range seg {
			if r < '0' || r > '9' {
				numeric = false
				break
			}
		}
		if numeric {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

// doRequest executes a standard Plex API request and decodes the response.
func (c *PlexClient) doRequest(ctx context.Context, cfg requestConfig, result interface{}) (err error) {
	operation := cfg.method + " " + pathTemplate(cfg.path)
	defer func(start time.Time) {
		metrics.ObserveCatalogRequest(operation, start, err)
	}(time.Now())

	reqURL := fmt.Sprintf("%s%s", c.baseURL, cfg.path)

	req, err := http.NewRequestWithContext(ctx, cfg.method, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("X-Plex-Token", c.token)
	if cfg.acceptJSON {
		req.Header.Set("Accept", "application/json")
	}
	if len(cfg.query) > 0 {
		req.URL.RawQuery = cfg.query.Encode()
	}

	resp, err := c.doRequestWithRateLimit(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if cfg.expectNoErr {
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
		}
	} else if cfg.expectOK && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

// doJSONRequest is a convenience wrapper for JSON GET requests.
func (c *PlexClient) doJSONRequest(ctx context.Context, path string, result interface{}) error {
	return c.doRequest(ctx, requestConfig{
		method:     http.MethodGet,
		path:       path,
		acceptJSON: true,
		expectOK:   true,
	}, result)
}

// doJSONRequestWithQuery is a convenience wrapper for JSON GET requests with
// query parameters.
func (c *PlexClient) doJSONRequestWithQuery(ctx context.Context, path string, query url.Values, result interface{}) error {
	return c.doRequest(ctx, requestConfig{
		method:     http.MethodGet,
		path:       path,
		query:      query,
		acceptJSON: true,
		expectOK:   true,
	}, result)
}

// doMutation is a convenience wrapper for write requests that tolerate any
// 2xx status and optionally decode a response body.
func (c *PlexClient) doMutation(ctx context.Context, method, path string, query url.Values, result interface{}) error {
	return c.doRequest(ctx, requestConfig{
		method:      method,
		path:        path,
		query:       query,
		acceptJSON:  result != nil,
		expectNoErr: true,
	}, result)
}

// doUpload sends a raw body (artwork bytes) to the given path.
func (c *PlexClient) doUpload(ctx context.Context, path string, data []byte) (err error) {
	operation := http.MethodPost + " " + pathTemplate(path)
	defer func(start time.Time) {
		metrics.ObserveCatalogRequest(operation, start, err)
	}(time.Now())

	reqURL := fmt.Sprintf("%s%s", c.baseURL, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.doRequestWithRateLimit(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}
	return nil
}
