// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

// Package plex implements the Plex Media Server HTTP API client used by the
// curation and consolidation engines.
//
// The client covers three surfaces:
//
//   - Collections: list, find by exact title, create, delete, membership
//     mutation, manual sort mode and item reordering.
//   - Hubs: promoted-hub visibility flags and hub row reordering via the
//     per-section manage endpoint.
//   - Metadata: item details including external GUIDs, audience ratings and
//     physical media copies, plus copy deletion and artwork upload.
//
// Plex responds asynchronously to several mutations (collection creation,
// hub materialization). The client surfaces "not yet visible" as empty
// results rather than errors, and callers poll with bounded budgets.
//
// All mutating calls pass through a shared rate limiter, and BreakerClient
// adds a circuit breaker for the long-running supervised loops.
package plex
