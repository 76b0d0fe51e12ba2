// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

// Package service provides the supervised long-running loops that drive
// Curatarr, wired under a suture supervisor tree.
//
// The tree has three layers for failure isolation:
//
//   - curation: the scoring/reconciliation cycle (CurationService)
//   - maintenance: the duplicate-copy sweep and store garbage collection
//   - observability: the /healthz and /metrics listener
//
// Each service implements suture.Service: Serve(ctx) runs the loop until the
// context is canceled and returns ctx.Err() on clean shutdown, so suture
// restarts crashed services with backoff without tearing down the others.
package service
