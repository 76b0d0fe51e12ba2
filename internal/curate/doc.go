// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

// Package curate implements catalog synchronization: reconciling a locally
// computed desired state against an external, eventually-consistent catalog
// that offers no transactions and unreliable read-after-write consistency.
//
// Three engines share the Catalog interface:
//
//   - Reconciler makes one named collection's membership and custom order
//     match a desired item list, confirming destructive steps with bounded
//     polling.
//   - HubResolver resolves a family of curated collections across naming
//     variants, promotes them, and fixes their home-screen order.
//   - Consolidator reduces a multi-copy item to its single best physical
//     copy under a policy.
//
// Per-item catalog failures never abort an operation; every engine returns a
// structured report with explicit counts. Only invalid input or total
// identity-resolution failure is an error.
package curate
