// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

// Package ledger tracks per-user, per-library candidate interest scores: an
// eviction policy over the recommendation working set. Suggested items are
// credited to full points, unselected active items decay by one point per
// cycle and are deleted at zero, and pending items promote to active the
// moment they appear in the catalog.
//
// BuildThreeTierShuffleOrder turns the active set into a presentation order
// that surfaces a high-, mid-, and low-rated candidate early in every run.
package ledger
