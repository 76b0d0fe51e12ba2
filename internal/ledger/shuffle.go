// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package ledger

import (
	"math/rand"
	"sort"

	"github.com/curatarr/curatarr/internal/models"
)

// BuildThreeTierShuffleOrder produces an anti-staleness presentation order
// over a candidate pool: the pool is ranked by rating, partitioned into
// high/mid/low tiers, one random representative is drawn from each tier, the
// three draws are shuffled among themselves, and the untouched remainder
// follows in random order. The early slots are thereby biased toward
// covering all three quality tiers while the full pool is still eventually
// surfaced.
//
// The caller owns the rand source so scheduled runs stay seedable in tests.
func BuildThreeTierShuffleOrder(candidates []models.CandidateRecord, rng *rand.Rand) []models.CandidateRecord {
	if len(candidates) == 0 {
		return nil
	}

	ranked := append([]models.CandidateRecord(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].RatingAverage != ranked[j].RatingAverage {
			return ranked[i].RatingAverage > ranked[j].RatingAverage
		}
		if ranked[i].RatingCount != ranked[j].RatingCount {
			return ranked[i].RatingCount > ranked[j].RatingCount
		}
		return ranked[i].RatingKey < ranked[j].RatingKey
	})

	// Three equal tiers, remainder distributed to high then mid.
	n := len(ranked)
	base := n / 3
	rem := n % 3
	highEnd := base
	if rem > 0 {
		highEnd++
	}
	midEnd := highEnd + base
	if rem > 1 {
		midEnd++
	}

	tiers := [][]models.CandidateRecord{
		ranked[:highEnd],
		ranked[highEnd:midEnd],
		ranked[midEnd:],
	}

	picked := make(map[string]struct{}, 3)
	var picks []models.CandidateRecord
	for _, tier := range tiers {
		if len(tier) == 0 {
			continue
		}
		pick := tier[rng.Intn(len(tier))]
		picks = append(picks, pick)
		picked[pick.RatingKey] = struct{}{}
	}

	rng.Shuffle(len(picks), func(i, j int) {
		picks[i], picks[j] = picks[j], picks[i]
	})

	rest := make([]models.CandidateRecord, 0, n-len(picks))
	for _, rec := range ranked {
		if _, ok := picked[rec.RatingKey]; !ok {
			rest = append(rest, rec)
		}
	}
	rng.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})

	return append(picks, rest...)
}
