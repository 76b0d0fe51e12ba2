// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package ledger

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/curatarr/curatarr/internal/models"
)

// ratedPool builds n candidates with strictly decreasing ratings, so the
// rank order is the creation order: "0" is the best, "n-1" the worst.
func ratedPool(n int) []models.CandidateRecord {
	pool := make([]models.CandidateRecord, n)
	for i := range pool {
		pool[i] = models.CandidateRecord{
			RatingKey:     strconv.Itoa(i),
			Title:         "Candidate " + strconv.Itoa(i),
			RatingAverage: float64(100 - i),
			RatingCount:   1000,
		}
	}
	return pool
}

// tierOf returns the tier (0=high, 1=mid, 2=low) of rank i in a pool of n.
func tierOf(i, n int) int {
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
	switch {
	case i < highEnd:
		return 0
	case i < midEnd:
		return 1
	default:
		return 2
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 7, 30} {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			pool := ratedPool(n)
			out := BuildThreeTierShuffleOrder(pool, rand.New(rand.NewSource(42)))

			if len(out) != n {
				t.Fatalf("output length = %d, want %d", len(out), n)
			}
			seen := make(map[string]bool, n)
			for _, rec := range out {
				if seen[rec.RatingKey] {
					t.Fatalf("duplicate %s in output", rec.RatingKey)
				}
				seen[rec.RatingKey] = true
			}
		})
	}
}

func TestShuffleFirstPicksCoverAllTiers(t *testing.T) {
	const n = 30
	pool := ratedPool(n)

	for seed := int64(0); seed < 20; seed++ {
		out := BuildThreeTierShuffleOrder(pool, rand.New(rand.NewSource(seed)))

		tiersSeen := make(map[int]bool)
		for _, rec := range out[:3] {
			rank, _ := strconv.Atoi(rec.RatingKey)
			tiersSeen[tierOf(rank, n)] = true
		}
		if len(tiersSeen) != 3 {
			t.Fatalf("seed %d: first three picks cover tiers %v, want all of high/mid/low", seed, tiersSeen)
		}
	}
}

func TestShuffleSmallPools(t *testing.T) {
	// Two candidates: high tier gets one, mid gets one, low is empty.
	out := BuildThreeTierShuffleOrder(ratedPool(2), rand.New(rand.NewSource(1)))
	if len(out) != 2 {
		t.Fatalf("output length = %d, want 2", len(out))
	}

	if got := BuildThreeTierShuffleOrder(nil, rand.New(rand.NewSource(1))); got != nil {
		t.Errorf("empty pool = %v, want nil", got)
	}
}

func TestShuffleDeterministicForSeed(t *testing.T) {
	pool := ratedPool(12)
	a := BuildThreeTierShuffleOrder(pool, rand.New(rand.NewSource(7)))
	b := BuildThreeTierShuffleOrder(pool, rand.New(rand.NewSource(7)))
	for i := range a {
		if a[i].RatingKey != b[i].RatingKey {
			t.Fatalf("same seed diverged at %d: %s vs %s", i, a[i].RatingKey, b[i].RatingKey)
		}
	}
}

func TestShuffleDoesNotMutateInput(t *testing.T) {
	pool := ratedPool(9)
	BuildThreeTierShuffleOrder(pool, rand.New(rand.NewSource(3)))
	for i, rec := range pool {
		if rec.RatingKey != strconv.Itoa(i) {
			t.Fatalf("input mutated at %d: %s", i, rec.RatingKey)
		}
	}
}
