// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package curate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/curatarr/curatarr/internal/metrics"
	"github.com/curatarr/curatarr/internal/models"
)

// Delete preferences for multi-copy movies.
const (
	DeleteSmallestFile = "smallest_file"
	DeleteLargestFile  = "largest_file"
)

// episodeResolutionRank ranks episode copies by resolution. Unknown
// resolutions rank lowest, alongside 480p.
var episodeResolutionRank = map[string]int{
	"4k":   4,
	"2160": 4,
	"1080": 3,
	"720":  2,
	"480":  1,
}

// Consolidator picks the single best physical copy of a multi-copy catalog
// item and deletes the rest under a configurable policy. It is an independent
// maintenance operation, not part of the reconciliation pipeline.
type Consolidator struct {
	catalog Catalog
}

// NewConsolidator creates a consolidator over the given catalog.
func NewConsolidator(catalog Catalog) *Consolidator {
	return &Consolidator{catalog: catalog}
}

// Consolidate reduces itemID to one physical copy. Movies follow the policy;
// episodes use a fixed resolution ranking. A copy without a stable part
// identifier is never deleted and is always reported as a failure, dry run
// included. In dry-run mode the full decision runs but no deletions are
// issued.
func (c *Consolidator) Consolidate(ctx context.Context, job *Job, itemID string, policy ConsolidationPolicy) (*ConsolidationReport, error) {
	if itemID == "" {
		return nil, fmt.Errorf("consolidate: item id required")
	}

	log := job.Log().With().Str("item", itemID).Logger()

	meta, err := c.catalog.GetItemMetadata(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("consolidate %s: %w", itemID, err)
	}

	report := &ConsolidationReport{ItemID: itemID, DryRun: job.DryRun}
	if len(meta.Copies) <= 1 {
		log.Debug().Int("copies", len(meta.Copies)).Msg("Nothing to consolidate")
		return report, nil
	}

	var keep int
	if meta.Type == "episode" {
		keep = bestEpisodeCopy(meta.Copies)
	} else {
		keep = bestMovieCopy(log, meta.Copies, policy)
	}
	report.Kept = meta.Copies[keep]

	log.Info().
		Str("title", meta.Title).
		Int("copies", len(meta.Copies)).
		Str("keep", report.Kept.File).
		Bool("dry_run", job.DryRun).
		Msg("Consolidating duplicate copies")

	for i, copy := range meta.Copies {
		if i == keep {
			continue
		}
		if copy.PartID == "" {
			// No stable identifier, deletion would be unsafe.
			log.Error().Str("file", copy.File).Msg("Copy has no part identifier, cannot delete")
			report.Failures = append(report.Failures, fmt.Sprintf("no part identifier for %s", copy.File))
			continue
		}
		if job.DryRun {
			log.Info().Str("file", copy.File).Int64("size", copy.Size).Msg("Would delete copy")
			report.Removed = append(report.Removed, copy)
			metrics.CopiesDeleted.WithLabelValues("true").Inc()
			continue
		}
		if err := c.catalog.DeleteCopy(ctx, copy.PartID); err != nil {
			log.Warn().Err(err).Str("file", copy.File).Msg("Copy delete failed")
			report.Failures = append(report.Failures, fmt.Sprintf("delete %s: %v", copy.File, err))
			continue
		}
		log.Info().Str("file", copy.File).Int64("size", copy.Size).Msg("Deleted copy")
		report.Removed = append(report.Removed, copy)
		metrics.CopiesDeleted.WithLabelValues("false").Inc()
	}

	return report, nil
}

// bestMovieCopy picks the index of the copy to keep under the policy. When
// any copy matches a preserve term, the best preserved copy wins and
// everything else goes, other preserved copies included.
func bestMovieCopy(log zerolog.Logger, copies []models.MediaCopy, policy ConsolidationPolicy) int {
	pref := policy.DeletePreference
	switch pref {
	case DeleteSmallestFile, DeleteLargestFile:
	case "newest", "oldest":
		// Per-copy timestamps are not available from the catalog.
		log.Warn().Str("delete_preference", pref).Msg("Timestamp-based preference unavailable, using smallest_file")
		pref = DeleteSmallestFile
	default:
		pref = DeleteSmallestFile
	}

	preserved := preservedIndices(copies, policy.PreserveTerms)
	if len(preserved) > 0 {
		return bestBySize(copies, preserved, pref)
	}

	all := make([]int, len(copies))
	for i := range copies {
		all[i] = i
	}
	return bestBySize(copies, all, pref)
}

// preservedIndices returns the copies matching any preserve term,
// case-insensitively, against resolution and filename.
func preservedIndices(copies []models.MediaCopy, terms []string) []int {
	var preserved []int
	for i, copy := range copies {
		haystack := strings.ToLower(copy.Resolution + " " + copy.File)
		for _, term := range terms {
			if term != "" && strings.Contains(haystack, strings.ToLower(term)) {
				preserved = append(preserved, i)
				break
			}
		}
	}
	return preserved
}

// bestBySize returns the candidate to keep: deleting smallest files means
// keeping the largest, and vice versa.
func bestBySize(copies []models.MediaCopy, candidates []int, pref string) int {
	best := candidates[0]
	for _, i := range candidates[1:] {
		if pref == DeleteSmallestFile {
			if copies[i].Size > copies[best].Size {
				best = i
			}
		} else {
			if copies[i].Size < copies[best].Size {
				best = i
			}
		}
	}
	return best
}

// bestEpisodeCopy ranks copies by resolution priority, tie-broken by largest
// size. Episodes always keep the highest-ranked copy regardless of policy.
func bestEpisodeCopy(copies []models.MediaCopy) int {
	indices := make([]int, len(copies))
	for i := range copies {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		ra := episodeRank(copies[indices[a]].Resolution)
		rb := episodeRank(copies[indices[b]].Resolution)
		if ra != rb {
			return ra > rb
		}
		return copies[indices[a]].Size > copies[indices[b]].Size
	})
	return indices[0]
}

func episodeRank(resolution string) int {
	key := strings.ToLower(strings.TrimSpace(resolution))
	if rank, ok := episodeResolutionRank[key]; ok {
		return rank
	}
	return 1
}
