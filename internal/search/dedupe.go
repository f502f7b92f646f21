package search

import (
	"sort"
	"strings"
	"time"

	"curatordash/searchservice/internal/domain"
)

// canonicalKey is the dedup identity of a result. Kept as the raw URL string
// today; normalization (tracking params, scheme folding) would change only
// this function.
func canonicalKey(result domain.Result) string {
	return strings.TrimSpace(result.URL)
}

// dedupeAndRank drops results with empty URLs, collapses duplicates keeping
// the first occurrence, and sorts newest first. The sort is stable so ties
// keep their arrival order.
func dedupeAndRank(results []domain.Result) []domain.Result {
	seen := make(map[string]struct{}, len(results))
	deduped := make([]domain.Result, 0, len(results))
	for _, result := range results {
		key := canonicalKey(result)
		if key == "" {
			continue
		}
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, result)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].PublishedAt.After(deduped[j].PublishedAt)
	})
	return deduped
}

// applyDateFilter keeps results no older than the filter window. Unbounded
// filters pass everything through, including future-dated items.
func applyDateFilter(results []domain.Result, filter domain.DateFilter, now time.Time) []domain.Result {
	maxAge := filter.MaxAge()
	if maxAge == 0 {
		return results
	}
	cutoff := now.Add(-maxAge)
	filtered := results[:0]
	for _, result := range results {
		if result.PublishedAt.Before(cutoff) {
			continue
		}
		filtered = append(filtered, result)
	}
	return filtered
}

func truncateResults(results []domain.Result, max int) []domain.Result {
	if max > 0 && len(results) > max {
		return results[:max]
	}
	return results
}
