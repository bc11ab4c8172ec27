package turn

import (
	"context"
	"sort"
)

// maxSuggestions is the hard cap on product-line suggestions per turn.
const maxSuggestions = 3

// rankSuggestions produces up to three product-line suggestions from the
// unfiltered candidate list, each referencing a distinct product line:
//
//  1. union of product lines from candidates at or above the popularity
//     threshold, in first-seen order
//  2. sorted by the fixed popularity table (unlisted lines last, stable)
//  3. backfilled from the remaining pool, same ordering, until three
//     suggestions exist or the pool is exhausted
//  4. each chosen line gets the first original candidate containing it
//     as its representative article
func (e *Engine) rankSuggestions(ctx context.Context, unfiltered SearchResult, locale string) []ProductLineSuggestion {
	primary := collectLines(unfiltered.Candidates, e.cfg.PopularityThreshold, nil)
	e.sortByPopularity(primary)

	chosen := primary
	if len(chosen) < maxSuggestions {
		seen := make(map[string]bool, len(chosen))
		for _, l := range chosen {
			seen[l] = true
		}
		backfill := collectLines(unfiltered.Candidates, 0, seen)
		e.sortByPopularity(backfill)
		for _, l := range backfill {
			if len(chosen) == maxSuggestions {
				break
			}
			chosen = append(chosen, l)
		}
	}
	if len(chosen) > maxSuggestions {
		chosen = chosen[:maxSuggestions]
	}

	suggestions := make([]ProductLineSuggestion, 0, len(chosen))
	for _, line := range chosen {
		s := ProductLineSuggestion{
			Line: line,
			KBID: representativeKB(unfiltered.Candidates, line),
		}
		name, icon, err := e.collab.Catalog.DisplayName(ctx, line, locale)
		if err != nil || name == "" {
			if err != nil {
				e.logger.Warn("product catalog lookup degraded", "line", line, "error", err)
			}
			name = line
		}
		s.DisplayName = name
		s.Icon = icon
		suggestions = append(suggestions, s)
	}
	return suggestions
}

// collectLines returns the deduplicated union of product lines from
// candidates with similarity >= minSimilarity, in first-seen order,
// skipping lines already in exclude.
func collectLines(candidates []KBCandidate, minSimilarity float64, exclude map[string]bool) []string {
	var lines []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		if c.Similarity < minSimilarity {
			continue
		}
		for _, l := range c.ProductLines {
			if l == "" || seen[l] || exclude[l] {
				continue
			}
			seen[l] = true
			lines = append(lines, l)
		}
	}
	return lines
}

// sortByPopularity sorts lines by the fixed popularity table. Lines not
// in the table sort last; the sort is stable so their relative order is
// preserved.
func (e *Engine) sortByPopularity(lines []string) {
	sort.SliceStable(lines, func(i, j int) bool {
		return e.routing.PopularityRank(lines[i]) < e.routing.PopularityRank(lines[j])
	})
}

// representativeKB returns the id of the first candidate in the original
// list whose product-line set contains line.
func representativeKB(candidates []KBCandidate, line string) string {
	for _, c := range candidates {
		for _, l := range c.ProductLines {
			if l == line {
				return c.ID
			}
		}
	}
	return ""
}
