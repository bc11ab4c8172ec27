package turn

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// maxTopN bounds the hint-suggestion set of an Answer decision.
const maxTopN = 3

// ranking is the output of the search stage.
type ranking struct {
	Filtered   SearchResult // scope-filtered, post-override
	Unfiltered SearchResult // never overridden; feeds the suggestion ranker

	Top1           *KBCandidate
	Top1Similarity float64
	TopN           []KBCandidate // similarity >= membership threshold, original order, max 3
}

// searchAndRank invokes the search collaborator twice in parallel — once
// filtered by the resolved scope, once unfiltered — applies the
// specific-KB override to the filtered result, and derives top1/topN.
// Search failures degrade to empty results. With no resolved scope only
// the unfiltered search runs; the decision has already been routed to
// NeedsScope by then.
func (e *Engine) searchAndRank(ctx context.Context, query, site, scope string) ranking {
	var (
		filtered, unfiltered       SearchResult
		filteredErr, unfilteredErr error
	)

	var g errgroup.Group
	if scope != "" {
		g.Go(func() error {
			filtered, filteredErr = e.collab.Search.Search(ctx, query, site, scope)
			return nil
		})
	}
	g.Go(func() error {
		unfiltered, unfilteredErr = e.collab.Search.Search(ctx, query, site, "")
		return nil
	})
	_ = g.Wait()

	if filteredErr != nil {
		e.logger.Warn("filtered search degraded to empty", "scope", scope, "error", filteredErr)
		filtered = SearchResult{Query: query}
	}
	if unfilteredErr != nil {
		e.logger.Warn("unfiltered search degraded to empty", "error", unfilteredErr)
		unfiltered = SearchResult{Query: query}
	}
	filtered.Query = query
	unfiltered.Query = query

	filtered = e.applyOverride(filtered, unfiltered, scope)

	r := ranking{
		Filtered:       filtered,
		Unfiltered:     unfiltered,
		Top1:           filtered.Top1(),
		Top1Similarity: filtered.Top1Similarity(),
	}
	for _, c := range filtered.Candidates {
		if c.Similarity >= e.cfg.MembershipThreshold {
			r.TopN = append(r.TopN, c)
			if len(r.TopN) == maxTopN {
				break
			}
		}
	}

	return r
}

// applyOverride applies the specific-KB override to the filtered result.
// The override table is keyed by (top candidate id, scope). When a match
// exists, the override-target id is moved to position 0: swapped with
// the current head when it already appears in the list, otherwise it
// forcibly replaces the head. No other candidate's rank changes.
//
// A forced replacement takes the target's metadata from the unfiltered
// pool when available; otherwise it inherits the displaced candidate's
// score so top1 similarity stays meaningful.
func (e *Engine) applyOverride(filtered, unfiltered SearchResult, scope string) SearchResult {
	top := filtered.Top1()
	if top == nil {
		return filtered
	}
	target := e.routing.OverrideFor(top.ID, scope)
	if target == "" || target == top.ID {
		return filtered
	}

	out := SearchResult{
		Query:      filtered.Query,
		Candidates: make([]KBCandidate, len(filtered.Candidates)),
	}
	copy(out.Candidates, filtered.Candidates)

	for i, c := range out.Candidates {
		if c.ID == target {
			out.Candidates[0], out.Candidates[i] = out.Candidates[i], out.Candidates[0]
			e.logger.Debug("specific-kb override swapped", "top", top.ID, "target", target, "scope", scope)
			return out
		}
	}

	replacement := KBCandidate{ID: target, Similarity: top.Similarity}
	for _, c := range unfiltered.Candidates {
		if c.ID == target {
			replacement = c
			break
		}
	}
	out.Candidates[0] = replacement
	e.logger.Debug("specific-kb override replaced head", "top", top.ID, "target", target, "scope", scope)
	return out
}
