package turn

import (
	"context"
	"errors"
	"testing"
)

func suggestionLines(s []ProductLineSuggestion) []string {
	lines := make([]string, len(s))
	for i, sg := range s {
		lines[i] = sg.Line
	}
	return lines
}

func TestRankSuggestionsPopularityOrder(t *testing.T) {
	f := newCollabFixture()
	e := newTestEngine(t, f)

	// All three lines clear the 0.97 threshold; the popularity table
	// (notebook, desktop, monitor) decides the order, not similarity.
	unfiltered := SearchResult{Candidates: []KBCandidate{
		{ID: "a", Similarity: 0.99, ProductLines: []string{"monitor"}},
		{ID: "b", Similarity: 0.98, ProductLines: []string{"desktop"}},
		{ID: "c", Similarity: 0.97, ProductLines: []string{"notebook"}},
	}}

	got := e.rankSuggestions(context.Background(), unfiltered, "en")

	want := []string{"notebook", "desktop", "monitor"}
	lines := suggestionLines(got)
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("lines = %v, want %v", lines, want)
		}
	}
}

func TestRankSuggestionsBackfill(t *testing.T) {
	f := newCollabFixture()
	e := newTestEngine(t, f)

	// Only one line clears 0.97; the rest backfills from the remaining
	// pool in popularity order.
	unfiltered := SearchResult{Candidates: []KBCandidate{
		{ID: "a", Similarity: 0.99, ProductLines: []string{"monitor"}},
		{ID: "b", Similarity: 0.60, ProductLines: []string{"desktop"}},
		{ID: "c", Similarity: 0.50, ProductLines: []string{"notebook"}},
		{ID: "d", Similarity: 0.40, ProductLines: []string{"router"}},
	}}

	got := e.rankSuggestions(context.Background(), unfiltered, "en")

	want := []string{"monitor", "notebook", "desktop"}
	lines := suggestionLines(got)
	if len(lines) != 3 {
		t.Fatalf("len = %d, want 3", len(lines))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("lines = %v, want %v", lines, want)
		}
	}
}

func TestRankSuggestionsNeverExceedsThreeOrDuplicates(t *testing.T) {
	f := newCollabFixture()
	e := newTestEngine(t, f)

	unfiltered := SearchResult{Candidates: []KBCandidate{
		{ID: "a", Similarity: 0.99, ProductLines: []string{"notebook", "desktop"}},
		{ID: "b", Similarity: 0.98, ProductLines: []string{"notebook", "monitor"}},
		{ID: "c", Similarity: 0.98, ProductLines: []string{"router"}},
		{ID: "d", Similarity: 0.98, ProductLines: []string{"desktop"}},
	}}

	got := e.rankSuggestions(context.Background(), unfiltered, "en")

	if len(got) > 3 {
		t.Fatalf("len = %d, must never exceed 3", len(got))
	}
	seen := map[string]bool{}
	for _, s := range got {
		if seen[s.Line] {
			t.Fatalf("duplicate product line %q", s.Line)
		}
		seen[s.Line] = true
	}
}

func TestRankSuggestionsExhaustedPool(t *testing.T) {
	f := newCollabFixture()
	e := newTestEngine(t, f)

	unfiltered := SearchResult{Candidates: []KBCandidate{
		{ID: "a", Similarity: 0.50, ProductLines: []string{"notebook"}},
	}}

	got := e.rankSuggestions(context.Background(), unfiltered, "en")

	if len(got) != 1 || got[0].Line != "notebook" {
		t.Fatalf("got %v, want single notebook suggestion", suggestionLines(got))
	}
}

func TestRankSuggestionsRepresentativeKB(t *testing.T) {
	f := newCollabFixture()
	e := newTestEngine(t, f)

	unfiltered := SearchResult{Candidates: []KBCandidate{
		{ID: "first", Similarity: 0.99, ProductLines: []string{"notebook"}},
		{ID: "second", Similarity: 0.98, ProductLines: []string{"notebook"}},
	}}

	got := e.rankSuggestions(context.Background(), unfiltered, "en")

	if len(got) != 1 || got[0].KBID != "first" {
		t.Fatalf("representative KB = %v, want first candidate containing the line", got)
	}
}

func TestRankSuggestionsUnlistedLinesSortLastStable(t *testing.T) {
	f := newCollabFixture()
	e := newTestEngine(t, f)

	unfiltered := SearchResult{Candidates: []KBCandidate{
		{ID: "a", Similarity: 0.99, ProductLines: []string{"zz-gadget"}},
		{ID: "b", Similarity: 0.99, ProductLines: []string{"aa-widget"}},
		{ID: "c", Similarity: 0.99, ProductLines: []string{"desktop"}},
	}}

	got := e.rankSuggestions(context.Background(), unfiltered, "en")

	want := []string{"desktop", "zz-gadget", "aa-widget"}
	lines := suggestionLines(got)
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("lines = %v, want %v (unlisted keep first-seen order)", lines, want)
		}
	}
}

func TestRankSuggestionsCatalogDegradesToLineCode(t *testing.T) {
	f := newCollabFixture()
	f.catalog.err = errors.New("catalog down")
	e := newTestEngine(t, f)

	unfiltered := SearchResult{Candidates: []KBCandidate{
		{ID: "a", Similarity: 0.99, ProductLines: []string{"notebook"}},
	}}

	got := e.rankSuggestions(context.Background(), unfiltered, "en")

	if len(got) != 1 || got[0].DisplayName != "notebook" {
		t.Fatalf("display name should fall back to the line code, got %v", got)
	}
}
