package turn

import (
	"context"
	"errors"
	"testing"
)

func TestSelectHintsCollapsesLinkByChannel(t *testing.T) {
	f := newCollabFixture()
	f.content.related = map[string]*RelatedQuestion{
		"1000/1": {KBID: "1000", Question: "How long does the battery last?", LinkWeb: "https://web/1000", LinkApp: "app://1000"},
	}
	e := newTestEngine(t, f)
	top := []KBCandidate{{ID: "1000", Similarity: 0.95}}

	web := e.selectHints(context.Background(), testInput(), top, "battery")
	if len(web) != 1 || web[0].Link != "https://web/1000" {
		t.Fatalf("web hints = %+v, want single hint with web link", web)
	}

	in := testInput()
	in.Channel = ChannelApp
	app := e.selectHints(context.Background(), in, top, "battery")
	if len(app) != 1 || app[0].Link != "app://1000" {
		t.Fatalf("app hints = %+v, want single hint with app link", app)
	}
}

func TestSelectHintsSkipsMissingRecords(t *testing.T) {
	f := newCollabFixture()
	f.content.related = map[string]*RelatedQuestion{
		"2000/1": {KBID: "2000", Question: "Second question", LinkWeb: "https://web/2000"},
	}
	e := newTestEngine(t, f)

	top := []KBCandidate{
		{ID: "1000", Similarity: 0.95}, // no record, silently skipped
		{ID: "2000", Similarity: 0.93},
	}
	hints := e.selectHints(context.Background(), testInput(), top, "battery")
	if len(hints) != 1 {
		t.Fatalf("hints = %+v, want exactly one", hints)
	}
	if hints[0].KBID != "2000" {
		t.Errorf("kept hint = %q, want 2000", hints[0].KBID)
	}
}

func TestSelectHintsAlternateVariantForSurfacedTop(t *testing.T) {
	f := newCollabFixture()
	f.content.similar = "1000" // the side channel already surfaced 1000's variant 1
	f.content.related = map[string]*RelatedQuestion{
		"1000/2": {KBID: "1000", Question: "Alternate question", LinkWeb: "https://web/1000-alt"},
		"2000/1": {KBID: "2000", Question: "Second question", LinkWeb: "https://web/2000"},
	}
	e := newTestEngine(t, f)

	top := []KBCandidate{
		{ID: "1000", Similarity: 0.95},
		{ID: "2000", Similarity: 0.93},
	}
	hints := e.selectHints(context.Background(), testInput(), top, "battery")
	if len(hints) != 2 {
		t.Fatalf("hints = %+v, want two", hints)
	}
	if hints[0].Question != "Alternate question" {
		t.Errorf("first hint question = %q, want the variant-2 question", hints[0].Question)
	}
	if hints[1].Question != "Second question" {
		t.Errorf("second hint question = %q, want the variant-1 question", hints[1].Question)
	}
}

func TestSelectHintsSimilarityLookupDegrades(t *testing.T) {
	f := newCollabFixture()
	f.content.similarErr = errors.New("side channel down")
	f.content.related = map[string]*RelatedQuestion{
		"1000/1": {KBID: "1000", Question: "Default question", LinkWeb: "https://web/1000"},
	}
	e := newTestEngine(t, f)

	hints := e.selectHints(context.Background(), testInput(), []KBCandidate{{ID: "1000", Similarity: 0.95}}, "battery")
	if len(hints) != 1 || hints[0].Question != "Default question" {
		t.Fatalf("hints = %+v, want the variant-1 question despite the degraded lookup", hints)
	}
}

func TestSelectHintsEmptyTopN(t *testing.T) {
	f := newCollabFixture()
	e := newTestEngine(t, f)
	if hints := e.selectHints(context.Background(), testInput(), nil, "battery"); len(hints) != 0 {
		t.Errorf("hints = %+v, want none", hints)
	}
}

func TestSelectHintsLookupErrorSkipsCandidate(t *testing.T) {
	f := newCollabFixture()
	f.content.relatedErr = errors.New("lookup down")
	e := newTestEngine(t, f)

	hints := e.selectHints(context.Background(), testInput(), []KBCandidate{{ID: "1000", Similarity: 0.95}}, "battery")
	if len(hints) != 0 {
		t.Errorf("hints = %+v, want none when every lookup fails", hints)
	}
}
