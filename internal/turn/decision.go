package turn

import (
	"context"
	"strings"

	"github.com/koopa0/concierge/internal/i18n"
)

// Fidelity-check verdicts returned by the answer validator.
const (
	verdictSupported   = "1"
	verdictUnsupported = "0"
)

// decide runs the three-branch decision state machine. The predicates
// are mutually exclusive and exhaustive:
//
//   - NeedsScope  iff the resolved scope is empty
//   - Answer      iff scope is non-empty and top1 similarity strictly
//     exceeds the high-confidence threshold
//   - Handoff     otherwise (resolved scope but low similarity)
func (e *Engine) decide(ctx context.Context, in Input, state *SessionState, cons consolidated, scope string, rank ranking) Decision {
	switch {
	case scope == "":
		return e.decideNeedsScope(ctx, in, state, cons, rank)
	case rank.Top1 != nil && rank.Top1Similarity > e.cfg.AnswerThreshold:
		return e.decideAnswer(ctx, in, state, cons, rank)
	default:
		return e.decideHandoff(ctx, state, rank)
	}
}

// decideNeedsScope builds ranked product-line suggestions from the
// unfiltered search result, phrases a clarification message, and
// persists a scope-reask hint so the user's click can be matched on the
// next turn.
func (e *Engine) decideNeedsScope(ctx context.Context, in Input, state *SessionState, cons consolidated, rank ranking) Decision {
	suggestions := e.rankSuggestions(ctx, rank.Unfiltered, state.Locale)

	lines := make([]string, len(suggestions))
	for i, s := range suggestions {
		lines[i] = s.DisplayName
	}
	clarification := genContained(ctx, e, "phrase_clarification",
		func(ctx context.Context) (string, error) {
			return e.collab.Generate.PhraseClarification(ctx, cons.Query, state.Locale, lines)
		},
		i18n.T(state.Locale, i18n.KeyClarifyFallback))

	hint := HintRecord{
		Type:  HintTypeScopeReask,
		Query: cons.Query,
	}
	for _, s := range suggestions {
		hint.Candidates = append(hint.Candidates, HintCandidate{
			Label:       s.DisplayName,
			ProductLine: s.Line,
			KBID:        s.KBID,
		})
	}
	if err := e.collab.Hints.SaveHint(ctx, in.SessionID, hint); err != nil {
		// Best-effort: a lost hint only costs the click shortcut.
		e.logger.Warn("hint persistence failed", "error", err)
	}

	return Decision{
		Kind:          KindNeedsScope,
		Suggestions:   suggestions,
		Clarification: clarification,
	}
}

// decideAnswer retrieves the stored article for the locale, selects hint
// suggestions from topN, composes a grounded answer, and validates it
// with a fidelity check. A failed verdict falls back to title plus short
// summary with the source marked accordingly. Generative failures
// degrade the answer text only; the decision kind and article reference
// are unaffected.
func (e *Engine) decideAnswer(ctx context.Context, in Input, state *SessionState, cons consolidated, rank ranking) Decision {
	top := rank.Top1

	content, err := e.collab.Content.GetContent(ctx, top.ID, state.Locale)
	if err != nil {
		e.logger.Warn("kb content lookup degraded to empty", "kb", top.ID, "error", err)
		content = KBContent{ID: top.ID}
	}

	d := Decision{
		Kind:    KindAnswer,
		KBID:    top.ID,
		KBTitle: content.Title,
		KBLink:  content.Link,
		Hints:   e.selectHints(ctx, in, rank.TopN, cons.Query),
	}

	draft := ""
	if content.Content != "" {
		draft = genContained(ctx, e, "generate_answer",
			func(ctx context.Context) (string, error) {
				return e.collab.Generate.GenerateAnswer(ctx, content.Content, cons.Query, state.Locale)
			}, "")
	}

	if draft != "" {
		verdict := genValidated(ctx, e, "validate_answer",
			func(ctx context.Context) (string, error) {
				return e.collab.Generate.ValidateAnswer(ctx, cons.Query, draft, content.Content)
			},
			func(v string) bool { return v == verdictSupported || v == verdictUnsupported },
			verdictUnsupported)
		if verdict == verdictSupported {
			d.AnswerText = draft
			d.AnswerSource = SourceGenerated
			return d
		}
		e.logger.Info("answer failed fidelity check, falling back to summary", "kb", top.ID)
	}

	d.AnswerText = titleSummaryFallback(content)
	d.AnswerSource = SourceSummary
	return d
}

// decideHandoff routes to a human agent. No generative answer is
// produced; the payload carries the best-known article title/id as a
// reference plus fixed example prompts that help the user phrase a more
// specific question.
func (e *Engine) decideHandoff(ctx context.Context, state *SessionState, rank ranking) Decision {
	d := Decision{
		Kind:           KindHandoff,
		ExamplePrompts: i18n.ExamplePrompts(state.Locale),
	}

	ref := rank.Top1
	if ref == nil {
		ref = rank.Unfiltered.Top1()
	}
	if ref != nil {
		d.KBID = ref.ID
		content, err := e.collab.Content.GetContent(ctx, ref.ID, state.Locale)
		if err != nil {
			e.logger.Warn("handoff reference lookup degraded", "kb", ref.ID, "error", err)
		} else {
			d.KBTitle = content.Title
			d.KBLink = content.Link
		}
	}

	return d
}

// titleSummaryFallback builds the degraded answer body from the stored
// title and short summary.
func titleSummaryFallback(content KBContent) string {
	parts := make([]string, 0, 2)
	if content.Title != "" {
		parts = append(parts, content.Title)
	}
	if content.Summary != "" {
		parts = append(parts, content.Summary)
	}
	return strings.Join(parts, "\n\n")
}
