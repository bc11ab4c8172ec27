package turn

import "context"

// Related-question variants. The default is "1"; the first id switches
// to "2" when the hint-similarity side channel has already surfaced its
// variant-1 question for this search string.
const (
	hintVariantDefault   = "1"
	hintVariantAlternate = "2"
)

// ChannelApp is the channel code for the mobile app; it selects the app
// link field of a related question. Every other channel gets the web
// link.
const ChannelApp = "app"

// selectHints chooses a paired related-question record for each of up to
// three top-ranked article ids. Ids with no record for the computed key
// are silently skipped — no placeholders. The two parallel link fields
// collapse to the one matching the requesting channel.
func (e *Engine) selectHints(ctx context.Context, in Input, topN []KBCandidate, query string) []HintSuggestion {
	if len(topN) == 0 {
		return nil
	}

	alreadySurfaced, err := e.collab.Content.SimilarHint(ctx, query)
	if err != nil {
		e.logger.Warn("hint similarity lookup degraded", "error", err)
		alreadySurfaced = ""
	}

	hints := make([]HintSuggestion, 0, len(topN))
	for i, c := range topN {
		variant := hintVariantDefault
		if i == 0 && c.ID == alreadySurfaced {
			variant = hintVariantAlternate
		}

		rq, err := e.collab.Content.RelatedQuestion(ctx, c.ID, in.Site, variant)
		if err != nil {
			e.logger.Warn("related question lookup degraded", "kb", c.ID, "variant", variant, "error", err)
			continue
		}
		if rq == nil || rq.Question == "" {
			continue
		}

		link := rq.LinkWeb
		if in.Channel == ChannelApp {
			link = rq.LinkApp
		}
		hints = append(hints, HintSuggestion{
			KBID:     rq.KBID,
			Question: rq.Question,
			Link:     link,
		})
	}
	return hints
}
