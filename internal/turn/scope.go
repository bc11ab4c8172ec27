package turn

import "context"

// resolveScope determines the active product line for this turn.
// Resolution order, first match wins:
//
//  1. the user clicked a candidate of a previous scope-reask hint
//  2. the turn explicitly supplies a product line
//  3. user-info extraction resolves to a canonical product line
//  4. the session's last known scope
//
// Post-condition: a resolved scope outside the site's allow-list is
// replaced by the last known scope; this rejects unrecognized values
// even when a collaborator returned them. "" means no scope and routes
// the turn to the NeedsScope branch.
func (e *Engine) resolveScope(ctx context.Context, in Input, state *SessionState, cons consolidated) string {
	scope := e.resolveScopeCandidate(ctx, in, state, cons)

	if scope != "" && !e.routing.AllowedProductLine(in.Site, scope) {
		e.logger.Warn("resolved scope not in site allow-list, reverting to last known scope",
			"scope", scope, "site", in.Site)
		scope = state.LastScope
		if scope != "" && !e.routing.AllowedProductLine(in.Site, scope) {
			scope = ""
		}
	}

	return scope
}

func (e *Engine) resolveScopeCandidate(ctx context.Context, in Input, state *SessionState, cons consolidated) string {
	// 1. Hint click: the raw message exactly equals one of the candidate
	// answers offered by the last scope-reask hint.
	if state.LastHint != nil && state.LastHint.Type == HintTypeScopeReask {
		for _, cand := range state.LastHint.Candidates {
			if in.Message == cand.Label {
				return cand.ProductLine
			}
		}
	}

	// 2. Explicit product line on the turn input.
	if in.ProductLine != "" {
		return in.ProductLine
	}

	// 3. User-info extraction (generative call under the
	// content-validation retry policy), then canonical lookup.
	info := genValidated(ctx, e, "extract_user_info",
		func(ctx context.Context) (UserInfo, error) {
			return e.collab.Extract.ExtractUserInfo(ctx, cons.History)
		},
		func(u UserInfo) bool { return !u.Empty() },
		UserInfo{})
	for _, category := range []string{info.MainCategory, info.SubCategory} {
		if category == "" {
			continue
		}
		line, err := e.collab.Products.ResolveProductLine(ctx, category, in.Site)
		if err != nil {
			e.logger.Warn("product line lookup degraded", "category", category, "error", err)
			continue
		}
		if line != "" {
			return line
		}
	}

	// 4. Last known scope.
	return state.LastScope
}
