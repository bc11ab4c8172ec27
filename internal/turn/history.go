package turn

import "context"

// consolidated is the working view of the conversation after history
// consolidation: the statement list of the latest coherent topic group
// and the previous Q/A captured for follow-up detection.
type consolidated struct {
	History []string
	Query   string // newest statement; the search string for this turn

	// Follow-up context, set only when the history has more than one
	// entry.
	FollowUpCandidate bool
	PrevQuestion      string
	PrevAnswer        string
	PrevRefs          []string
}

// consolidateHistory collapses a multi-message history into the latest
// coherent topic group. Single-entry histories skip grouping and are
// deterministically not follow-ups. Grouping failures and empty or
// malformed group results keep the original history — the working
// history is never replaced with an empty list.
func (e *Engine) consolidateHistory(ctx context.Context, in Input, state *SessionState) consolidated {
	history := state.History

	cons := consolidated{
		History: history,
		Query:   history[len(history)-1],
	}
	if len(history) <= 1 {
		return cons
	}

	cons.FollowUpCandidate = true
	cons.PrevQuestion = history[len(history)-2]
	if state.LastOutput != nil {
		cons.PrevAnswer = state.LastOutput.Answer
		if state.LastOutput.KBID != "" {
			cons.PrevRefs = []string{state.LastOutput.KBID}
		}
	}

	groups, err := e.collab.Grouper.GroupSentences(ctx, history)
	if err != nil {
		e.logger.Warn("sentence grouping degraded, keeping original history", "error", err)
		return cons
	}
	if len(groups) == 0 {
		return cons
	}

	// Only string-typed statements of the last group count; anything
	// else is malformed collaborator output and is dropped.
	last := groups[len(groups)-1]
	statements := make([]string, 0, len(last.Statements))
	for _, s := range last.Statements {
		if str, ok := s.(string); ok && str != "" {
			statements = append(statements, str)
		}
	}
	if len(statements) == 0 {
		return cons
	}

	cons.History = statements
	cons.Query = statements[len(statements)-1]
	return cons
}

// startFollowUpDetection launches the background follow-up task. The
// result is joined immediately before decision branching and only
// annotates the audit record; it gates no branch.
func (e *Engine) startFollowUpDetection(ctx context.Context, cons consolidated) *future[*FollowUpResult] {
	if !cons.FollowUpCandidate || e.collab.FollowUp == nil {
		notFollowUp := &FollowUpResult{IsFollowUp: false}
		return spawn(func() *FollowUpResult { return notFollowUp }, notFollowUp)
	}

	req := FollowUpRequest{
		PrevQuestion: cons.PrevQuestion,
		PrevAnswer:   cons.PrevAnswer,
		PrevRefs:     cons.PrevRefs,
		NewQuestion:  cons.Query,
	}
	return spawn(func() *FollowUpResult {
		res, err := genCall(ctx, e, "detect_follow_up", func(ctx context.Context) (FollowUpResult, error) {
			return e.collab.FollowUp.Detect(ctx, req)
		})
		if err != nil {
			e.logger.Warn("follow-up detection degraded to none", "error", err)
			return nil
		}
		return &res
	}, nil)
}

// startAvatarReply launches the speculative avatar-utterance call as
// soon as the consolidated query is known, overlapping its latency with
// scope resolution and search. The handle is joined exactly once, in
// every decision branch.
func (e *Engine) startAvatarReply(ctx context.Context, query, locale string) *future[string] {
	fallback := fallbackAvatarText(locale)
	return spawn(func() string {
		return genContained(ctx, e, "avatar_reply", func(ctx context.Context) (string, error) {
			return e.collab.Generate.GenerateAvatarReply(ctx, query, locale, "")
		}, fallback)
	}, fallback)
}
