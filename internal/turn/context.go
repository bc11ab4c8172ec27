package turn

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// ErrContextLoadFailed indicates every context sub-load failed. A single
// failing sub-call degrades to its default instead.
var ErrContextLoadFailed = errors.New("all session context loads failed")

// loadContext concurrently fetches session history, the last surfaced
// hint, and the site locale, and combines them into one SessionState
// snapshot. All three calls are issued before any is awaited; a failure
// in one does not cancel the siblings. The load fails only when all
// three sub-calls fail.
func (e *Engine) loadContext(ctx context.Context, in Input) (*SessionState, error) {
	var (
		data   *SessionData
		hint   *HintRecord
		locale string

		dataErr, hintErr, localeErr error
	)

	// Plain errgroup, no shared cancellation: sibling loads must finish
	// even when one fails, so sub-errors are captured, not returned.
	var g errgroup.Group
	g.Go(func() error {
		data, dataErr = e.collab.Session.LoadSession(ctx, in.SessionID, in.Message)
		return nil
	})
	g.Go(func() error {
		hint, hintErr = e.collab.Hints.LoadLastHint(ctx, in.SessionID)
		return nil
	})
	g.Go(func() error {
		locale, localeErr = e.collab.Locale.ResolveLocale(ctx, in.Site)
		return nil
	})
	_ = g.Wait()

	if dataErr != nil && hintErr != nil && localeErr != nil {
		return nil, errors.Join(ErrContextLoadFailed, dataErr, hintErr, localeErr)
	}

	if dataErr != nil {
		e.logger.Warn("session load degraded to single-message history", "error", dataErr)
		data = nil
	}
	if data == nil {
		data = &SessionData{History: []string{in.Message}}
	}
	if len(data.History) == 0 {
		data.History = []string{in.Message}
	}

	if hintErr != nil {
		e.logger.Warn("last hint load degraded to none", "error", hintErr)
		hint = nil
	}

	if localeErr != nil || locale == "" {
		if localeErr != nil {
			e.logger.Warn("locale lookup degraded to site default", "error", localeErr)
		}
		locale = e.routing.LocaleFor(in.Site)
	}

	return &SessionState{
		SessionData: *data,
		LastHint:    hint,
		Locale:      locale,
	}, nil
}
