package turn

import (
	"context"
	"errors"
	"testing"
)

func TestLoadContextCombinesAll(t *testing.T) {
	f := newCollabFixture()
	f.session.data = &SessionData{History: []string{"a", "b"}, TurnCount: 2, LastScope: "notebook"}
	f.hints.last = &HintRecord{Type: HintTypeScopeReask}
	f.locale.locale = "zh-TW"
	e := newTestEngine(t, f)

	state, err := e.loadContext(context.Background(), testInput())
	if err != nil {
		t.Fatalf("loadContext: %v", err)
	}
	if len(state.History) != 2 || state.LastScope != "notebook" {
		t.Errorf("session data = %+v", state.SessionData)
	}
	if state.LastHint == nil || state.LastHint.Type != HintTypeScopeReask {
		t.Errorf("last hint = %+v", state.LastHint)
	}
	if state.Locale != "zh-TW" {
		t.Errorf("locale = %q", state.Locale)
	}
}

func TestLoadContextPassesCurrentMessage(t *testing.T) {
	f := newCollabFixture()
	e := newTestEngine(t, f)

	in := testInput()
	if _, err := e.loadContext(context.Background(), in); err != nil {
		t.Fatalf("loadContext: %v", err)
	}
	f.session.mu.Lock()
	got := f.session.lastMessage
	f.session.mu.Unlock()
	if got != in.Message {
		t.Errorf("message passed to session loader = %q, want %q", got, in.Message)
	}
}

func TestLoadContextSessionFailureDegrades(t *testing.T) {
	f := newCollabFixture()
	f.session.err = errors.New("db down")
	e := newTestEngine(t, f)

	in := testInput()
	state, err := e.loadContext(context.Background(), in)
	if err != nil {
		t.Fatalf("loadContext: %v", err)
	}
	if len(state.History) != 1 || state.History[0] != in.Message {
		t.Errorf("history = %v, want the single current message", state.History)
	}
}

func TestLoadContextHintFailureDegrades(t *testing.T) {
	f := newCollabFixture()
	f.hints.last = &HintRecord{Type: HintTypeScopeReask}
	f.hints.lastErr = errors.New("db down")
	e := newTestEngine(t, f)

	state, err := e.loadContext(context.Background(), testInput())
	if err != nil {
		t.Fatalf("loadContext: %v", err)
	}
	if state.LastHint != nil {
		t.Errorf("last hint = %+v, want nil on degraded load", state.LastHint)
	}
}

func TestLoadContextLocaleFailureUsesSiteDefault(t *testing.T) {
	f := newCollabFixture()
	f.locale.err = errors.New("db down")
	e := newTestEngine(t, f)

	state, err := e.loadContext(context.Background(), testInput())
	if err != nil {
		t.Fatalf("loadContext: %v", err)
	}
	if state.Locale != testRouting().LocaleFor("tw") {
		t.Errorf("locale = %q, want the site default", state.Locale)
	}
}

func TestLoadContextAllFailuresError(t *testing.T) {
	f := newCollabFixture()
	f.session.err = errors.New("a")
	f.hints.lastErr = errors.New("b")
	f.locale.err = errors.New("c")
	e := newTestEngine(t, f)

	_, err := e.loadContext(context.Background(), testInput())
	if !errors.Is(err, ErrContextLoadFailed) {
		t.Errorf("err = %v, want ErrContextLoadFailed", err)
	}
}

func TestLoadContextEmptyHistorySeeded(t *testing.T) {
	f := newCollabFixture()
	f.session.data = &SessionData{}
	e := newTestEngine(t, f)

	in := testInput()
	state, err := e.loadContext(context.Background(), in)
	if err != nil {
		t.Fatalf("loadContext: %v", err)
	}
	if len(state.History) != 1 || state.History[0] != in.Message {
		t.Errorf("history = %v, want seeded with the current message", state.History)
	}
}
