package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/koopa0/concierge/internal/log"
	"github.com/koopa0/concierge/internal/turn"
)

// stubRunner returns a canned result and records the input it saw.
type stubRunner struct {
	got    turn.Input
	result *turn.Result
	err    error
}

func (s *stubRunner) Run(_ context.Context, in turn.Input) (*turn.Result, error) {
	s.got = in
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func testResult() *turn.Result {
	return &turn.Result{
		Decision: turn.Decision{Kind: turn.KindAnswer},
		Payload: turn.Payload{
			Status:  "success",
			Message: "answer",
			Result: []turn.RenderBlock{
				{RenderID: "r1", Type: "avatarText", Message: "hello", Remark: []string{}, Option: []turn.RenderOption{}},
			},
		},
	}
}

func postTurn(t *testing.T, h *turnHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/turn", strings.NewReader(body))
	h.run(w, r)
	return w
}

func TestTurnHandler(t *testing.T) {
	runner := &stubRunner{result: testResult()}
	h := &turnHandler{engine: runner, logger: log.NewNop()}

	body := `{"customerId":"c1","sessionId":"s1","chatId":"ch1","message":"screen flickers","site":"us","productLine":"notebook","channel":"app"}`
	w := postTurn(t, h, body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", w.Code, http.StatusOK, w.Body.String())
	}

	if runner.got.SessionID != "s1" || runner.got.Message != "screen flickers" || runner.got.Site != "us" {
		t.Errorf("engine input = %+v, missing request fields", runner.got)
	}
	if runner.got.ProductLine != "notebook" || runner.got.Channel != "app" {
		t.Errorf("optional fields not forwarded: %+v", runner.got)
	}

	var payload turn.Payload
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if payload.Status != "success" || len(payload.Result) != 1 {
		t.Errorf("payload = %+v, want success with one block", payload)
	}
}

func TestTurnHandlerValidation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"missing session", `{"message":"hi","site":"us"}`, "missing_session_id"},
		{"missing message", `{"sessionId":"s1","site":"us"}`, "missing_message"},
		{"missing site", `{"sessionId":"s1","message":"hi"}`, "missing_site"},
		{"malformed json", `{not json`, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{result: testResult()}
			h := &turnHandler{engine: runner, logger: log.NewNop()}

			w := postTurn(t, h, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decoding error response: %v", err)
			}
			if resp.Error != tt.wantCode {
				t.Errorf("error code = %q, want %q", resp.Error, tt.wantCode)
			}
			if runner.got.SessionID != "" || runner.got.Message != "" {
				t.Error("engine invoked despite failed validation")
			}
		})
	}
}

func TestTurnHandlerEngineError(t *testing.T) {
	h := &turnHandler{
		engine: &stubRunner{err: errors.New("boom")},
		logger: log.NewNop(),
	}

	w := postTurn(t, h, `{"sessionId":"s1","message":"hi","site":"us"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestTurnHandlerContextUnavailable(t *testing.T) {
	h := &turnHandler{
		engine: &stubRunner{err: turn.ErrContextLoadFailed},
		logger: log.NewNop(),
	}

	w := postTurn(t, h, `{"sessionId":"s1","message":"hi","site":"us"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if resp.Error != "context_unavailable" {
		t.Errorf("error code = %q, want context_unavailable", resp.Error)
	}
}

func TestTurnHandlerBodyLimit(t *testing.T) {
	h := &turnHandler{engine: &stubRunner{result: testResult()}, logger: log.NewNop()}

	big := bytes.Repeat([]byte("a"), maxTurnBodyBytes+1)
	body := `{"sessionId":"s1","site":"us","message":"` + string(big) + `"}`

	w := postTurn(t, h, body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d for oversized body", w.Code, http.StatusBadRequest)
	}
}
