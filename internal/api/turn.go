package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/koopa0/concierge/internal/log"
	"github.com/koopa0/concierge/internal/turn"
)

const maxTurnBodyBytes = 1 << 20 // 1MB

// turnRunner is the engine surface the handler needs. Narrowed to an
// interface so tests can substitute a stub.
type turnRunner interface {
	Run(ctx context.Context, in turn.Input) (*turn.Result, error)
}

// turnHandler serves POST /api/turn.
type turnHandler struct {
	engine turnRunner
	logger log.Logger
}

// turnRequest is the wire form of one turn invocation.
type turnRequest struct {
	CustomerID  string `json:"customerId"`
	SessionID   string `json:"sessionId"`
	ChatID      string `json:"chatId"`
	Message     string `json:"message"`
	Site        string `json:"site"`
	ProductLine string `json:"productLine,omitempty"`
	Channel     string `json:"channel,omitempty"`
}

func (h *turnHandler) run(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTurnBodyBytes)

	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body", h.logger)
		return
	}

	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "missing_session_id", "sessionId is required", h.logger)
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "missing_message", "message is required", h.logger)
		return
	}
	if req.Site == "" {
		writeError(w, http.StatusBadRequest, "missing_site", "site is required", h.logger)
		return
	}

	res, err := h.engine.Run(r.Context(), turn.Input{
		CustomerID:  req.CustomerID,
		SessionID:   req.SessionID,
		ChatID:      req.ChatID,
		Message:     req.Message,
		Site:        req.Site,
		ProductLine: req.ProductLine,
		Channel:     req.Channel,
	})
	if err != nil {
		h.logger.Error("running turn",
			"error", err,
			"session", req.SessionID,
			"request_id", requestIDFromContext(r.Context()),
		)
		if errors.Is(err, turn.ErrContextLoadFailed) {
			writeError(w, http.StatusServiceUnavailable, "context_unavailable", "session context unavailable", h.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, "turn_failed", "failed to process turn", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, res.Payload, h.logger)
}
