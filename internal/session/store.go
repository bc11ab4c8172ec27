package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/koopa0/concierge/internal/config"
	"github.com/koopa0/concierge/internal/log"
	"github.com/koopa0/concierge/internal/turn"
)

// Message roles stored in session_messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// HistoryLimit caps the number of prior user messages loaded per turn.
const HistoryLimit int32 = 50

// Sentinel errors.
var (
	// ErrSessionNotFound indicates the session row does not exist.
	ErrSessionNotFound = errors.New("session not found")
)

// StateRow is the denormalized session state snapshot.
type StateRow struct {
	SessionID  string
	TurnCount  int
	UserInfo   []byte // JSON-encoded turn.UserInfo, nil when never extracted
	LastScope  string
	LastAnswer string
	LastKBID   string
	UpdatedAt  time.Time
}

// AuditRow is one append-only turn audit entry, ready for insertion.
type AuditRow struct {
	TurnID        uuid.UUID
	SessionID     string
	ChatID        string
	CustomerID    string
	Site          string
	Channel       string
	Message       string
	ResolvedScope string
	Locale        string
	DecisionKind  string
	KBID          string
	Top1          float64
	FollowUp      []byte // JSON, nil when detection did not run
	Searches      []byte // JSON, both search results
	Payload       []byte // JSON render payload
	StartedAt     time.Time
	DurationMS    int64
}

// Querier is the database contract the store consumes. Implemented by
// Queries over pgx; tests substitute a mock.
type Querier interface {
	// EnsureSession upserts the session row.
	EnsureSession(ctx context.Context, sessionID, customerID, site string) error

	// AddMessage appends one message with the next sequence number.
	AddMessage(ctx context.Context, sessionID, role, content string) error

	// ListUserMessages returns the latest user messages, oldest first.
	ListUserMessages(ctx context.Context, sessionID string, limit int32) ([]string, error)

	// GetState fetches the state snapshot, nil when none exists yet.
	GetState(ctx context.Context, sessionID string) (*StateRow, error)

	// UpsertState replaces the state snapshot.
	UpsertState(ctx context.Context, row StateRow) error

	// UpsertHint replaces the session's last hint payload.
	UpsertHint(ctx context.Context, sessionID string, payload []byte) error

	// GetLastHint fetches the last hint payload, nil when none exists.
	GetLastHint(ctx context.Context, sessionID string) ([]byte, error)

	// InsertTurnAudit appends one audit entry.
	InsertTurnAudit(ctx context.Context, row AuditRow) error
}

// Store satisfies the turn engine's SessionLoader, HintStore,
// LocaleResolver, and TurnRecorder contracts.
//
// Store is safe for concurrent use.
type Store struct {
	queries Querier
	routing *config.RoutingConfig
	logger  log.Logger
}

// New creates a Store. routing supplies the site-to-locale table.
func New(queries Querier, routing *config.RoutingConfig, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{
		queries: queries,
		routing: routing,
		logger:  logger,
	}
}

// LoadSession appends the incoming message to the session and returns
// the session's prior knowledge: user-message history (current message
// last), turn count, last extracted user info, last resolved scope, and
// the previous turn's structured output.
func (s *Store) LoadSession(ctx context.Context, sessionID, message string) (*turn.SessionData, error) {
	if err := s.queries.EnsureSession(ctx, sessionID, "", ""); err != nil {
		return nil, fmt.Errorf("ensuring session %q: %w", sessionID, err)
	}
	if err := s.queries.AddMessage(ctx, sessionID, RoleUser, message); err != nil {
		return nil, fmt.Errorf("appending message: %w", err)
	}

	history, err := s.queries.ListUserMessages(ctx, sessionID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	if len(history) == 0 || history[len(history)-1] != message {
		history = append(history, message)
	}

	data := &turn.SessionData{History: history}

	state, err := s.queries.GetState(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session state: %w", err)
	}
	if state != nil {
		data.TurnCount = state.TurnCount
		data.LastScope = state.LastScope
		if len(state.UserInfo) > 0 {
			var info turn.UserInfo
			if err := json.Unmarshal(state.UserInfo, &info); err != nil {
				s.logger.Warn("malformed stored user info, ignoring", "session", sessionID, "error", err)
			} else {
				data.UserInfo = &info
			}
		}
		if state.LastAnswer != "" || state.LastKBID != "" {
			data.LastOutput = &turn.LastOutput{
				Answer: state.LastAnswer,
				KBID:   state.LastKBID,
			}
		}
	}

	return data, nil
}

// LoadLastHint returns the session's most recent hint, or nil.
func (s *Store) LoadLastHint(ctx context.Context, sessionID string) (*turn.HintRecord, error) {
	payload, err := s.queries.GetLastHint(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading last hint: %w", err)
	}
	if payload == nil {
		return nil, nil
	}

	var hint turn.HintRecord
	if err := json.Unmarshal(payload, &hint); err != nil {
		// A malformed stored hint only costs the click shortcut.
		s.logger.Warn("malformed stored hint, ignoring", "session", sessionID, "error", err)
		return nil, nil
	}
	return &hint, nil
}

// SaveHint replaces the session's last hint.
func (s *Store) SaveHint(ctx context.Context, sessionID string, hint turn.HintRecord) error {
	payload, err := json.Marshal(hint)
	if err != nil {
		return fmt.Errorf("encoding hint: %w", err)
	}
	if err := s.queries.UpsertHint(ctx, sessionID, payload); err != nil {
		return fmt.Errorf("saving hint: %w", err)
	}
	return nil
}

// ResolveLocale maps a site code to its display locale.
func (s *Store) ResolveLocale(_ context.Context, site string) (string, error) {
	return s.routing.LocaleFor(site), nil
}

// SaveTurn appends the turn audit entry and rolls the session state
// snapshot forward so the next turn sees this turn's scope and answer.
func (s *Store) SaveTurn(ctx context.Context, rec turn.AuditRecord) error {
	row, err := auditRow(rec)
	if err != nil {
		return fmt.Errorf("encoding audit record: %w", err)
	}
	if err := s.queries.InsertTurnAudit(ctx, row); err != nil {
		return fmt.Errorf("inserting turn audit: %w", err)
	}

	state := StateRow{
		SessionID: rec.Input.SessionID,
		LastScope: rec.ResolvedScope,
	}
	if rec.Decision.Kind == turn.KindAnswer {
		state.LastAnswer = rec.Decision.AnswerText
		state.LastKBID = rec.Decision.KBID
	}
	if err := s.queries.UpsertState(ctx, state); err != nil {
		return fmt.Errorf("updating session state: %w", err)
	}

	if rec.Decision.Kind != turn.KindNeedsScope {
		text := rec.Decision.AnswerText
		if text == "" {
			text = string(rec.Decision.Kind)
		}
		if err := s.queries.AddMessage(ctx, rec.Input.SessionID, RoleAssistant, text); err != nil {
			s.logger.Warn("recording assistant message failed", "session", rec.Input.SessionID, "error", err)
		}
	}

	return nil
}

// auditRow flattens an AuditRecord for insertion.
func auditRow(rec turn.AuditRecord) (AuditRow, error) {
	searches, err := json.Marshal(map[string]turn.SearchResult{
		"filtered":   rec.FilteredSearch,
		"unfiltered": rec.UnfilteredSearch,
	})
	if err != nil {
		return AuditRow{}, err
	}
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return AuditRow{}, err
	}

	row := AuditRow{
		TurnID:        rec.TurnID,
		SessionID:     rec.Input.SessionID,
		ChatID:        rec.Input.ChatID,
		CustomerID:    rec.Input.CustomerID,
		Site:          rec.Input.Site,
		Channel:       rec.Input.Channel,
		Message:       rec.Input.Message,
		ResolvedScope: rec.ResolvedScope,
		Locale:        rec.Locale,
		DecisionKind:  string(rec.Decision.Kind),
		KBID:          rec.Decision.KBID,
		Top1:          rec.Top1Similarity,
		Searches:      searches,
		Payload:       payload,
		StartedAt:     rec.StartedAt,
		DurationMS:    rec.Duration.Milliseconds(),
	}
	if rec.FollowUp != nil {
		fu, err := json.Marshal(rec.FollowUp)
		if err != nil {
			return AuditRow{}, err
		}
		row.FollowUp = fu
	}
	return row, nil
}
