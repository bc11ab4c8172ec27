package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries is the pgx implementation of Querier.
type Queries struct {
	pool *pgxpool.Pool
}

// NewQueries creates the pgx-backed Querier over a connection pool.
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

const ensureSessionSQL = `
INSERT INTO sessions (id, customer_id, site)
VALUES ($1, NULLIF($2, ''), NULLIF($3, ''))
ON CONFLICT (id) DO UPDATE SET updated_at = now()`

func (q *Queries) EnsureSession(ctx context.Context, sessionID, customerID, site string) error {
	if _, err := q.pool.Exec(ctx, ensureSessionSQL, sessionID, customerID, site); err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}
	return nil
}

const addMessageSQL = `
INSERT INTO session_messages (session_id, role, content, sequence_number)
VALUES ($1, $2, $3,
        (SELECT COALESCE(MAX(sequence_number), 0) + 1
         FROM session_messages WHERE session_id = $1))`

func (q *Queries) AddMessage(ctx context.Context, sessionID, role, content string) error {
	if _, err := q.pool.Exec(ctx, addMessageSQL, sessionID, role, content); err != nil {
		return fmt.Errorf("add message: %w", err)
	}
	return nil
}

const listUserMessagesSQL = `
SELECT content FROM (
    SELECT content, sequence_number
    FROM session_messages
    WHERE session_id = $1 AND role = $2
    ORDER BY sequence_number DESC
    LIMIT $3
) latest
ORDER BY sequence_number ASC`

func (q *Queries) ListUserMessages(ctx context.Context, sessionID string, limit int32) ([]string, error) {
	rows, err := q.pool.Query(ctx, listUserMessagesSQL, sessionID, RoleUser, limit)
	if err != nil {
		return nil, fmt.Errorf("list user messages: %w", err)
	}
	defer rows.Close()

	var messages []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, content)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

const getStateSQL = `
SELECT session_id, turn_count, user_info, COALESCE(last_scope, ''),
       COALESCE(last_answer, ''), COALESCE(last_kb_id, ''), updated_at
FROM session_state
WHERE session_id = $1`

func (q *Queries) GetState(ctx context.Context, sessionID string) (*StateRow, error) {
	var row StateRow
	err := q.pool.QueryRow(ctx, getStateSQL, sessionID).Scan(
		&row.SessionID, &row.TurnCount, &row.UserInfo,
		&row.LastScope, &row.LastAnswer, &row.LastKBID, &row.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return &row, nil
}

const upsertStateSQL = `
INSERT INTO session_state (session_id, turn_count, user_info, last_scope, last_answer, last_kb_id, updated_at)
VALUES ($1, 1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), now())
ON CONFLICT (session_id) DO UPDATE SET
    turn_count  = session_state.turn_count + 1,
    user_info   = COALESCE(EXCLUDED.user_info, session_state.user_info),
    last_scope  = COALESCE(EXCLUDED.last_scope, session_state.last_scope),
    last_answer = EXCLUDED.last_answer,
    last_kb_id  = EXCLUDED.last_kb_id,
    updated_at  = now()`

func (q *Queries) UpsertState(ctx context.Context, row StateRow) error {
	_, err := q.pool.Exec(ctx, upsertStateSQL,
		row.SessionID, row.UserInfo, row.LastScope, row.LastAnswer, row.LastKBID)
	if err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}
	return nil
}

const upsertHintSQL = `
INSERT INTO hints (session_id, payload, created_at)
VALUES ($1, $2, now())
ON CONFLICT (session_id) DO UPDATE SET
    payload    = EXCLUDED.payload,
    created_at = now()`

func (q *Queries) UpsertHint(ctx context.Context, sessionID string, payload []byte) error {
	if _, err := q.pool.Exec(ctx, upsertHintSQL, sessionID, payload); err != nil {
		return fmt.Errorf("upsert hint: %w", err)
	}
	return nil
}

const getLastHintSQL = `
SELECT payload FROM hints WHERE session_id = $1`

func (q *Queries) GetLastHint(ctx context.Context, sessionID string) ([]byte, error) {
	var payload []byte
	err := q.pool.QueryRow(ctx, getLastHintSQL, sessionID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last hint: %w", err)
	}
	return payload, nil
}

const insertTurnAuditSQL = `
INSERT INTO turn_audits (
    turn_id, session_id, chat_id, customer_id, site, channel, message,
    resolved_scope, locale, decision_kind, kb_id, top1_similarity,
    follow_up, searches, payload, started_at, duration_ms
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
ON CONFLICT (turn_id) DO NOTHING`

func (q *Queries) InsertTurnAudit(ctx context.Context, row AuditRow) error {
	_, err := q.pool.Exec(ctx, insertTurnAuditSQL,
		row.TurnID, row.SessionID, row.ChatID, row.CustomerID, row.Site,
		row.Channel, row.Message, row.ResolvedScope, row.Locale,
		row.DecisionKind, row.KBID, row.Top1,
		row.FollowUp, row.Searches, row.Payload,
		row.StartedAt, row.DurationMS)
	if err != nil {
		return fmt.Errorf("insert turn audit: %w", err)
	}
	return nil
}
