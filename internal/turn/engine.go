package turn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/koopa0/concierge/internal/config"
	"github.com/koopa0/concierge/internal/log"
)

// ErrMissingCollaborator indicates a required collaborator was not wired.
var ErrMissingCollaborator = errors.New("missing collaborator")

// Engine orchestrates one conversational turn. It is safe for concurrent
// use: all per-turn state lives on the stack of Run.
//
// Two concurrent turns for the same session may race; the transport
// layer is assumed to serialize turns per session.
type Engine struct {
	collab  Collaborators
	cfg     config.EngineConfig
	routing *config.RoutingConfig
	limiter *rate.Limiter
	logger  log.Logger
}

// New creates an Engine. routing must be the immutable routing tables
// loaded at startup; an admin-triggered refresh constructs a new Engine
// rather than mutating the tables in place.
func New(collab Collaborators, cfg config.EngineConfig, routing *config.RoutingConfig, logger log.Logger) (*Engine, error) {
	required := map[string]any{
		"session":  collab.Session,
		"hints":    collab.Hints,
		"locale":   collab.Locale,
		"grouper":  collab.Grouper,
		"extract":  collab.Extract,
		"products": collab.Products,
		"search":   collab.Search,
		"content":  collab.Content,
		"catalog":  collab.Catalog,
		"generate": collab.Generate,
	}
	for name, c := range required {
		if c == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingCollaborator, name)
		}
	}
	if logger == nil {
		logger = log.NewNop()
	}

	return &Engine{
		collab:  collab,
		cfg:     cfg,
		routing: routing,
		limiter: rate.NewLimiter(rate.Limit(cfg.GenRatePerSecond), cfg.GenRateBurst),
		logger:  logger,
	}, nil
}

// genTimeout returns the short deadline for first generative attempts.
func (e *Engine) genTimeout() time.Duration {
	return time.Duration(e.cfg.GenTimeoutMS) * time.Millisecond
}

// genRetryDelay returns the fixed inter-attempt delay of the
// content-validation retry loop.
func (e *Engine) genRetryDelay() time.Duration {
	return time.Duration(e.cfg.GenRetryDelayMS) * time.Millisecond
}

// Run executes one turn. It always returns a structurally valid result:
// collaborator failures degrade the affected stage, never the turn.
func (e *Engine) Run(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	logger := e.logger.With("session", in.SessionID, "chat", in.ChatID)

	// Stage 1: parallel context load (history, last hint, locale).
	state, err := e.loadContext(ctx, in)
	if err != nil {
		// Only possible when every sub-load failed.
		return nil, fmt.Errorf("loading session context: %w", err)
	}

	// Stage 2: consolidate history and launch follow-up detection in the
	// background. The detector result is joined after ranking.
	cons := e.consolidateHistory(ctx, in, state)
	followUp := e.startFollowUpDetection(ctx, cons)

	// Speculative avatar call: started now so its latency overlaps scope
	// resolution and search. Joined exactly once, in every branch.
	avatar := e.startAvatarReply(ctx, cons.Query, state.Locale)

	// Stage 3: resolve the active product scope.
	scope := e.resolveScope(ctx, in, state, cons)

	// Stage 4: dual search and ranking.
	rank := e.searchAndRank(ctx, cons.Query, in.Site, scope)

	// Join the soft follow-up signal before branching. Audit-only.
	followUpResult := followUp.join(ctx)

	// Stage 5: three-branch decision.
	decision := e.decide(ctx, in, state, cons, scope, rank)

	// Join the speculative avatar text and assemble the payload.
	avatarText := avatar.join(ctx)
	payload := e.buildPayload(in, decision, avatarText, state.Locale)

	audit := AuditRecord{
		TurnID:           uuid.NewSHA1(uuid.NameSpaceOID, []byte(in.SessionID+"/"+in.ChatID)),
		Input:            in,
		ResolvedScope:    scope,
		Locale:           state.Locale,
		FilteredSearch:   rank.Filtered,
		UnfilteredSearch: rank.Unfiltered,
		Top1Similarity:   rank.Top1Similarity,
		Decision:         decision,
		FollowUp:         followUpResult,
		Payload:          payload,
		StartedAt:        start,
		Duration:         time.Since(start),
	}

	// Fire-and-forget persistence; never awaited on the response path.
	e.recordTurn(ctx, audit)

	logger.Info("turn completed",
		"decision", decision.Kind,
		"scope", scope,
		"top1_similarity", rank.Top1Similarity,
		"duration", audit.Duration)

	return &Result{Decision: decision, Payload: payload, Audit: audit}, nil
}
