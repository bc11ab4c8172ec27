package turn

import (
	"time"

	"github.com/google/uuid"
)

// HintTypeScopeReask tags hints written by the NeedsScope branch. A later
// turn matches the user's click against the hint's candidate labels to
// resolve the product scope without another round trip.
const HintTypeScopeReask = "scope-reask"

// Input is the immutable request for one conversational turn.
type Input struct {
	CustomerID  string
	SessionID   string
	ChatID      string
	Message     string // raw user message
	Site        string // site code, keys the allow-list and locale tables
	ProductLine string // optional explicit product-line hint from the caller
	Channel     string // channel/system code, selects the outbound link field
}

// SessionData is what the session collaborator knows about a session
// before this turn: prior user messages (oldest to newest), turn count,
// the last extracted user-info record, the last resolved scope, and the
// last structured output for follow-up context.
type SessionData struct {
	History    []string
	TurnCount  int
	UserInfo   *UserInfo
	LastScope  string
	LastOutput *LastOutput
}

// LastOutput is the previous turn's structured answer, kept for
// follow-up detection.
type LastOutput struct {
	Answer string
	KBID   string
}

// SessionState is the combined per-turn context snapshot produced by the
// context loader. It is never mutated after construction.
type SessionState struct {
	SessionData
	LastHint *HintRecord
	Locale   string
}

// UserInfo is the structured result of user-info extraction.
type UserInfo struct {
	MainCategory string
	SubCategory  string
}

// Empty reports whether the extraction produced no usable category.
func (u UserInfo) Empty() bool {
	return u.MainCategory == "" && u.SubCategory == ""
}

// HintRecord is a previously surfaced disambiguation hint: its type tag,
// the candidate answers that were offered, and the search string that
// produced them.
type HintRecord struct {
	Type       string
	Candidates []HintCandidate
	Query      string
}

// HintCandidate is one clickable answer of a hint.
type HintCandidate struct {
	Label       string // display text the user may click (and echo back verbatim)
	ProductLine string
	KBID        string
}

// KBCandidate is a knowledge-base article returned by search.
type KBCandidate struct {
	ID           string
	Similarity   float64 // 0.0–1.0
	ProductLines []string
}

// SearchResult is a ranked candidate sequence for one query. Ordering
// reflects descending similarity as returned by the search collaborator;
// the engine filters and overrides but never re-sorts.
type SearchResult struct {
	Query      string
	Candidates []KBCandidate
}

// Top1 returns the candidate at position 0, or nil when empty.
func (r SearchResult) Top1() *KBCandidate {
	if len(r.Candidates) == 0 {
		return nil
	}
	return &r.Candidates[0]
}

// Top1Similarity returns the score at position 0, or 0.0 when empty.
func (r SearchResult) Top1Similarity() float64 {
	if len(r.Candidates) == 0 {
		return 0.0
	}
	return r.Candidates[0].Similarity
}

// KBContent is the stored body of a knowledge-base article for one locale.
type KBContent struct {
	ID      string
	Title   string
	Summary string
	Content string
	Link    string
}

// RelatedQuestion is a paired suggestion-question record keyed by
// (kb id, site, variant). LinkWeb and LinkApp are the two parallel
// outbound link fields; the hint selector collapses them to one by
// channel code.
type RelatedQuestion struct {
	KBID     string
	Question string
	LinkWeb  string
	LinkApp  string
}

// HintSuggestion is a selected related question with the link field
// already collapsed for the requesting channel.
type HintSuggestion struct {
	KBID     string
	Question string
	Link     string
}

// ProductLineSuggestion is one candidate product line offered to the
// user for disambiguation.
type ProductLineSuggestion struct {
	Line        string
	DisplayName string
	Icon        string
	KBID        string // representative article for this line
}

// SentenceGroup is one topic group returned by the sentence-grouping
// collaborator. Statements may contain non-string entries when the
// collaborator returns malformed output; consumers keep only strings.
type SentenceGroup struct {
	Statements []any
}

// FollowUpRequest carries the previous Q/A context for follow-up
// detection.
type FollowUpRequest struct {
	PrevQuestion string
	PrevAnswer   string
	PrevRefs     []string
	NewQuestion  string
}

// FollowUpResult is the detector's verdict. It annotates the audit
// record only; it does not gate any decision branch.
type FollowUpResult struct {
	IsFollowUp bool
	Confidence float64
}

// Kind enumerates the three turn outcomes.
type Kind string

const (
	// KindNeedsScope asks the user to disambiguate the product line.
	KindNeedsScope Kind = "needs_scope"

	// KindAnswer answers authoritatively from the knowledge base.
	KindAnswer Kind = "answer"

	// KindHandoff routes to a human agent.
	KindHandoff Kind = "handoff"
)

// Answer body source tags.
const (
	SourceGenerated = "generated"
	SourceSummary   = "title_summary"
)

// Decision is the single outcome of a turn: a closed tagged variant with
// the fields each branch needs to render. Exactly one Decision is
// produced per turn.
type Decision struct {
	Kind Kind

	// Answer branch
	AnswerText   string
	AnswerSource string // SourceGenerated or SourceSummary
	KBID         string
	KBTitle      string
	KBLink       string
	Hints        []HintSuggestion

	// NeedsScope branch
	Suggestions   []ProductLineSuggestion
	Clarification string

	// Handoff branch
	ExamplePrompts []string
}

// Render block type tags.
const (
	BlockAskProductLine   = "avatarAskProductLine"
	BlockTechnicalSupport = "avatarTechnicalSupport"
	BlockText             = "avatarText"
	BlockAsk              = "avatarAsk"
)

// RenderOption is one clickable option of a render block.
type RenderOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Icon  string `json:"icon,omitempty"`
	KBID  string `json:"kbId,omitempty"`
	Link  string `json:"link,omitempty"`
}

// RenderBlock is one block of the outbound payload.
type RenderBlock struct {
	RenderID string         `json:"renderId"`
	Stream   bool           `json:"stream"`
	Type     string         `json:"type"`
	Message  string         `json:"message"`
	Remark   []string       `json:"remark"`
	Option   []RenderOption `json:"option"`
}

// Payload is the normalized render payload for one turn. It is produced
// fresh each turn and never persisted as mutable shared state.
type Payload struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Result  []RenderBlock `json:"result"`
}

// AuditRecord is the denormalized write-once snapshot of a turn, handed
// to the interaction logger after the payload is finalized.
type AuditRecord struct {
	TurnID           uuid.UUID
	Input            Input
	ResolvedScope    string
	Locale           string
	FilteredSearch   SearchResult // post-override
	UnfilteredSearch SearchResult
	Top1Similarity   float64
	Decision         Decision
	FollowUp         *FollowUpResult
	Payload          Payload
	StartedAt        time.Time
	Duration         time.Duration
}

// Result is what Run hands back to the transport layer.
type Result struct {
	Decision Decision
	Payload  Payload
	Audit    AuditRecord
}
