package turn

import "context"

// Collaborator contracts consumed by the engine. One narrow interface
// per contract, defined here on the consumer side; production adapters
// (internal/session, internal/kb, internal/llm) and test doubles satisfy
// the same interfaces.

// SessionLoader loads what is known about a session before this turn.
// message is the current raw user message; the returned history includes
// it as the newest entry.
type SessionLoader interface {
	LoadSession(ctx context.Context, sessionID, message string) (*SessionData, error)
}

// HintStore reads the last surfaced hint and persists new ones. SaveHint
// is best-effort: the engine logs failures and proceeds.
type HintStore interface {
	LoadLastHint(ctx context.Context, sessionID string) (*HintRecord, error)
	SaveHint(ctx context.Context, sessionID string, hint HintRecord) error
}

// LocaleResolver maps a site code to its locale.
type LocaleResolver interface {
	ResolveLocale(ctx context.Context, site string) (string, error)
}

// SentenceGrouper collapses a multi-message history into coherent topic
// groups, each with an ordered statement list.
type SentenceGrouper interface {
	GroupSentences(ctx context.Context, history []string) ([]SentenceGroup, error)
}

// UserInfoExtractor extracts a candidate product category from the
// conversation (generative call).
type UserInfoExtractor interface {
	ExtractUserInfo(ctx context.Context, history []string) (UserInfo, error)
}

// ProductLineResolver resolves an extracted category to a canonical
// product line for a site, or "" when the category is unknown.
type ProductLineResolver interface {
	ResolveProductLine(ctx context.Context, category, site string) (string, error)
}

// KnowledgeSearcher performs vector search over the knowledge base.
// productLine == "" requests the unfiltered variant. The returned
// candidate order reflects descending similarity.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query, site, productLine string) (SearchResult, error)
}

// ContentStore reads stored article bodies and the hint side tables.
type ContentStore interface {
	// GetContent returns the article body for a locale, falling back to
	// the default locale when no localized row exists.
	GetContent(ctx context.Context, id, locale string) (KBContent, error)

	// RelatedQuestion returns the paired suggestion-question record for
	// (kb id, site, variant), or nil when none exists.
	RelatedQuestion(ctx context.Context, kbID, site, variant string) (*RelatedQuestion, error)

	// SimilarHint returns the kb id already surfaced for this search
	// string via the lightweight hint-similarity side channel, or "".
	SimilarHint(ctx context.Context, query string) (string, error)
}

// ProductCatalog resolves a product line to its localized display name
// and icon reference.
type ProductCatalog interface {
	DisplayName(ctx context.Context, line, locale string) (name, icon string, err error)
}

// Generator is the generative collaborator for user-facing text. The
// engine never calls it directly: every invocation goes through the
// shared call wrapper (genwrap.go).
type Generator interface {
	// GenerateAvatarReply produces the conversational avatar utterance.
	// content may be empty for the speculative call.
	GenerateAvatarReply(ctx context.Context, query, locale, content string) (string, error)

	// GenerateAnswer composes a grounded answer from article content.
	GenerateAnswer(ctx context.Context, content, query, locale string) (string, error)

	// ValidateAnswer returns "1" when draft is fully supported by, and
	// only by, content, in the requested language, and does not request
	// more information; otherwise "0".
	ValidateAnswer(ctx context.Context, query, draft, content string) (string, error)

	// PhraseClarification phrases the disambiguation message referencing
	// the offered product lines.
	PhraseClarification(ctx context.Context, query, locale string, lines []string) (string, error)
}

// FollowUpDetector decides whether the new question continues the
// previous one. Audit-only signal.
type FollowUpDetector interface {
	Detect(ctx context.Context, req FollowUpRequest) (FollowUpResult, error)
}

// TurnRecorder persists the full turn record. Best-effort and
// fire-and-forget: never awaited on the response path.
type TurnRecorder interface {
	SaveTurn(ctx context.Context, rec AuditRecord) error
}

// Collaborators bundles every contract the engine needs. All fields are
// required except FollowUp and Recorder, which degrade to no-ops.
type Collaborators struct {
	Session  SessionLoader
	Hints    HintStore
	Locale   LocaleResolver
	Grouper  SentenceGrouper
	Extract  UserInfoExtractor
	Products ProductLineResolver
	Search   KnowledgeSearcher
	Content  ContentStore
	Catalog  ProductCatalog
	Generate Generator
	FollowUp FollowUpDetector
	Recorder TurnRecorder
}
