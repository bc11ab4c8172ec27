package turn

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/koopa0/concierge/internal/config"
	"github.com/koopa0/concierge/internal/log"
)

func testDeadline(t *testing.T) <-chan time.Time {
	t.Helper()
	return time.After(5 * time.Second)
}

// ============================================================================
// Mock collaborators
// ============================================================================

type mockSession struct {
	data *SessionData
	err  error

	mu          sync.Mutex
	lastMessage string
}

func (m *mockSession) LoadSession(_ context.Context, _, message string) (*SessionData, error) {
	m.mu.Lock()
	m.lastMessage = message
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

type mockHints struct {
	last    *HintRecord
	lastErr error
	saveErr error

	mu    sync.Mutex
	saved []HintRecord
}

func (m *mockHints) LoadLastHint(context.Context, string) (*HintRecord, error) {
	if m.lastErr != nil {
		return nil, m.lastErr
	}
	return m.last, nil
}

func (m *mockHints) SaveHint(_ context.Context, _ string, hint HintRecord) error {
	m.mu.Lock()
	m.saved = append(m.saved, hint)
	m.mu.Unlock()
	return m.saveErr
}

func (m *mockHints) savedHints() []HintRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]HintRecord, len(m.saved))
	copy(out, m.saved)
	return out
}

type mockLocale struct {
	locale string
	err    error
}

func (m *mockLocale) ResolveLocale(context.Context, string) (string, error) {
	return m.locale, m.err
}

type mockGrouper struct {
	groups []SentenceGroup
	err    error

	mu    sync.Mutex
	calls int
}

func (m *mockGrouper) GroupSentences(context.Context, []string) ([]SentenceGroup, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.groups, m.err
}

func (m *mockGrouper) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockExtract struct {
	info UserInfo
	err  error

	mu    sync.Mutex
	calls int
}

func (m *mockExtract) ExtractUserInfo(context.Context, []string) (UserInfo, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.info, m.err
}

func (m *mockExtract) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockProducts struct {
	mapping map[string]string // category -> product line
	err     error
}

func (m *mockProducts) ResolveProductLine(_ context.Context, category, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.mapping[category], nil
}

type mockSearch struct {
	filtered   SearchResult
	unfiltered SearchResult
	err        error

	mu     sync.Mutex
	scopes []string // records the productLine argument of each call
}

func (m *mockSearch) Search(_ context.Context, _, _, productLine string) (SearchResult, error) {
	m.mu.Lock()
	m.scopes = append(m.scopes, productLine)
	m.mu.Unlock()
	if m.err != nil {
		return SearchResult{}, m.err
	}
	if productLine == "" {
		return m.unfiltered, nil
	}
	return m.filtered, nil
}

type mockContent struct {
	contents   map[string]KBContent        // id -> content
	related    map[string]*RelatedQuestion // id + "/" + variant -> record
	similar    string
	contentErr error
	relatedErr error
	similarErr error
}

func (m *mockContent) GetContent(_ context.Context, id, _ string) (KBContent, error) {
	if m.contentErr != nil {
		return KBContent{}, m.contentErr
	}
	return m.contents[id], nil
}

func (m *mockContent) RelatedQuestion(_ context.Context, kbID, _, variant string) (*RelatedQuestion, error) {
	if m.relatedErr != nil {
		return nil, m.relatedErr
	}
	return m.related[kbID+"/"+variant], nil
}

func (m *mockContent) SimilarHint(context.Context, string) (string, error) {
	return m.similar, m.similarErr
}

type mockCatalog struct {
	names map[string]string // line -> display name
	icons map[string]string
	err   error
}

func (m *mockCatalog) DisplayName(_ context.Context, line, _ string) (string, string, error) {
	if m.err != nil {
		return "", "", m.err
	}
	return m.names[line], m.icons[line], nil
}

type mockGenerate struct {
	avatar        string
	answer        string
	verdict       string
	clarification string

	avatarErr        error
	answerErr        error
	verdictErr       error
	clarificationErr error

	mu           sync.Mutex
	verdictCalls int
}

func (m *mockGenerate) GenerateAvatarReply(context.Context, string, string, string) (string, error) {
	return m.avatar, m.avatarErr
}

func (m *mockGenerate) GenerateAnswer(context.Context, string, string, string) (string, error) {
	return m.answer, m.answerErr
}

func (m *mockGenerate) ValidateAnswer(context.Context, string, string, string) (string, error) {
	m.mu.Lock()
	m.verdictCalls++
	m.mu.Unlock()
	return m.verdict, m.verdictErr
}

func (m *mockGenerate) PhraseClarification(context.Context, string, string, []string) (string, error) {
	return m.clarification, m.clarificationErr
}

type mockFollowUp struct {
	res FollowUpResult
	err error

	mu    sync.Mutex
	calls int
}

func (m *mockFollowUp) Detect(context.Context, FollowUpRequest) (FollowUpResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.res, m.err
}

func (m *mockFollowUp) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockRecorder signals each save on done so tests can wait for the
// fire-and-forget goroutine before goleak runs.
type mockRecorder struct {
	err  error
	done chan AuditRecord
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{done: make(chan AuditRecord, 4)}
}

func (m *mockRecorder) SaveTurn(_ context.Context, rec AuditRecord) error {
	m.done <- rec
	return m.err
}

// ============================================================================
// Test fixtures
// ============================================================================

// collabFixture is a fully wired set of mocks with sane defaults: a
// two-entry history, a resolvable "notebook" scope, and a confident
// search result.
type collabFixture struct {
	session  *mockSession
	hints    *mockHints
	locale   *mockLocale
	grouper  *mockGrouper
	extract  *mockExtract
	products *mockProducts
	search   *mockSearch
	content  *mockContent
	catalog  *mockCatalog
	generate *mockGenerate
	followUp *mockFollowUp
	recorder *mockRecorder
}

func newCollabFixture() *collabFixture {
	return &collabFixture{
		session: &mockSession{data: &SessionData{
			History:   []string{"my notebook is broken"},
			TurnCount: 1,
		}},
		hints:    &mockHints{},
		locale:   &mockLocale{locale: "en"},
		grouper:  &mockGrouper{},
		extract:  &mockExtract{info: UserInfo{MainCategory: "laptops"}},
		products: &mockProducts{mapping: map[string]string{"laptops": "notebook"}},
		search: &mockSearch{
			filtered: SearchResult{Candidates: []KBCandidate{
				{ID: "1000", Similarity: 0.95, ProductLines: []string{"notebook"}},
				{ID: "3000", Similarity: 0.80, ProductLines: []string{"notebook"}},
			}},
			unfiltered: SearchResult{Candidates: []KBCandidate{
				{ID: "1000", Similarity: 0.98, ProductLines: []string{"notebook"}},
				{ID: "2000", Similarity: 0.90, ProductLines: []string{"desktop"}},
			}},
		},
		content: &mockContent{
			contents: map[string]KBContent{
				"1000": {ID: "1000", Title: "Battery replacement", Summary: "How to swap the battery.", Content: "Full battery guide.", Link: "https://kb/1000"},
			},
			related: map[string]*RelatedQuestion{},
		},
		catalog: &mockCatalog{
			names: map[string]string{"notebook": "Notebook", "desktop": "Desktop", "monitor": "Monitor"},
			icons: map[string]string{"notebook": "icon-nb"},
		},
		generate: &mockGenerate{
			avatar:        "Here is what I found.",
			answer:        "You can swap the battery like this.",
			verdict:       "1",
			clarification: "Which product do you mean?",
		},
		followUp: &mockFollowUp{},
		recorder: newMockRecorder(),
	}
}

func (f *collabFixture) collaborators() Collaborators {
	return Collaborators{
		Session:  f.session,
		Hints:    f.hints,
		Locale:   f.locale,
		Grouper:  f.grouper,
		Extract:  f.extract,
		Products: f.products,
		Search:   f.search,
		Content:  f.content,
		Catalog:  f.catalog,
		Generate: f.generate,
		FollowUp: f.followUp,
		Recorder: f.recorder,
	}
}

// testEngineConfig keeps retries fast so degraded paths do not slow the
// suite down.
func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		AnswerThreshold:     0.87,
		MembershipThreshold: 0.92,
		PopularityThreshold: 0.97,
		GenTimeoutMS:        200,
		GenMaxAttempts:      3,
		GenRetryDelayMS:     1,
		GenRatePerSecond:    10000,
		GenRateBurst:        10000,
	}
}

func testRouting() *config.RoutingConfig {
	return &config.RoutingConfig{
		PopularityOrder: []string{"notebook", "desktop", "monitor", "router"},
		Overrides:       map[string]map[string]string{},
		SiteProductLines: map[string][]string{
			"tw": {"notebook", "desktop", "monitor", "router"},
		},
		SiteLocales:   map[string]string{"tw": "en"},
		DefaultLocale: "en",
	}
}

func newTestEngine(t *testing.T, f *collabFixture) *Engine {
	t.Helper()
	return newTestEngineWith(t, f, testEngineConfig(), testRouting())
}

func newTestEngineWith(t *testing.T, f *collabFixture, cfg config.EngineConfig, routing *config.RoutingConfig) *Engine {
	t.Helper()
	e, err := New(f.collaborators(), cfg, routing, log.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func testInput() Input {
	return Input{
		CustomerID: "cust-1",
		SessionID:  "sess-1",
		ChatID:     "chat-1",
		Message:    "my notebook is broken",
		Site:       "tw",
		Channel:    "web",
	}
}

// waitForAudit blocks until the fire-and-forget recorder goroutine has
// delivered, so goleak-checked tests do not race it.
func waitForAudit(t *testing.T, rec *mockRecorder) AuditRecord {
	t.Helper()
	select {
	case r := <-rec.done:
		return r
	case <-testDeadline(t):
		t.Fatal("timed out waiting for audit record")
		return AuditRecord{}
	}
}
