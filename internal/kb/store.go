package kb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/pgvector/pgvector-go"

	"github.com/koopa0/concierge/internal/log"
	"github.com/koopa0/concierge/internal/turn"
)

// Sentinel errors. Callers check these with errors.Is().
var (
	// ErrArticleNotFound indicates no content row exists for the article
	// in the requested locale or the default locale.
	ErrArticleNotFound = errors.New("kb article not found")

	// ErrProductLineNotFound indicates the catalog has no row for the
	// product line in any locale.
	ErrProductLineNotFound = errors.New("product line not found")

	// ErrEmptyEmbedding indicates the embedder returned no vector.
	ErrEmptyEmbedding = errors.New("empty embedding returned")
)

const (
	// DefaultLocale is the content fallback locale.
	DefaultLocale = "en"

	// searchLimit caps one vector search.
	searchLimit = 10

	// searchTimeout bounds a vector search round trip, embedding
	// included.
	searchTimeout = 10 * time.Second

	// hintSimilarityFloor is the minimum similarity for the
	// hint-similarity side channel to report a match.
	hintSimilarityFloor = 0.90
)

// ArticleHit is one row of a vector search over article questions.
type ArticleHit struct {
	ID           string
	Similarity   float64
	ProductLines []string
}

// ContentRow is one localized article content row.
type ContentRow struct {
	ArticleID string
	Locale    string
	Title     string
	Summary   string
	Content   string
	Link      string
}

// RelatedRow is one paired related-question row keyed by
// (article id, site, variant).
type RelatedRow struct {
	ArticleID string
	Question  string
	LinkWeb   string
	LinkApp   string
}

// HintHit is the nearest variant-1 related question to a query.
type HintHit struct {
	ArticleID  string
	Similarity float64
}

// CatalogRow is one localized product-line catalog row.
type CatalogRow struct {
	Line        string
	DisplayName string
	Icon        string
}

// Querier is the database contract the store consumes. Implemented by
// Queries over pgx; tests substitute a mock.
type Querier interface {
	// SearchArticles runs a filtered vector search restricted to
	// articles carrying the product line for the site.
	SearchArticles(ctx context.Context, embedding pgvector.Vector, site, productLine string, limit int32) ([]ArticleHit, error)

	// SearchArticlesAll runs the unfiltered variant for the site.
	SearchArticlesAll(ctx context.Context, embedding pgvector.Vector, site string, limit int32) ([]ArticleHit, error)

	// GetArticleContent fetches one localized content row.
	// Returns pgx.ErrNoRows-wrapped ErrArticleNotFound when absent.
	GetArticleContent(ctx context.Context, articleID, locale string) (ContentRow, error)

	// GetRelatedQuestion fetches the paired question row.
	GetRelatedQuestion(ctx context.Context, articleID, site, variant string) (*RelatedRow, error)

	// NearestHint finds the variant-1 related question closest to the
	// embedding, or nil when the table is empty.
	NearestHint(ctx context.Context, embedding pgvector.Vector) (*HintHit, error)

	// GetProductLine fetches one localized catalog row.
	GetProductLine(ctx context.Context, line, locale string) (CatalogRow, error)

	// ResolveAlias maps an extracted category name to the canonical
	// product line for a site, "" when the category is unknown.
	ResolveAlias(ctx context.Context, category, site string) (string, error)
}

// Store is the knowledge store. It satisfies the turn engine's
// KnowledgeSearcher, ContentStore, and ProductCatalog contracts.
//
// Store is safe for concurrent use.
type Store struct {
	queries  Querier
	embedder ai.Embedder
	logger   log.Logger
}

// New creates a Store.
func New(queries Querier, embedder ai.Embedder, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{
		queries:  queries,
		embedder: embedder,
		logger:   logger,
	}
}

// Search embeds the query and runs a vector search over article
// questions for the site. An empty productLine selects the unfiltered
// variant. Candidates come back in descending similarity order.
func (s *Store) Search(ctx context.Context, query, site, productLine string) (turn.SearchResult, error) {
	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	embedding, err := s.embed(queryCtx, query)
	if err != nil {
		return turn.SearchResult{}, fmt.Errorf("embedding query: %w", err)
	}

	var hits []ArticleHit
	if productLine == "" {
		hits, err = s.queries.SearchArticlesAll(queryCtx, embedding, site, searchLimit)
	} else {
		hits, err = s.queries.SearchArticles(queryCtx, embedding, site, productLine, searchLimit)
	}
	if err != nil {
		return turn.SearchResult{}, fmt.Errorf("vector search: %w", err)
	}

	result := turn.SearchResult{Query: query}
	for _, h := range hits {
		result.Candidates = append(result.Candidates, turn.KBCandidate{
			ID:           h.ID,
			Similarity:   h.Similarity,
			ProductLines: h.ProductLines,
		})
	}

	s.logger.Debug("kb search", "site", site, "product_line", productLine, "hits", len(hits))
	return result, nil
}

// GetContent returns the stored article body for the locale, falling
// back to the default locale when no localized row exists.
func (s *Store) GetContent(ctx context.Context, id, locale string) (turn.KBContent, error) {
	row, err := s.queries.GetArticleContent(ctx, id, locale)
	if err != nil && locale != DefaultLocale && errors.Is(err, ErrArticleNotFound) {
		row, err = s.queries.GetArticleContent(ctx, id, DefaultLocale)
	}
	if err != nil {
		return turn.KBContent{}, fmt.Errorf("article content %q/%q: %w", id, locale, err)
	}

	return turn.KBContent{
		ID:      row.ArticleID,
		Title:   row.Title,
		Summary: row.Summary,
		Content: row.Content,
		Link:    row.Link,
	}, nil
}

// RelatedQuestion returns the paired suggestion question for
// (kb id, site, variant), or nil when no row exists.
func (s *Store) RelatedQuestion(ctx context.Context, kbID, site, variant string) (*turn.RelatedQuestion, error) {
	row, err := s.queries.GetRelatedQuestion(ctx, kbID, site, variant)
	if err != nil {
		return nil, fmt.Errorf("related question %q/%q/%q: %w", kbID, site, variant, err)
	}
	if row == nil {
		return nil, nil
	}
	return &turn.RelatedQuestion{
		KBID:     row.ArticleID,
		Question: row.Question,
		LinkWeb:  row.LinkWeb,
		LinkApp:  row.LinkApp,
	}, nil
}

// SimilarHint reports which article's variant-1 related question is
// already near the query, or "" when none is close enough.
func (s *Store) SimilarHint(ctx context.Context, query string) (string, error) {
	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	embedding, err := s.embed(queryCtx, query)
	if err != nil {
		return "", fmt.Errorf("embedding hint query: %w", err)
	}

	hit, err := s.queries.NearestHint(queryCtx, embedding)
	if err != nil {
		return "", fmt.Errorf("hint similarity search: %w", err)
	}
	if hit == nil || hit.Similarity < hintSimilarityFloor {
		return "", nil
	}
	return hit.ArticleID, nil
}

// DisplayName returns the localized catalog name and icon of a product
// line, falling back to the default locale.
func (s *Store) DisplayName(ctx context.Context, line, locale string) (string, string, error) {
	row, err := s.queries.GetProductLine(ctx, line, locale)
	if err != nil && locale != DefaultLocale && errors.Is(err, ErrProductLineNotFound) {
		row, err = s.queries.GetProductLine(ctx, line, DefaultLocale)
	}
	if err != nil {
		return "", "", fmt.Errorf("product line %q/%q: %w", line, locale, err)
	}
	return row.DisplayName, row.Icon, nil
}

// ResolveProductLine maps an extracted category name to the canonical
// product line for a site. Unknown categories resolve to "" without
// error. Matching is case-insensitive on the alias side.
func (s *Store) ResolveProductLine(ctx context.Context, category, site string) (string, error) {
	line, err := s.queries.ResolveAlias(ctx, category, site)
	if err != nil {
		return "", fmt.Errorf("resolving category %q: %w", category, err)
	}
	return line, nil
}

// embed generates the query embedding.
func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
	})
	if err != nil {
		return pgvector.Vector{}, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, ErrEmptyEmbedding
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}
