package kb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Queries is the pgx implementation of Querier. Similarity is cosine:
// 1 - (embedding <=> query).
type Queries struct {
	pool *pgxpool.Pool
}

// NewQueries creates the pgx-backed Querier over a connection pool.
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

const searchArticlesSQL = `
SELECT id,
       1 - (embedding <=> $1) AS similarity,
       product_lines
FROM kb_articles
WHERE site = $2
  AND $3 = ANY (product_lines)
ORDER BY embedding <=> $1
LIMIT $4`

func (q *Queries) SearchArticles(ctx context.Context, embedding pgvector.Vector, site, productLine string, limit int32) ([]ArticleHit, error) {
	rows, err := q.pool.Query(ctx, searchArticlesSQL, embedding, site, productLine, limit)
	if err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}
	defer rows.Close()
	return scanHits(rows)
}

const searchArticlesAllSQL = `
SELECT id,
       1 - (embedding <=> $1) AS similarity,
       product_lines
FROM kb_articles
WHERE site = $2
ORDER BY embedding <=> $1
LIMIT $3`

func (q *Queries) SearchArticlesAll(ctx context.Context, embedding pgvector.Vector, site string, limit int32) ([]ArticleHit, error) {
	rows, err := q.pool.Query(ctx, searchArticlesAllSQL, embedding, site, limit)
	if err != nil {
		return nil, fmt.Errorf("search articles all: %w", err)
	}
	defer rows.Close()
	return scanHits(rows)
}

func scanHits(rows pgx.Rows) ([]ArticleHit, error) {
	var hits []ArticleHit
	for rows.Next() {
		var h ArticleHit
		if err := rows.Scan(&h.ID, &h.Similarity, &h.ProductLines); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hits: %w", err)
	}
	return hits, nil
}

const getArticleContentSQL = `
SELECT article_id, locale, title, summary, content, link
FROM kb_article_content
WHERE article_id = $1 AND locale = $2`

func (q *Queries) GetArticleContent(ctx context.Context, articleID, locale string) (ContentRow, error) {
	var row ContentRow
	err := q.pool.QueryRow(ctx, getArticleContentSQL, articleID, locale).
		Scan(&row.ArticleID, &row.Locale, &row.Title, &row.Summary, &row.Content, &row.Link)
	if errors.Is(err, pgx.ErrNoRows) {
		return ContentRow{}, ErrArticleNotFound
	}
	if err != nil {
		return ContentRow{}, fmt.Errorf("get article content: %w", err)
	}
	return row, nil
}

const getRelatedQuestionSQL = `
SELECT article_id, question, link_web, link_app
FROM related_questions
WHERE article_id = $1 AND site = $2 AND variant = $3`

func (q *Queries) GetRelatedQuestion(ctx context.Context, articleID, site, variant string) (*RelatedRow, error) {
	var row RelatedRow
	err := q.pool.QueryRow(ctx, getRelatedQuestionSQL, articleID, site, variant).
		Scan(&row.ArticleID, &row.Question, &row.LinkWeb, &row.LinkApp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get related question: %w", err)
	}
	return &row, nil
}

const nearestHintSQL = `
SELECT article_id,
       1 - (embedding <=> $1) AS similarity
FROM related_questions
WHERE variant = '1' AND embedding IS NOT NULL
ORDER BY embedding <=> $1
LIMIT 1`

func (q *Queries) NearestHint(ctx context.Context, embedding pgvector.Vector) (*HintHit, error) {
	var hit HintHit
	err := q.pool.QueryRow(ctx, nearestHintSQL, embedding).
		Scan(&hit.ArticleID, &hit.Similarity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("nearest hint: %w", err)
	}
	return &hit, nil
}

const resolveAliasSQL = `
SELECT product_line
FROM product_line_aliases
WHERE lower(alias) = lower($1) AND site = $2`

func (q *Queries) ResolveAlias(ctx context.Context, category, site string) (string, error) {
	var line string
	err := q.pool.QueryRow(ctx, resolveAliasSQL, category, site).Scan(&line)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve alias: %w", err)
	}
	return line, nil
}

const getProductLineSQL = `
SELECT line, display_name, COALESCE(icon, '')
FROM product_lines
WHERE line = $1 AND locale = $2`

func (q *Queries) GetProductLine(ctx context.Context, line, locale string) (CatalogRow, error) {
	var row CatalogRow
	err := q.pool.QueryRow(ctx, getProductLineSQL, line, locale).
		Scan(&row.Line, &row.DisplayName, &row.Icon)
	if errors.Is(err, pgx.ErrNoRows) {
		return CatalogRow{}, ErrProductLineNotFound
	}
	if err != nil {
		return CatalogRow{}, fmt.Errorf("get product line: %w", err)
	}
	return row, nil
}
