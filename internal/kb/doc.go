// Package kb is the Postgres+pgvector knowledge store. It provides the
// search, content, related-question, and product-catalog collaborators
// consumed by the turn engine: vector similarity search over embedded
// article questions (filtered by product line or unfiltered), localized
// article content with default-locale fallback, paired related-question
// records, and the localized product catalog.
package kb
