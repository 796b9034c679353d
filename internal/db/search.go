package db

import "github.com/kailas-cloud/feedsearch/internal/domain/search/query"

// SearchRequest is the input for executing a query tree against a snapshot.
type SearchRequest struct {
	Query query.Query
	// Limit caps the number of hits; zero returns every match.
	Limit int
	// Fields lists stored fields to return with each hit.
	Fields []string
	// Score requests relevance scoring; unscored hits all carry zero.
	Score bool
	// MaxClauseCount rejects queries with a larger boolean group; zero is unbounded.
	MaxClauseCount int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
