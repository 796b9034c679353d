package search

import (
	"context"
	"errors"

	"github.com/kailas-cloud/feedsearch/internal/db"
	"github.com/kailas-cloud/feedsearch/internal/domain"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/field"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/query"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/result"
)

// Collector executes compiled queries against a leased view and maps the
// matching documents back to domain references. A failed execution returns
// no hits at all.
type Collector struct {
	limit int
}

// NewCollector creates a collector. Ranked searches return at most limit
// hits; zero returns every match.
func NewCollector(limit int) *Collector {
	return &Collector{limit: max(limit, 0)}
}

// Simple returns the references of every matching document, unscored.
func (c *Collector) Simple(
	ctx context.Context, snap db.Snapshot, q query.Query, maxClauses int,
) ([]domain.EntityRef, error) {
	res, err := snap.Search(ctx, &db.SearchRequest{Query: q, MaxClauseCount: maxClauses})
	if err != nil {
		return nil, executeError("simple search", err)
	}

	refs := make([]domain.EntityRef, 0, len(res.Entries))
	for _, e := range res.Entries {
		ref, err := domain.ParseEntityRef(e.Key)
		if err != nil {
			return nil, domain.NewSearchError("simple search", err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Ranked returns scored hits carrying the state stored with each document.
func (c *Collector) Ranked(
	ctx context.Context, snap db.Snapshot, q query.Query, maxClauses int,
) ([]result.Hit, error) {
	res, err := snap.Search(ctx, &db.SearchRequest{
		Query:          q,
		Limit:          c.limit,
		Fields:         []string{field.NameState},
		Score:          true,
		MaxClauseCount: maxClauses,
	})
	if err != nil {
		return nil, executeError("ranked search", err)
	}

	hits := make([]result.Hit, 0, len(res.Entries))
	for _, e := range res.Entries {
		ref, err := domain.ParseEntityRef(e.Key)
		if err != nil {
			return nil, domain.NewSearchError("ranked search", err)
		}
		side := make(map[string]any, 1)
		if raw, ok := e.Fields[field.NameState]; ok {
			if st, err := domain.ParseState(raw); err == nil {
				side[result.KeyState] = st
			}
		}
		hits = append(hits, result.New(ref, e.Score, side))
	}
	return hits, nil
}

// executeError keeps clause explosions identifiable for the retry and folds
// every other fault into a search failure.
func executeError(op string, err error) error {
	if errors.Is(err, db.ErrTooManyClauses) {
		return err
	}
	return domain.NewSearchError(op, err)
}
