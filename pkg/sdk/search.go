package feedsearch

import (
	"context"
	"time"

	"github.com/kailas-cloud/feedsearch/internal/domain"
)

// Search returns the news matching all (matchAll) or any of conds, best
// matches first. No conditions match every indexed item.
func (c *Client) Search(ctx context.Context, matchAll bool, conds ...Condition) (hits []Hit, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	dc, err := conditionsToDomain(conds)
	if err != nil {
		return nil, err
	}
	res, err := c.searchSvc.Search(ctx, dc, matchAll)
	if err != nil {
		return nil, err
	}

	hits = make([]Hit, len(res))
	for i := range res {
		hits[i] = Hit{ID: res[i].Ref().ID, Score: res[i].Score()}
		if st, ok := res[i].State(); ok {
			hits[i].State = State(st.String())
		}
	}
	return hits, nil
}

// SearchByLink returns the ids of news whose link equals link exactly. With
// copiesOnly only copies kept in news bins are returned.
func (c *Client) SearchByLink(ctx context.Context, link string, copiesOnly bool) (ids []int64, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search_by_link", start, err) }()

	refs, err := c.searchSvc.SearchByExactLink(ctx, link, copiesOnly)
	return refIDs(refs), err
}

// SearchByGUID returns the ids of news with the given feed GUID.
func (c *Client) SearchByGUID(ctx context.Context, guid string, copiesOnly bool) (ids []int64, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search_by_guid", start, err) }()

	refs, err := c.searchSvc.SearchByExternalGUID(ctx, guid, copiesOnly)
	return refIDs(refs), err
}

func refIDs(refs []domain.EntityRef) []int64 {
	if refs == nil {
		return nil
	}
	ids := make([]int64, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}
	return ids
}
