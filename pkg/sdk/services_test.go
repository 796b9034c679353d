package feedsearch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/feedsearch/internal/domain"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/condition"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/field"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/feedsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/feedsearch/internal/usecase/search"
)

// --- news ---

func TestPutNews(t *testing.T) {
	c, deps := testClient()

	err := c.PutNews(context.Background(),
		NewsItem{ID: 1, Title: "Go 1.30 released", State: StateUnread},
		NewsItem{ID: 2, Title: "Hidden", State: StateHidden},
		NewsItem{ID: 3, Title: "Fresh"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deps.entities.news) != 3 {
		t.Fatalf("stored %d news, want 3", len(deps.entities.news))
	}
	if got := deps.entities.news[3].State; got != domain.StateNew {
		t.Errorf("empty state stored as %s, want new", got)
	}
	if len(deps.indexer.indexed) != 1 {
		t.Fatalf("index calls = %d, want 1", len(deps.indexer.indexed))
	}
	call := deps.indexer.indexed[0]
	if !call.isUpdate {
		t.Error("expected update indexing so hidden items are removed")
	}
	if len(call.news) != 3 {
		t.Errorf("indexed %d news, want 3", len(call.news))
	}
}

func TestPutNews_UnknownState(t *testing.T) {
	c, deps := testClient()

	err := c.PutNews(context.Background(), NewsItem{ID: 1, State: "archived"})
	if err == nil {
		t.Fatal("expected error for unknown state")
	}
	if len(deps.entities.news) != 0 {
		t.Error("nothing should be stored on invalid input")
	}
}

func TestPutNews_StoreError(t *testing.T) {
	c, deps := testClient()
	deps.entities.err = errors.New("db down")

	if err := c.PutNews(context.Background(), NewsItem{ID: 1}); err == nil {
		t.Fatal("expected error")
	}
	if len(deps.indexer.indexed) != 0 {
		t.Error("index must not be touched when the store fails")
	}
}

func TestDeleteNews(t *testing.T) {
	c, deps := testClient()
	deps.entities.news[7] = &domain.NewsItem{ID: 7}

	if err := c.DeleteNews(context.Background(), 7, 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deps.entities.deleted) != 2 {
		t.Errorf("deleted = %v, want [7 8]", deps.entities.deleted)
	}
	want := []domain.EntityRef{domain.NewsRef(7), domain.NewsRef(8)}
	if len(deps.indexer.removed) != len(want) {
		t.Fatalf("removed = %v, want %v", deps.indexer.removed, want)
	}
	for i := range want {
		if deps.indexer.removed[i] != want[i] {
			t.Errorf("removed[%d] = %v, want %v", i, deps.indexer.removed[i], want[i])
		}
	}
}

func TestPutLocations(t *testing.T) {
	c, deps := testClient()
	ctx := context.Background()

	if err := c.PutFolder(ctx, Folder{ID: 1, Name: "Tech", Bookmarks: []int64{10}}); err != nil {
		t.Fatalf("PutFolder: %v", err)
	}
	if err := c.PutBookmark(ctx, Bookmark{ID: 10, Name: "Go Blog", FeedLink: "https://go.dev/blog/feed.atom"}); err != nil {
		t.Fatalf("PutBookmark: %v", err)
	}
	if err := c.PutBin(ctx, Bin{ID: 20, Name: "Saved"}); err != nil {
		t.Fatalf("PutBin: %v", err)
	}

	if len(deps.entities.folders) != 1 || deps.entities.folders[0].Bookmarks[0] != 10 {
		t.Errorf("unexpected folders %+v", deps.entities.folders)
	}
	if len(deps.entities.bookmarks) != 1 || deps.entities.bookmarks[0].FeedLink != "https://go.dev/blog/feed.atom" {
		t.Errorf("unexpected bookmarks %+v", deps.entities.bookmarks)
	}
	if len(deps.entities.bins) != 1 || deps.entities.bins[0].Name != "Saved" {
		t.Errorf("unexpected bins %+v", deps.entities.bins)
	}
}

func TestFlush(t *testing.T) {
	c, deps := testClient()

	if err := c.Flush(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deps.indexer.flushes != 1 {
		t.Errorf("flushes = %d, want 1", deps.indexer.flushes)
	}

	deps.indexer.err = errors.New("disk full")
	if err := c.Flush(context.Background()); err == nil {
		t.Fatal("expected flush error")
	}
}

// --- search ---

func TestSearch(t *testing.T) {
	c, deps := testClient()
	published := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	deps.search.searchFn = func(_ context.Context, conds []condition.Condition, matchAll bool) ([]result.Hit, error) {
		if matchAll {
			t.Error("expected matchAll=false")
		}
		if len(conds) != 3 {
			t.Fatalf("conditions = %d, want 3", len(conds))
		}
		if conds[0].Field() != field.Title || conds[0].Specifier() != condition.Contains {
			t.Errorf("unexpected first condition %s", conds[0])
		}
		if _, ok := conds[1].Value().(condition.DateValue); !ok {
			t.Errorf("expected date value, got %T", conds[1].Value())
		}
		states := conds[2].Value().(condition.EnumSetValue).States()
		if len(states) != 2 {
			t.Errorf("states = %v, want 2 entries", states)
		}
		return []result.Hit{
			result.New(domain.NewsRef(5), 2.5, map[string]any{result.KeyState: domain.StateUnread}),
			result.New(domain.NewsRef(9), 1.0, nil),
		}, nil
	}

	hits, err := c.Search(context.Background(), false,
		Where("title", "contains", "golang"),
		Where("publish_date", "is_after", published),
		Where("state", "is", []State{StateNew, StateUnread}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
	if hits[0].ID != 5 || hits[0].Score != 2.5 || hits[0].State != StateUnread {
		t.Errorf("unexpected first hit %+v", hits[0])
	}
	if hits[1].State != "" {
		t.Errorf("hit without state side data should have empty state, got %q", hits[1].State)
	}
}

func TestSearch_InvalidCondition(t *testing.T) {
	tests := []struct {
		name string
		cond Condition
	}{
		{"unknown field", Where("subject", "is", "x")},
		{"unknown specifier", Where("title", "resembles", "x")},
		{"wrong value type", Where("rating", "is", "five")},
		{"date as string", Where("publish_date", "is_after", "2026-01-01")},
		{"unknown state", Where("state", "is", State("archived"))},
		{"location as ids", Where("location", "is", []int64{1})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, deps := testClient()
			deps.search.searchFn = func(context.Context, []condition.Condition, bool) ([]result.Hit, error) {
				t.Error("search must not run for invalid conditions")
				return nil, nil
			}
			_, err := c.Search(context.Background(), true, tt.cond)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidCondition) {
				t.Errorf("expected ErrInvalidCondition, got %v", err)
			}
		})
	}
}

func TestSearch_ValueKinds(t *testing.T) {
	c, deps := testClient()
	var got []condition.Condition
	deps.search.searchFn = func(_ context.Context, conds []condition.Condition, _ bool) ([]result.Hit, error) {
		got = conds
		return nil, nil
	}

	_, err := c.Search(context.Background(), true,
		Where("rating", "is_greater_than", 3),
		Where("flagged", "is", true),
		Where("link", "is", "https://example.com/a"),
		Where("location", "is", Location{Folders: []int64{1}}),
		Where("state", "is_not", StateRead),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("conditions = %d, want 5", len(got))
	}
	if v, ok := got[0].Value().(condition.IntValue); !ok || v != 3 {
		t.Errorf("rating value = %v", got[0].Value())
	}
	if v, ok := got[1].Value().(condition.BoolValue); !ok || !bool(v) {
		t.Errorf("flagged value = %v", got[1].Value())
	}
	if _, ok := got[2].Value().(condition.LinkValue); !ok {
		t.Errorf("link value = %T", got[2].Value())
	}
	if _, ok := got[3].Value().(condition.LocationValue); !ok {
		t.Errorf("location value = %T", got[3].Value())
	}
	if got[4].Specifier() != condition.IsNot {
		t.Errorf("specifier = %s, want is_not", got[4].Specifier())
	}
}

func TestSearch_Error(t *testing.T) {
	c, deps := testClient()
	deps.search.searchFn = func(context.Context, []condition.Condition, bool) ([]result.Hit, error) {
		return nil, domain.ErrTooManyClauses
	}

	_, err := c.Search(context.Background(), true, Where("_all", "contains", "go"))
	if !errors.Is(err, ErrTooManyClauses) {
		t.Fatalf("expected ErrTooManyClauses, got %v", err)
	}
}

func TestSearchByLink(t *testing.T) {
	c, deps := testClient()
	deps.search.linkFn = func(_ context.Context, link string, copiesOnly bool) ([]domain.EntityRef, error) {
		if link != "https://example.com/a" || !copiesOnly {
			t.Errorf("unexpected args %q %v", link, copiesOnly)
		}
		return []domain.EntityRef{domain.NewsRef(3), domain.NewsRef(4)}, nil
	}

	ids, err := c.SearchByLink(context.Background(), "https://example.com/a", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 4 {
		t.Errorf("ids = %v, want [3 4]", ids)
	}
}

func TestSearchByGUID_Error(t *testing.T) {
	c, deps := testClient()
	deps.search.guidFn = func(context.Context, string, bool) ([]domain.EntityRef, error) {
		return nil, domain.ErrIndexClosed
	}

	ids, err := c.SearchByGUID(context.Background(), "urn:x", false)
	if !errors.Is(err, ErrIndexClosed) {
		t.Fatalf("expected ErrIndexClosed, got %v", err)
	}
	if ids != nil {
		t.Errorf("ids = %v, want nil", ids)
	}
}

// --- admin ---

func TestReindex_Progress(t *testing.T) {
	c, deps := testClient()
	deps.search.reindexFn = func(_ context.Context, p searchuc.ProgressSink) error {
		p.Begin(5)
		p.Worked(2)
		if p.IsCanceled() {
			t.Error("progress sink should never cancel")
		}
		p.Worked(3)
		p.Done()
		return nil
	}

	var calls [][2]int
	err := c.Reindex(context.Background(), func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][2]int{{2, 5}, {5, 5}}
	if len(calls) != len(want) {
		t.Fatalf("progress calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("progress[%d] = %v, want %v", i, calls[i], want[i])
		}
	}
}

func TestReindex_NilProgress(t *testing.T) {
	c, deps := testClient()
	deps.search.reindexFn = func(_ context.Context, p searchuc.ProgressSink) error {
		p.Begin(1)
		p.Worked(1)
		return nil
	}
	if err := c.Reindex(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClearAndOptimize(t *testing.T) {
	c, deps := testClient()
	cleared, optimized := false, false
	deps.search.clearFn = func(context.Context) error {
		cleared = true
		return nil
	}
	deps.search.optimizeFn = func(context.Context) error {
		optimized = true
		return errors.New("merge failed")
	}

	if err := c.ClearIndex(context.Background()); err != nil {
		t.Fatalf("ClearIndex: %v", err)
	}
	if err := c.Optimize(context.Background()); err == nil {
		t.Fatal("expected optimize error")
	}
	if !cleared || !optimized {
		t.Errorf("cleared=%v optimized=%v", cleared, optimized)
	}
}

// --- health ---

func TestHealth(t *testing.T) {
	c, deps := testClient()
	deps.health.report = healthuc.Report{
		Status:    healthuc.Degraded,
		Checks:    map[string]healthuc.CheckResult{"database": healthuc.CheckError, "index": healthuc.CheckOK},
		Documents: 42,
	}

	st := c.Health(context.Background())
	if st.Status != "degraded" {
		t.Errorf("status = %q, want degraded", st.Status)
	}
	if st.Checks["database"] != "error" || st.Checks["index"] != "ok" {
		t.Errorf("unexpected checks %v", st.Checks)
	}
	if st.Documents != 42 {
		t.Errorf("documents = %d, want 42", st.Documents)
	}
}
