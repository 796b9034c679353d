package search

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/feedsearch/internal/db"
	bleveidx "github.com/kailas-cloud/feedsearch/internal/db/bleve"
	"github.com/kailas-cloud/feedsearch/internal/domain"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/condition"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/encoding"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/field"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/result"
	"github.com/kailas-cloud/feedsearch/internal/repository/newsindex"
	"github.com/kailas-cloud/feedsearch/internal/searcher"
)

var testNow = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

// --- Mocks ---

// mockResolver expands folders from a fixed table.
type mockResolver struct {
	folders map[int64][]string
	err     error
	calls   int
}

func (m *mockResolver) ResolveLocation(_ context.Context, loc condition.Location) ([]string, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var terms []string
	for _, id := range loc.BookmarkIDs {
		terms = append(terms, encoding.BookmarkTerm(id))
	}
	for _, id := range loc.BinIDs {
		terms = append(terms, encoding.BinTerm(id))
	}
	for _, id := range loc.FolderIDs {
		terms = append(terms, m.folders[id]...)
	}
	slices.Sort(terms)
	return slices.Compact(terms), nil
}

// mockEntities serves news from memory.
type mockEntities struct {
	mu         sync.Mutex
	news       []*domain.NewsItem
	streamErr  error
	recordedAt time.Time
	records    int
}

func (m *mockEntities) StreamNews(ctx context.Context, batchSize int, fn func([]*domain.NewsItem) error) error {
	if m.streamErr != nil {
		return m.streamErr
	}
	for start := 0; start < len(m.news); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+batchSize, len(m.news))
		if err := fn(m.news[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockEntities) CountNews(context.Context) (int, error) {
	return len(m.news), nil
}

func (m *mockEntities) RecordReindex(_ context.Context, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordedAt = at
	m.records++
	return nil
}

// mockProgress records progress and cancels once cancelAt items are done.
type mockProgress struct {
	total    int
	worked   int
	cancelAt int
	begun    bool
	done     bool
}

func (m *mockProgress) Begin(total int) { m.begun, m.total = true, total }
func (m *mockProgress) Worked(n int)    { m.worked += n }
func (m *mockProgress) Done()           { m.done = true }
func (m *mockProgress) IsCanceled() bool {
	return m.cancelAt > 0 && m.worked >= m.cancelAt
}

// explodingSnapshot fails every search with a clause explosion.
type explodingSnapshot struct{}

func (explodingSnapshot) Search(context.Context, *db.SearchRequest) (*db.SearchResult, error) {
	return nil, &db.Error{Op: db.OpSearch, Err: db.ErrTooManyClauses}
}
func (explodingSnapshot) DocCount() (uint64, error) { return 0, nil }
func (explodingSnapshot) Close() error              { return nil }

type staticSource struct{ snap db.Snapshot }

func (s staticSource) Snapshot() (db.Snapshot, error) { return s.snap, nil }
func (s staticSource) Reopen(prev db.Snapshot) (db.Snapshot, bool, error) {
	return prev, false, nil
}

type idleFlusher struct{}

func (idleFlusher) FlushIfDirty(context.Context) (bool, error) { return false, nil }
func (idleFlusher) HasFlushed() bool                           { return false }

// --- Helpers ---

type testEnv struct {
	store    *bleveidx.Store
	writer   *newsindex.Writer
	views    *searcher.Manager
	resolver *mockResolver
	entities *mockEntities
	compiler *Compiler
	svc      *Service
}

func newTestCompiler(t *testing.T, resolver LocationResolver) *Compiler {
	t.Helper()
	analyzer, err := bleveidx.NewTextAnalyzer()
	require.NoError(t, err)
	c := NewCompiler(analyzer, resolver, nil)
	c.now = func() time.Time { return testNow }
	return c
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	store, err := bleveidx.Open(bleveidx.Config{}, newsindex.Definition())
	require.NoError(t, err)

	writer := newsindex.NewWriter(store, 0, nil)
	views, err := searcher.New(store, writer, time.Millisecond, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = views.Shutdown(ctx, false)
		_ = store.Close()
	})

	resolver := &mockResolver{folders: map[int64][]string{}}
	entities := &mockEntities{}
	compiler := newTestCompiler(t, resolver)
	return &testEnv{
		store:    store,
		writer:   writer,
		views:    views,
		resolver: resolver,
		entities: entities,
		compiler: compiler,
		svc:      New(views, writer, entities, compiler, cfg, nil),
	}
}

func (e *testEnv) index(t *testing.T, news ...*domain.NewsItem) {
	t.Helper()
	require.NoError(t, e.writer.Index(context.Background(), news, false))
}

func newsItem(id int64, title string, state domain.State) *domain.NewsItem {
	return &domain.NewsItem{
		ID:          id,
		Title:       title,
		State:       state,
		BookmarkID:  1,
		PublishDate: testNow.AddDate(0, 0, -1),
	}
}

func cond(t *testing.T, f field.Field, s condition.Specifier, v condition.Value) condition.Condition {
	t.Helper()
	c, err := condition.New(f, s, v)
	require.NoError(t, err)
	return c
}

func hitIDs(hits []result.Hit) []int64 {
	ids := make([]int64, 0, len(hits))
	for i := range hits {
		ids = append(ids, hits[i].Ref().ID)
	}
	slices.Sort(ids)
	return ids
}

func refIDs(refs []domain.EntityRef) []int64 {
	ids := make([]int64, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	slices.Sort(ids)
	return ids
}

var errResolve = errors.New("resolve failed")
