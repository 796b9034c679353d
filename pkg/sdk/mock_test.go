package feedsearch

import (
	"context"

	"github.com/kailas-cloud/feedsearch/internal/domain"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/condition"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/feedsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/feedsearch/internal/usecase/search"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn   func(ctx context.Context, conds []condition.Condition, matchAll bool) ([]result.Hit, error)
	linkFn     func(ctx context.Context, link string, copiesOnly bool) ([]domain.EntityRef, error)
	guidFn     func(ctx context.Context, guid string, copiesOnly bool) ([]domain.EntityRef, error)
	reindexFn  func(ctx context.Context, progress searchuc.ProgressSink) error
	clearFn    func(ctx context.Context) error
	optimizeFn func(ctx context.Context) error
}

func (m *mockSearchUC) Search(ctx context.Context, conds []condition.Condition, matchAll bool) ([]result.Hit, error) {
	return m.searchFn(ctx, conds, matchAll)
}

func (m *mockSearchUC) SearchByExactLink(ctx context.Context, link string, copiesOnly bool) ([]domain.EntityRef, error) {
	return m.linkFn(ctx, link, copiesOnly)
}

func (m *mockSearchUC) SearchByExternalGUID(ctx context.Context, guid string, copiesOnly bool) ([]domain.EntityRef, error) {
	return m.guidFn(ctx, guid, copiesOnly)
}

func (m *mockSearchUC) ReindexAll(ctx context.Context, progress searchuc.ProgressSink) error {
	return m.reindexFn(ctx, progress)
}

func (m *mockSearchUC) ClearIndex(ctx context.Context) error {
	return m.clearFn(ctx)
}

func (m *mockSearchUC) Optimize(ctx context.Context) error {
	return m.optimizeFn(ctx)
}

// --- entityStore mock ---

type mockEntities struct {
	news      map[int64]*domain.NewsItem
	deleted   []int64
	folders   []*domain.Folder
	bookmarks []*domain.Bookmark
	bins      []*domain.Bin
	err       error
}

func newMockEntities() *mockEntities {
	return &mockEntities{news: make(map[int64]*domain.NewsItem)}
}

func (m *mockEntities) PutNews(_ context.Context, news ...*domain.NewsItem) error {
	if m.err != nil {
		return m.err
	}
	for _, n := range news {
		m.news[n.ID] = n
	}
	return nil
}

func (m *mockEntities) DeleteNews(_ context.Context, id int64) error {
	if m.err != nil {
		return m.err
	}
	delete(m.news, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockEntities) PutFolder(_ context.Context, f *domain.Folder) error {
	m.folders = append(m.folders, f)
	return m.err
}

func (m *mockEntities) PutBookmark(_ context.Context, b *domain.Bookmark) error {
	m.bookmarks = append(m.bookmarks, b)
	return m.err
}

func (m *mockEntities) PutBin(_ context.Context, b *domain.Bin) error {
	m.bins = append(m.bins, b)
	return m.err
}

// --- newsIndexer mock ---

type indexCall struct {
	news     []*domain.NewsItem
	isUpdate bool
}

type mockIndexer struct {
	indexed []indexCall
	removed []domain.EntityRef
	flushes int
	err     error
}

func (m *mockIndexer) Index(_ context.Context, news []*domain.NewsItem, isUpdate bool) error {
	if m.err != nil {
		return m.err
	}
	m.indexed = append(m.indexed, indexCall{news: news, isUpdate: isUpdate})
	return nil
}

func (m *mockIndexer) Remove(_ context.Context, refs []domain.EntityRef) error {
	if m.err != nil {
		return m.err
	}
	m.removed = append(m.removed, refs...)
	return nil
}

func (m *mockIndexer) FlushIfDirty(context.Context) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.flushes++
	return true, nil
}

// --- healthUseCase mock ---

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type testDeps struct {
	search   *mockSearchUC
	entities *mockEntities
	indexer  *mockIndexer
	health   *mockHealth
}

func testClient() (*Client, *testDeps) {
	deps := &testDeps{
		search:   &mockSearchUC{},
		entities: newMockEntities(),
		indexer:  &mockIndexer{},
		health:   &mockHealth{},
	}
	c := &Client{
		entities:  deps.entities,
		indexer:   deps.indexer,
		searchSvc: deps.search,
		healthSvc: deps.health,
	}
	return c, deps
}
