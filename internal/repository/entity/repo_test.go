package entity

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/kailas-cloud/feedsearch/internal/domain"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/condition"
)

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := newMockStore()
	return New(ms, 16, time.Minute), ms
}

func TestRepo_NewsRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	in := &domain.NewsItem{
		ID:          42,
		Title:       "Go 1.23",
		Link:        "https://go.dev/blog",
		GUID:        "guid-42",
		BookmarkID:  3,
		BinID:       9,
		Categories:  []string{"lang"},
		Labels:      []string{"later"},
		Attachments: []domain.Attachment{{Link: "https://x/a.mp3", Type: "audio/mpeg"}},
		State:       domain.StateUpdated,
		Flagged:     true,
		Rating:      -2,
		PublishDate: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
	}
	if err := repo.PutNews(ctx, in); err != nil {
		t.Fatalf("PutNews: %v", err)
	}

	out, err := repo.GetNews(ctx, 42)
	if err != nil {
		t.Fatalf("GetNews: %v", err)
	}
	if out.Title != in.Title || out.GUID != in.GUID || out.BinID != 9 || out.BookmarkID != 3 {
		t.Errorf("unexpected news %+v", out)
	}
	if out.State != domain.StateUpdated || !out.Flagged || out.Rating != -2 {
		t.Errorf("unexpected state fields %+v", out)
	}
	if !out.PublishDate.Equal(in.PublishDate) || !out.ReceiveDate.IsZero() {
		t.Errorf("dates = %v / %v", out.PublishDate, out.ReceiveDate)
	}
	if !slices.Equal(out.Categories, in.Categories) || len(out.Attachments) != 1 {
		t.Errorf("collections = %v / %v", out.Categories, out.Attachments)
	}
}

func TestRepo_GetNews_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.GetNews(context.Background(), 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRepo_DeleteNews(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	_ = repo.PutNews(ctx, &domain.NewsItem{ID: 1})
	if err := repo.DeleteNews(ctx, 1); err != nil {
		t.Fatalf("DeleteNews: %v", err)
	}
	if _, err := repo.GetNews(ctx, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRepo_StreamNews(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		_ = repo.PutNews(ctx, &domain.NewsItem{ID: i, Title: "n"})
	}
	_ = repo.PutFolder(ctx, &domain.Folder{ID: 1})

	var ids []int64
	err := repo.StreamNews(ctx, 1, func(batch []*domain.NewsItem) error {
		if len(batch) > 1 {
			t.Errorf("batch of %d exceeds size", len(batch))
		}
		for _, n := range batch {
			ids = append(ids, n.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("StreamNews: %v", err)
	}
	slices.Sort(ids)
	if !slices.Equal(ids, []int64{1, 2, 3, 4, 5}) {
		t.Errorf("ids = %v", ids)
	}

	n, err := repo.CountNews(ctx)
	if err != nil || n != 5 {
		t.Errorf("CountNews = %d, %v", n, err)
	}
}

func TestRepo_StreamNews_StopsOnError(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	for i := int64(1); i <= 4; i++ {
		_ = repo.PutNews(ctx, &domain.NewsItem{ID: i})
	}

	stop := errors.New("stop")
	calls := 0
	err := repo.StreamNews(ctx, 10, func([]*domain.NewsItem) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Fatalf("err = %v, calls = %d", err, calls)
	}
}

func TestRepo_ResolveLocation(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_ = repo.PutFolder(ctx, &domain.Folder{ID: 1, Folders: []int64{2}, Bookmarks: []int64{10}})
	_ = repo.PutFolder(ctx, &domain.Folder{ID: 2, Folders: []int64{1}, Bookmarks: []int64{11}, Bins: []int64{20}})

	terms, err := repo.ResolveLocation(ctx, condition.Location{
		FolderIDs:   []int64{1, 99},
		BookmarkIDs: []int64{10, 12},
	})
	if err != nil {
		t.Fatalf("ResolveLocation: %v", err)
	}
	want := []string{"bin:20", "bm:10", "bm:11", "bm:12"}
	if !slices.Equal(terms, want) {
		t.Errorf("terms = %v, want %v", terms, want)
	}
}

func TestRepo_ResolveLocation_Cached(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()
	_ = repo.PutFolder(ctx, &domain.Folder{ID: 1, Bookmarks: []int64{10}})

	loc := condition.Location{FolderIDs: []int64{1}}
	if _, err := repo.ResolveLocation(ctx, loc); err != nil {
		t.Fatalf("ResolveLocation: %v", err)
	}
	loads := ms.hgetalls
	if _, err := repo.ResolveLocation(ctx, loc); err != nil {
		t.Fatalf("ResolveLocation: %v", err)
	}
	if ms.hgetalls != loads {
		t.Error("second resolution should hit the cache")
	}

	// Changing a folder invalidates cached expansions.
	_ = repo.PutFolder(ctx, &domain.Folder{ID: 1, Bookmarks: []int64{10, 11}})
	terms, err := repo.ResolveLocation(ctx, loc)
	if err != nil {
		t.Fatalf("ResolveLocation: %v", err)
	}
	if len(terms) != 2 {
		t.Errorf("terms = %v, want 2 entries", terms)
	}
}

func TestRepo_ResolveLocation_Empty(t *testing.T) {
	repo, _ := newTestRepo(t)
	terms, err := repo.ResolveLocation(context.Background(), condition.Location{FolderIDs: []int64{5}})
	if err != nil {
		t.Fatalf("ResolveLocation: %v", err)
	}
	if len(terms) != 0 {
		t.Errorf("terms = %v, want none", terms)
	}
}

func TestRepo_PutBookmarkAndBin(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()
	if err := repo.PutBookmark(ctx, &domain.Bookmark{ID: 1, Name: "Go", FeedLink: "https://go.dev/feed"}); err != nil {
		t.Fatalf("PutBookmark: %v", err)
	}
	if err := repo.PutBin(ctx, &domain.Bin{ID: 2, Name: "Saved"}); err != nil {
		t.Fatalf("PutBin: %v", err)
	}
	if ms.hashes["feedsearch:bookmark:1"]["feed_link"] != "https://go.dev/feed" {
		t.Error("bookmark not stored")
	}
	if ms.hashes["feedsearch:bin:2"]["name"] != "Saved" {
		t.Error("bin not stored")
	}
}

func TestRepo_Reindex(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	last, err := repo.LastReindex(ctx)
	if err != nil || !last.IsZero() {
		t.Fatalf("LastReindex = %v, %v", last, err)
	}

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := repo.RecordReindex(ctx, at); err != nil {
		t.Fatalf("RecordReindex: %v", err)
	}
	_ = repo.RecordReindex(ctx, at)

	last, err = repo.LastReindex(ctx)
	if err != nil || !last.Equal(at) {
		t.Fatalf("LastReindex = %v, %v", last, err)
	}
	if ms.kv["feedsearch:meta:reindex_count"] != "2" {
		t.Errorf("count = %s", ms.kv["feedsearch:meta:reindex_count"])
	}
}

func TestSplitIDs(t *testing.T) {
	ids, err := splitIDs("1, 2,3")
	if err != nil || !slices.Equal(ids, []int64{1, 2, 3}) {
		t.Errorf("splitIDs = %v, %v", ids, err)
	}
	if _, err := splitIDs("1,x"); err == nil {
		t.Error("expected error")
	}
	if ids, _ := splitIDs(""); ids != nil {
		t.Error("empty input should yield nil")
	}
}
