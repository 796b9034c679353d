// Package entity stores news items and their containers in Redis hashes.
package entity

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kailas-cloud/feedsearch/internal/db"
	"github.com/kailas-cloud/feedsearch/internal/domain"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/condition"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/encoding"
)

// Defaults for the location cache.
const (
	DefaultCacheSize = 1024
	DefaultCacheTTL  = 5 * time.Minute
)

// store is the consumer interface for entity hashes (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string, fn func(keys []string) error) error
	Get(ctx context.Context, key string) (string, error)
	SetAndCount(ctx context.Context, key, value, counter string) (int64, error)
}

// Repo implements the entity store consumed by the search service.
type Repo struct {
	store     store
	locations *expirable.LRU[string, []string]
}

// New creates an entity repository. Resolved locations are cached for ttl.
func New(s store, cacheSize int, ttl time.Duration) *Repo {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Repo{
		store:     s,
		locations: expirable.NewLRU[string, []string](cacheSize, nil, ttl),
	}
}

// PutNews stores news items in one round-trip.
func (r *Repo) PutNews(ctx context.Context, news ...*domain.NewsItem) error {
	items := make([]db.HashSetItem, 0, len(news))
	for _, n := range news {
		h, err := newsToHash(n)
		if err != nil {
			return fmt.Errorf("encode news %d: %w", n.ID, err)
		}
		items = append(items, db.HashSetItem{Key: newsKey(n.ID), Fields: h})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("put news: %w", err)
	}
	return nil
}

// GetNews returns a news item by ID.
func (r *Repo) GetNews(ctx context.Context, id int64) (*domain.NewsItem, error) {
	key := newsKey(id)
	h, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}
	n, err := hashToNews(h)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return n, nil
}

// DeleteNews removes a news item.
func (r *Repo) DeleteNews(ctx context.Context, id int64) error {
	key := newsKey(id)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// StreamNews hands every stored news item to fn in batches of at most
// batchSize. Items deleted between the scan and the fetch are skipped.
// Iteration stops at the first error from fn.
func (r *Repo) StreamNews(ctx context.Context, batchSize int, fn func([]*domain.NewsItem) error) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	return r.store.Scan(ctx, newsPrefix+"*", func(keys []string) error {
		for start := 0; start < len(keys); start += batchSize {
			end := min(start+batchSize, len(keys))
			batch, err := r.loadNews(ctx, keys[start:end])
			if err != nil {
				return err
			}
			if len(batch) == 0 {
				continue
			}
			if err := fn(batch); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repo) loadNews(ctx context.Context, keys []string) ([]*domain.NewsItem, error) {
	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load news: %w", err)
	}
	out := make([]*domain.NewsItem, 0, len(hashes))
	for i, h := range hashes {
		if len(h) == 0 {
			continue
		}
		n, err := hashToNews(h)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		out = append(out, n)
	}
	return out, nil
}

// CountNews returns the number of stored news items.
func (r *Repo) CountNews(ctx context.Context) (int, error) {
	var n int
	err := r.store.Scan(ctx, newsPrefix+"*", func(keys []string) error {
		n += len(keys)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count news: %w", err)
	}
	return n, nil
}

// PutFolder stores a folder and drops cached locations.
func (r *Repo) PutFolder(ctx context.Context, f *domain.Folder) error {
	if err := r.store.HSet(ctx, folderKey(f.ID), folderToHash(f)); err != nil {
		return fmt.Errorf("put folder %d: %w", f.ID, err)
	}
	r.locations.Purge()
	return nil
}

// PutBookmark stores a bookmark.
func (r *Repo) PutBookmark(ctx context.Context, b *domain.Bookmark) error {
	fields := map[string]string{
		"id":        strconv.FormatInt(b.ID, 10),
		"name":      b.Name,
		"feed_link": b.FeedLink,
	}
	if err := r.store.HSet(ctx, bookmarkKey(b.ID), fields); err != nil {
		return fmt.Errorf("put bookmark %d: %w", b.ID, err)
	}
	return nil
}

// PutBin stores a news bin.
func (r *Repo) PutBin(ctx context.Context, b *domain.Bin) error {
	fields := map[string]string{
		"id":   strconv.FormatInt(b.ID, 10),
		"name": b.Name,
	}
	if err := r.store.HSet(ctx, binKey(b.ID), fields); err != nil {
		return fmt.Errorf("put bin %d: %w", b.ID, err)
	}
	return nil
}

// ResolveLocation expands loc into the sorted location terms of every
// bookmark and bin it covers. Folders expand recursively; unknown folders
// contribute nothing.
func (r *Repo) ResolveLocation(ctx context.Context, loc condition.Location) ([]string, error) {
	key := condition.LocationValue{Location: loc}.String()
	if terms, ok := r.locations.Get(key); ok {
		return slices.Clone(terms), nil
	}

	terms := make([]string, 0, len(loc.BookmarkIDs)+len(loc.BinIDs))
	for _, id := range loc.BookmarkIDs {
		terms = append(terms, encoding.BookmarkTerm(id))
	}
	for _, id := range loc.BinIDs {
		terms = append(terms, encoding.BinTerm(id))
	}

	visited := make(map[int64]bool)
	for _, id := range loc.FolderIDs {
		expanded, err := r.expandFolder(ctx, id, visited)
		if err != nil {
			return nil, err
		}
		terms = append(terms, expanded...)
	}

	slices.Sort(terms)
	terms = slices.Compact(terms)
	r.locations.Add(key, terms)
	return slices.Clone(terms), nil
}

func (r *Repo) expandFolder(ctx context.Context, id int64, visited map[int64]bool) ([]string, error) {
	if visited[id] {
		return nil, nil
	}
	visited[id] = true

	h, err := r.store.HGetAll(ctx, folderKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load folder %d: %w", id, err)
	}
	f, err := hashToFolder(h)
	if err != nil {
		return nil, fmt.Errorf("decode folder %d: %w", id, err)
	}

	var terms []string
	for _, b := range f.Bookmarks {
		terms = append(terms, encoding.BookmarkTerm(b))
	}
	for _, b := range f.Bins {
		terms = append(terms, encoding.BinTerm(b))
	}
	for _, child := range f.Folders {
		sub, err := r.expandFolder(ctx, child, visited)
		if err != nil {
			return nil, err
		}
		terms = append(terms, sub...)
	}
	return terms, nil
}

// RecordReindex stores the completion time of a full reindex and bumps the
// reindex counter.
func (r *Repo) RecordReindex(ctx context.Context, at time.Time) error {
	if _, err := r.store.SetAndCount(ctx, keyLastReindex, at.UTC().Format(time.RFC3339), keyReindexCount); err != nil {
		return fmt.Errorf("record reindex: %w", err)
	}
	return nil
}

// LastReindex returns the completion time of the last full reindex, or the
// zero time when none was recorded.
func (r *Repo) LastReindex(ctx context.Context) (time.Time, error) {
	data, err := r.store.Get(ctx, keyLastReindex)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("get last reindex: %w", err)
	}
	t, err := time.Parse(time.RFC3339, data)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last reindex: %w", err)
	}
	return t, nil
}
