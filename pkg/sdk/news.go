package feedsearch

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/feedsearch/internal/domain"
)

// PutNews stores news items and queues them for indexing. Items that became
// hidden or deleted are removed from the index instead. Changes become
// searchable after the next commit.
func (c *Client) PutNews(ctx context.Context, news ...NewsItem) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("put_news", start, err) }()

	items := make([]*domain.NewsItem, 0, len(news))
	for i := range news {
		n, err := newsToDomain(&news[i])
		if err != nil {
			return err
		}
		items = append(items, n)
	}

	if err := c.entities.PutNews(ctx, items...); err != nil {
		return fmt.Errorf("feedsearch: put news: %w", err)
	}
	if err := c.indexer.Index(ctx, items, true); err != nil {
		return fmt.Errorf("feedsearch: index news: %w", err)
	}
	return nil
}

// DeleteNews removes news items from the entity store and the index.
func (c *Client) DeleteNews(ctx context.Context, ids ...int64) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete_news", start, err) }()

	refs := make([]domain.EntityRef, 0, len(ids))
	for _, id := range ids {
		if err := c.entities.DeleteNews(ctx, id); err != nil {
			return fmt.Errorf("feedsearch: delete news %d: %w", id, err)
		}
		refs = append(refs, domain.NewsRef(id))
	}
	if err := c.indexer.Remove(ctx, refs); err != nil {
		return fmt.Errorf("feedsearch: unindex news: %w", err)
	}
	return nil
}

// PutFolder stores a folder. Location conditions see the new layout right away.
func (c *Client) PutFolder(ctx context.Context, f Folder) error {
	return c.entities.PutFolder(ctx, &domain.Folder{
		ID: f.ID, Name: f.Name, Folders: f.Folders, Bookmarks: f.Bookmarks, Bins: f.Bins,
	})
}

// PutBookmark stores a bookmark.
func (c *Client) PutBookmark(ctx context.Context, b Bookmark) error {
	return c.entities.PutBookmark(ctx, &domain.Bookmark{ID: b.ID, Name: b.Name, FeedLink: b.FeedLink})
}

// PutBin stores a news bin.
func (c *Client) PutBin(ctx context.Context, b Bin) error {
	return c.entities.PutBin(ctx, &domain.Bin{ID: b.ID, Name: b.Name})
}

// Flush commits queued index mutations so the next search sees them.
func (c *Client) Flush(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("flush", start, err) }()

	if _, err := c.indexer.FlushIfDirty(ctx); err != nil {
		return fmt.Errorf("feedsearch: flush: %w", err)
	}
	return nil
}
