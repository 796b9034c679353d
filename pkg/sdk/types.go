package feedsearch

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/feedsearch/internal/domain"
)

// State is the lifecycle state of a news item.
type State string

// State constants.
const (
	StateNew     State = "new"
	StateUnread  State = "unread"
	StateUpdated State = "updated"
	StateRead    State = "read"
	StateHidden  State = "hidden"
	StateDeleted State = "deleted"
)

// Attachment is an enclosure of a news item.
type Attachment struct {
	Link    string
	Type    string
	Content string
}

// NewsItem is a news entity. Hidden and deleted items are kept in the entity
// store but never indexed.
type NewsItem struct {
	ID           int64
	Title        string
	Description  string
	Link         string
	GUID         string
	Author       string
	Comments     string
	Source       string
	FeedLink     string
	BookmarkID   int64
	BinID        int64 // non-zero for copies kept in a news bin
	Categories   []string
	Labels       []string
	Attachments  []Attachment
	State        State // empty means StateNew
	Flagged      bool
	Rating       int64
	PublishDate  time.Time
	ModifiedDate time.Time
	ReceiveDate  time.Time
}

// Folder groups bookmarks, bins and other folders.
type Folder struct {
	ID        int64
	Name      string
	Folders   []int64
	Bookmarks []int64
	Bins      []int64
}

// Bookmark is a subscribed feed.
type Bookmark struct {
	ID       int64
	Name     string
	FeedLink string
}

// Bin is a news bin holding copies of news items.
type Bin struct {
	ID   int64
	Name string
}

// Location is a disjunction over folders, bookmarks and news bins.
type Location struct {
	Folders   []int64
	Bookmarks []int64
	Bins      []int64
}

// Hit is a ranked search match.
type Hit struct {
	ID    int64
	Score float64
	State State
}

func stateToDomain(s State) (domain.State, error) {
	if s == "" {
		return domain.StateNew, nil
	}
	st, err := domain.ParseState(string(s))
	if err != nil {
		return 0, fmt.Errorf("feedsearch: %w", err)
	}
	return st, nil
}

func newsToDomain(n *NewsItem) (*domain.NewsItem, error) {
	st, err := stateToDomain(n.State)
	if err != nil {
		return nil, err
	}
	attachments := make([]domain.Attachment, len(n.Attachments))
	for i, a := range n.Attachments {
		attachments[i] = domain.Attachment{Link: a.Link, Type: a.Type, Content: a.Content}
	}
	return &domain.NewsItem{
		ID:           n.ID,
		Title:        n.Title,
		Description:  n.Description,
		Link:         n.Link,
		GUID:         n.GUID,
		Author:       n.Author,
		Comments:     n.Comments,
		Source:       n.Source,
		FeedLink:     n.FeedLink,
		BookmarkID:   n.BookmarkID,
		BinID:        n.BinID,
		Categories:   n.Categories,
		Labels:       n.Labels,
		Attachments:  attachments,
		State:        st,
		Flagged:      n.Flagged,
		Rating:       n.Rating,
		PublishDate:  n.PublishDate,
		ModifiedDate: n.ModifiedDate,
		ReceiveDate:  n.ReceiveDate,
	}, nil
}
