package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Entity names owning search fields.
const (
	EntityNews = "news"
)

// EntityRef points at a persisted entity without loading it.
type EntityRef struct {
	Type string
	ID   int64
}

// NewsRef creates a reference to a news item.
func NewsRef(id int64) EntityRef { return EntityRef{Type: EntityNews, ID: id} }

// String renders the reference as "type:id", which is also its index document ID.
func (r EntityRef) String() string { return r.Type + ":" + strconv.FormatInt(r.ID, 10) }

// ParseEntityRef parses the "type:id" form produced by String.
func ParseEntityRef(s string) (EntityRef, error) {
	typ, rawID, ok := strings.Cut(s, ":")
	if !ok || typ == "" {
		return EntityRef{}, fmt.Errorf("malformed entity reference %q", s)
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return EntityRef{}, fmt.Errorf("malformed entity id in %q: %w", s, err)
	}
	return EntityRef{Type: typ, ID: id}, nil
}

// State is the lifecycle state of a news item.
type State int

// News states.
const (
	StateNew State = iota
	StateUnread
	StateUpdated
	StateRead
	StateHidden
	StateDeleted
)

var stateNames = [...]string{"new", "unread", "updated", "read", "hidden", "deleted"}

// States returns every state in declaration order.
func States() []State {
	return []State{StateNew, StateUnread, StateUpdated, StateRead, StateHidden, StateDeleted}
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
	return stateNames[s]
}

// IsVisible reports whether news in this state belongs in the search index.
func (s State) IsVisible() bool { return s != StateHidden && s != StateDeleted }

// ParseState parses the lowercase state name.
func ParseState(s string) (State, error) {
	for i, name := range stateNames {
		if strings.EqualFold(name, s) {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("unknown news state %q", s)
}

// Attachment is an enclosure of a news item.
type Attachment struct {
	Link    string
	Type    string
	Content string
}

// NewsItem is a news entity as hydrated from the entity store.
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
	State        State
	Flagged      bool
	Rating       int64
	PublishDate  time.Time
	ModifiedDate time.Time
	ReceiveDate  time.Time
}

// Ref returns the reference of the news item.
func (n *NewsItem) Ref() EntityRef { return NewsRef(n.ID) }

// IsCopy reports whether the news item is a copy stored in a news bin.
func (n *NewsItem) IsCopy() bool { return n.BinID != 0 }

// AgeDate returns the date the age of the item is measured from.
func (n *NewsItem) AgeDate() time.Time {
	if !n.PublishDate.IsZero() {
		return n.PublishDate
	}
	return n.ReceiveDate
}

// Folder groups bookmarks, bins and other folders.
type Folder struct {
	ID        int64
	Name      string
	Folders   []int64
	Bookmarks []int64
	Bins      []int64
}

// Bookmark is a subscribed feed placed in a folder.
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
