package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/feedsearch/internal/domain"
)

const (
	keyPrefix      = "feedsearch:"
	newsPrefix     = keyPrefix + "news:"
	folderPrefix   = keyPrefix + "folder:"
	bookmarkPrefix = keyPrefix + "bookmark:"
	binPrefix      = keyPrefix + "bin:"

	keyLastReindex  = keyPrefix + "meta:last_reindex"
	keyReindexCount = keyPrefix + "meta:reindex_count"
)

func newsKey(id int64) string     { return newsPrefix + strconv.FormatInt(id, 10) }
func folderKey(id int64) string   { return folderPrefix + strconv.FormatInt(id, 10) }
func bookmarkKey(id int64) string { return bookmarkPrefix + strconv.FormatInt(id, 10) }
func binKey(id int64) string      { return binPrefix + strconv.FormatInt(id, 10) }

func newsToHash(n *domain.NewsItem) (map[string]string, error) {
	h := map[string]string{
		"id":          strconv.FormatInt(n.ID, 10),
		"title":       n.Title,
		"description": n.Description,
		"link":        n.Link,
		"guid":        n.GUID,
		"author":      n.Author,
		"comments":    n.Comments,
		"source":      n.Source,
		"feed_link":   n.FeedLink,
		"bookmark_id": strconv.FormatInt(n.BookmarkID, 10),
		"bin_id":      strconv.FormatInt(n.BinID, 10),
		"state":       n.State.String(),
		"flagged":     strconv.FormatBool(n.Flagged),
		"rating":      strconv.FormatInt(n.Rating, 10),
	}
	putTime(h, "publish_date", n.PublishDate)
	putTime(h, "modified_date", n.ModifiedDate)
	putTime(h, "receive_date", n.ReceiveDate)

	for name, v := range map[string]any{
		"categories":  n.Categories,
		"labels":      n.Labels,
		"attachments": n.Attachments,
	} {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", name, err)
		}
		h[name] = string(data)
	}
	return h, nil
}

func putTime(h map[string]string, name string, t time.Time) {
	if !t.IsZero() {
		h[name] = t.UTC().Format(time.RFC3339Nano)
	}
}

func hashToNews(h map[string]string) (*domain.NewsItem, error) {
	n := &domain.NewsItem{
		Title:       h["title"],
		Description: h["description"],
		Link:        h["link"],
		GUID:        h["guid"],
		Author:      h["author"],
		Comments:    h["comments"],
		Source:      h["source"],
		FeedLink:    h["feed_link"],
	}

	var err error
	if n.ID, err = parseInt(h, "id"); err != nil {
		return nil, err
	}
	if n.BookmarkID, err = parseInt(h, "bookmark_id"); err != nil {
		return nil, err
	}
	if n.BinID, err = parseInt(h, "bin_id"); err != nil {
		return nil, err
	}
	if n.Rating, err = parseInt(h, "rating"); err != nil {
		return nil, err
	}
	if n.State, err = domain.ParseState(h["state"]); err != nil {
		return nil, err
	}
	n.Flagged = h["flagged"] == "true"

	if n.PublishDate, err = parseTime(h, "publish_date"); err != nil {
		return nil, err
	}
	if n.ModifiedDate, err = parseTime(h, "modified_date"); err != nil {
		return nil, err
	}
	if n.ReceiveDate, err = parseTime(h, "receive_date"); err != nil {
		return nil, err
	}

	if err := parseJSON(h, "categories", &n.Categories); err != nil {
		return nil, err
	}
	if err := parseJSON(h, "labels", &n.Labels); err != nil {
		return nil, err
	}
	if err := parseJSON(h, "attachments", &n.Attachments); err != nil {
		return nil, err
	}
	return n, nil
}

func parseInt(h map[string]string, name string) (int64, error) {
	s, ok := h[name]
	if !ok || s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return v, nil
}

func parseTime(h map[string]string, name string) (time.Time, error) {
	s, ok := h[name]
	if !ok || s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", name, err)
	}
	return t, nil
}

func parseJSON(h map[string]string, name string, dst any) error {
	s, ok := h[name]
	if !ok || s == "" || s == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), dst); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func splitIDs(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func folderToHash(f *domain.Folder) map[string]string {
	return map[string]string{
		"id":        strconv.FormatInt(f.ID, 10),
		"name":      f.Name,
		"folders":   joinIDs(f.Folders),
		"bookmarks": joinIDs(f.Bookmarks),
		"bins":      joinIDs(f.Bins),
	}
}

func hashToFolder(h map[string]string) (*domain.Folder, error) {
	f := &domain.Folder{Name: h["name"]}
	var err error
	if f.ID, err = parseInt(h, "id"); err != nil {
		return nil, err
	}
	if f.Folders, err = splitIDs(h["folders"]); err != nil {
		return nil, err
	}
	if f.Bookmarks, err = splitIDs(h["bookmarks"]); err != nil {
		return nil, err
	}
	if f.Bins, err = splitIDs(h["bins"]); err != nil {
		return nil, err
	}
	return f, nil
}
