package newsindex

import (
	"time"

	"github.com/kailas-cloud/feedsearch/internal/db"
	"github.com/kailas-cloud/feedsearch/internal/domain"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/encoding"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/field"
)

// IndexName is the name of the news index.
const IndexName = "news"

// Definition returns the schema of the news index. Tokenized fields are
// analyzed text; everything else is indexed as exact terms. State, link and
// guid are stored so hits can carry them without loading the entity.
func Definition() *db.IndexDefinition {
	b := db.NewIndex(IndexName)
	for _, f := range field.NewsFields() {
		if f.Kind() == field.AllFields {
			continue
		}
		switch {
		case f.Tokenized():
			b.Text(f.IndexName())
		case f.IndexName() == field.NameState || f.IndexName() == field.NameLink || f.IndexName() == field.NameGUID:
			b.StoredKeyword(f.IndexName())
		default:
			b.Keyword(f.IndexName())
		}
	}
	return b.MustBuild()
}

// docID is the document key of a news item.
func docID(ref domain.EntityRef) string {
	return ref.String()
}

// toDocument flattens a news item into index fields. Empty values are left
// out so they never match an exact-term query.
func toDocument(n *domain.NewsItem) map[string]any {
	doc := make(map[string]any, 20)
	putString(doc, field.NameTitle, n.Title)
	putString(doc, field.NameDescription, n.Description)
	putString(doc, field.NameAuthor, n.Author)
	putString(doc, field.NameLink, n.Link)
	putString(doc, field.NameGUID, n.GUID)
	putString(doc, field.NameFeed, n.FeedLink)
	putString(doc, field.NameSource, n.Source)
	putString(doc, field.NameComments, n.Comments)
	putStrings(doc, field.NameCategory, n.Categories)
	putStrings(doc, field.NameLabel, n.Labels)

	var attachments []string
	for _, a := range n.Attachments {
		if a.Content != "" {
			attachments = append(attachments, a.Content)
		}
		if a.Link != "" {
			attachments = append(attachments, a.Link)
		}
	}
	putStrings(doc, field.NameAttachmentContent, attachments)

	putDate(doc, field.NamePublishDate, n.PublishDate)
	putDate(doc, field.NameModifiedDate, n.ModifiedDate)
	putDate(doc, field.NameReceiveDate, n.ReceiveDate)
	putDate(doc, field.NameAge, n.AgeDate())

	doc[field.NameRating] = encoding.Int(n.Rating)
	doc[field.NameIsFlagged] = encoding.Bool(n.Flagged)
	doc[field.NameHasAttachments] = encoding.Bool(len(n.Attachments) > 0)
	doc[field.NameState] = n.State.String()

	var location []string
	if n.BookmarkID != 0 {
		location = append(location, encoding.BookmarkTerm(n.BookmarkID))
	}
	if n.IsCopy() {
		location = append(location, encoding.BinTerm(n.BinID))
	}
	putStrings(doc, field.NameLocation, location)

	return doc
}

func putString(doc map[string]any, name, v string) {
	if v != "" {
		doc[name] = v
	}
}

func putStrings(doc map[string]any, name string, vs []string) {
	if len(vs) > 0 {
		doc[name] = vs
	}
}

func putDate(doc map[string]any, name string, t time.Time) {
	if !t.IsZero() {
		doc[name] = encoding.Date(t)
	}
}
