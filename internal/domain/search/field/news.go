package field

import "github.com/kailas-cloud/feedsearch/internal/domain"

// News field ids.
const (
	IDAllFields = -1
	IDTitle     = iota - 1
	IDDescription
	IDAuthor
	IDCategory
	IDAttachmentContent
	IDLink
	IDGUID
	IDFeed
	IDSource
	IDComments
	IDLabel
	IDPublishDate
	IDModifiedDate
	IDReceiveDate
	IDRating
	IDIsFlagged
	IDHasAttachments
	IDState
	IDLocation
	IDAgeInDays
)

// Index field names of news documents.
const (
	NameTitle             = "title"
	NameDescription       = "description"
	NameAuthor            = "author"
	NameCategory          = "category"
	NameAttachmentContent = "attachment"
	NameLink              = "link"
	NameGUID              = "guid"
	NameFeed              = "feed"
	NameSource            = "source"
	NameComments          = "comments"
	NameLabel             = "label"
	NamePublishDate       = "publish_date"
	NameModifiedDate      = "modified_date"
	NameReceiveDate       = "receive_date"
	NameRating            = "rating"
	NameIsFlagged         = "flagged"
	NameHasAttachments    = "has_attachments"
	NameState             = "state"
	NameLocation          = "location"
	NameAge               = "age"
	NameAll               = "_all"
)

func news(id int, label string, vt ValueType, kind Kind, indexName string, tokenized bool) Field {
	return Reconstruct(id, domain.EntityNews, label, vt, kind, indexName, tokenized)
}

// Fields of the news entity.
var (
	AllNewsFields     = news(IDAllFields, "Entire News", String, AllFields, NameAll, true)
	Title             = news(IDTitle, "Title", String, Standard, NameTitle, true)
	Description       = news(IDDescription, "Description", String, Standard, NameDescription, true)
	Author            = news(IDAuthor, "Author", String, Standard, NameAuthor, true)
	Category          = news(IDCategory, "Category", String, Standard, NameCategory, true)
	AttachmentContent = news(IDAttachmentContent, "Attachment", String, Standard, NameAttachmentContent, true)
	NewsLink          = news(IDLink, "Link", Link, Standard, NameLink, false)
	GUID              = news(IDGUID, "GUID", String, Standard, NameGUID, false)
	Feed              = news(IDFeed, "Feed", Link, Standard, NameFeed, false)
	Source            = news(IDSource, "Source", Link, Standard, NameSource, false)
	Comments          = news(IDComments, "Comments", String, Standard, NameComments, true)
	Label             = news(IDLabel, "Label", String, Standard, NameLabel, false)
	PublishDate       = news(IDPublishDate, "Date Published", Date, Standard, NamePublishDate, false)
	ModifiedDate      = news(IDModifiedDate, "Date Modified", Date, Standard, NameModifiedDate, false)
	ReceiveDate       = news(IDReceiveDate, "Date Received", Date, Standard, NameReceiveDate, false)
	Rating            = news(IDRating, "Rating", Integer, Standard, NameRating, false)
	IsFlagged         = news(IDIsFlagged, "Is Sticky", Boolean, Standard, NameIsFlagged, false)
	HasAttachments    = news(IDHasAttachments, "Has Attachments", Boolean, Standard, NameHasAttachments, false)
	State             = news(IDState, "State", EnumSet, StateKind, NameState, false)
	NewsLocation      = news(IDLocation, "Location", Location, LocationKind, NameLocation, false)
	AgeInDaysField    = news(IDAgeInDays, "Age in Days", Integer, AgeInDays, NameAge, false)
)

var newsFields = []Field{
	AllNewsFields, Title, Description, Author, Category, AttachmentContent,
	NewsLink, GUID, Feed, Source, Comments, Label,
	PublishDate, ModifiedDate, ReceiveDate, Rating, IsFlagged, HasAttachments,
	State, NewsLocation, AgeInDaysField,
}

var newsByKey = func() map[Key]Field {
	m := make(map[Key]Field, len(newsFields))
	for _, f := range newsFields {
		m[f.Key()] = f
	}
	return m
}()

var newsByName = func() map[string]Field {
	m := make(map[string]Field, len(newsFields))
	for _, f := range newsFields {
		m[f.indexName] = f
	}
	return m
}()

// NewsFields returns every searchable news field.
func NewsFields() []Field {
	out := make([]Field, len(newsFields))
	copy(out, newsFields)
	return out
}

// Lookup returns the registered field for the key.
func Lookup(k Key) (Field, bool) {
	f, ok := newsByKey[k]
	return f, ok
}

// ByIndexName returns the news field stored under the index field name.
func ByIndexName(name string) (Field, bool) {
	f, ok := newsByName[name]
	return f, ok
}

// TextFields returns the concrete fields the "all fields" pseudo-field fans out to.
func TextFields(entity string) []Field {
	if entity != domain.EntityNews {
		return nil
	}
	return []Field{Title, Description, Author, Category, AttachmentContent}
}
