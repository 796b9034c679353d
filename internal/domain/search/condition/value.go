package condition

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/feedsearch/internal/domain"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/field"
)

// Value is the closed set of condition values, one variant per field value type.
type Value interface {
	// Type returns the value type the variant carries.
	Type() field.ValueType
	// String returns the lexical form of the value.
	String() string
	// Accept dispatches to the visitor method of the variant.
	Accept(v Visitor)
}

// Visitor handles every Value variant. Adding a variant breaks every visitor
// until it handles the new case.
type Visitor interface {
	VisitBool(v BoolValue)
	VisitText(v TextValue)
	VisitLink(v LinkValue)
	VisitInt(v IntValue)
	VisitDate(v DateValue)
	VisitEnumSet(v EnumSetValue)
	VisitLocation(v LocationValue)
}

// BoolValue is a boolean condition value.
type BoolValue bool

func (BoolValue) Type() field.ValueType { return field.Boolean }
func (v BoolValue) String() string      { return strconv.FormatBool(bool(v)) }
func (v BoolValue) Accept(vis Visitor)  { vis.VisitBool(v) }

// TextValue is a free-text condition value.
type TextValue string

func (TextValue) Type() field.ValueType { return field.String }
func (v TextValue) String() string      { return string(v) }
func (v TextValue) Accept(vis Visitor)  { vis.VisitText(v) }

// LinkValue is a URI condition value.
type LinkValue string

func (LinkValue) Type() field.ValueType { return field.Link }
func (v LinkValue) String() string      { return string(v) }
func (v LinkValue) Accept(vis Visitor)  { vis.VisitLink(v) }

// IntValue is an integer condition value.
type IntValue int64

func (IntValue) Type() field.ValueType { return field.Integer }
func (v IntValue) String() string      { return strconv.FormatInt(int64(v), 10) }
func (v IntValue) Accept(vis Visitor)  { vis.VisitInt(v) }

// DateValue is a date condition value.
type DateValue time.Time

func (DateValue) Type() field.ValueType { return field.Date }
func (v DateValue) String() string      { return time.Time(v).UTC().Format(time.RFC3339) }
func (v DateValue) Accept(vis Visitor)  { vis.VisitDate(v) }

// Time returns the wrapped time.
func (v DateValue) Time() time.Time { return time.Time(v) }

// EnumSetValue is a set of news states.
type EnumSetValue struct {
	states []domain.State
}

// NewEnumSet creates a sorted, de-duplicated state set.
func NewEnumSet(states ...domain.State) EnumSetValue {
	s := slices.Clone(states)
	slices.Sort(s)
	return EnumSetValue{states: slices.Compact(s)}
}

// States returns the states of the set in ascending order.
func (v EnumSetValue) States() []domain.State { return slices.Clone(v.states) }

func (EnumSetValue) Type() field.ValueType { return field.EnumSet }
func (v EnumSetValue) Accept(vis Visitor)  { vis.VisitEnumSet(v) }

func (v EnumSetValue) String() string {
	names := make([]string, len(v.states))
	for i, s := range v.states {
		names[i] = s.String()
	}
	return strings.Join(names, ",")
}

// Location is a disjunction over folders, bookmarks and news bins.
type Location struct {
	FolderIDs   []int64
	BookmarkIDs []int64
	BinIDs      []int64
}

// IsEmpty reports whether the location names no container at all.
func (l Location) IsEmpty() bool {
	return len(l.FolderIDs) == 0 && len(l.BookmarkIDs) == 0 && len(l.BinIDs) == 0
}

// LocationValue is a location condition value.
type LocationValue struct {
	Location
}

// NewLocation creates a location value.
func NewLocation(folders, bookmarks, bins []int64) LocationValue {
	return LocationValue{Location{
		FolderIDs:   slices.Clone(folders),
		BookmarkIDs: slices.Clone(bookmarks),
		BinIDs:      slices.Clone(bins),
	}}
}

func (LocationValue) Type() field.ValueType { return field.Location }
func (v LocationValue) Accept(vis Visitor)  { vis.VisitLocation(v) }

func (v LocationValue) String() string {
	join := func(ids []int64) string {
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = strconv.FormatInt(id, 10)
		}
		return strings.Join(parts, ",")
	}
	return "folders[" + join(v.FolderIDs) + "] bookmarks[" + join(v.BookmarkIDs) + "] bins[" + join(v.BinIDs) + "]"
}
