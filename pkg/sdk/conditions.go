package feedsearch

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/feedsearch/internal/domain"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/condition"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/field"
)

// Condition is a predicate over one news field.
//
// Field is the index field name ("title", "publish_date", "state", "_all" for
// every text field). Specifier is one of is, is_not, contains, contains_all,
// contains_not, begins_with, ends_with, is_greater_than, is_less_than,
// is_after, is_before, similar_to. Value must fit the field:
//
//	text and link fields   string
//	rating, age            int or int64
//	flagged                bool
//	dates                  time.Time
//	state                  State or []State
//	location               Location
type Condition struct {
	Field     string
	Specifier string
	Value     any
}

// Where creates a condition.
func Where(fieldName, specifier string, value any) Condition {
	return Condition{Field: fieldName, Specifier: specifier, Value: value}
}

func (c Condition) toDomain() (condition.Condition, error) {
	f, ok := field.ByIndexName(c.Field)
	if !ok {
		return condition.Condition{}, fmt.Errorf("%w: unknown field %q", domain.ErrInvalidCondition, c.Field)
	}
	spec, err := condition.ParseSpecifier(c.Specifier)
	if err != nil {
		return condition.Condition{}, fmt.Errorf("%w: %w", domain.ErrInvalidCondition, err)
	}
	v, err := valueFor(f, c.Value)
	if err != nil {
		return condition.Condition{}, fmt.Errorf("%w: %s: %w", domain.ErrInvalidCondition, c.Field, err)
	}
	return condition.New(f, spec, v)
}

func conditionsToDomain(conds []Condition) ([]condition.Condition, error) {
	out := make([]condition.Condition, 0, len(conds))
	for i, c := range conds {
		dc, err := c.toDomain()
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		out = append(out, dc)
	}
	return out, nil
}

func valueFor(f field.Field, v any) (condition.Value, error) {
	switch f.ValueType() {
	case field.String, field.Link:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		if f.ValueType() == field.Link {
			return condition.LinkValue(s), nil
		}
		return condition.TextValue(s), nil
	case field.Integer:
		switch n := v.(type) {
		case int:
			return condition.IntValue(n), nil
		case int64:
			return condition.IntValue(n), nil
		case int32:
			return condition.IntValue(n), nil
		}
		return nil, fmt.Errorf("expected integer, got %T", v)
	case field.Boolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		return condition.BoolValue(b), nil
	case field.Date:
		t, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("expected time.Time, got %T", v)
		}
		return condition.DateValue(t), nil
	case field.EnumSet:
		var states []State
		switch s := v.(type) {
		case State:
			states = []State{s}
		case []State:
			states = s
		default:
			return nil, fmt.Errorf("expected State or []State, got %T", v)
		}
		out := make([]domain.State, 0, len(states))
		for _, s := range states {
			st, err := stateToDomain(s)
			if err != nil {
				return nil, err
			}
			out = append(out, st)
		}
		return condition.NewEnumSet(out...), nil
	case field.Location:
		loc, ok := v.(Location)
		if !ok {
			return nil, fmt.Errorf("expected Location, got %T", v)
		}
		return condition.NewLocation(loc.Folders, loc.Bookmarks, loc.Bins), nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", f.ValueType())
	}
}
