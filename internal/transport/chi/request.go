package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/feedsearch/internal/domain"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/condition"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/field"
)

var validate = validator.New()

// searchRequest is the body of POST /v1/search.
type searchRequest struct {
	// MatchAll selects conjunction; nil defaults to true.
	MatchAll   *bool          `json:"match_all"`
	Conditions []conditionDTO `json:"conditions" validate:"max=10000,dive"`
}

// conditionDTO is a condition on the wire. Value is decoded according to the
// value type of the named field.
type conditionDTO struct {
	Field     string          `json:"field" validate:"required"`
	Specifier string          `json:"specifier" validate:"required"`
	Value     json.RawMessage `json:"value" validate:"required"`
}

// locationDTO is the wire form of a location value.
type locationDTO struct {
	Folders   []int64 `json:"folders"`
	Bookmarks []int64 `json:"bookmarks"`
	Bins      []int64 `json:"bins"`
}

func (req *searchRequest) toConditions() ([]condition.Condition, bool, error) {
	if err := validate.Struct(req); err != nil {
		return nil, false, fmt.Errorf("%w: %s", domain.ErrInvalidCondition, describeValidation(err))
	}

	matchAll := true
	if req.MatchAll != nil {
		matchAll = *req.MatchAll
	}

	conds := make([]condition.Condition, 0, len(req.Conditions))
	for i, dto := range req.Conditions {
		c, err := dto.toCondition()
		if err != nil {
			return nil, false, fmt.Errorf("conditions[%d]: %w", i, err)
		}
		conds = append(conds, c)
	}
	return conds, matchAll, nil
}

func (dto conditionDTO) toCondition() (condition.Condition, error) {
	f, ok := field.ByIndexName(dto.Field)
	if !ok {
		return condition.Condition{}, fmt.Errorf("%w: unknown field %q", domain.ErrInvalidCondition, dto.Field)
	}
	spec, err := condition.ParseSpecifier(dto.Specifier)
	if err != nil {
		return condition.Condition{}, fmt.Errorf("%w: %w", domain.ErrInvalidCondition, err)
	}
	v, err := decodeValue(f, dto.Value)
	if err != nil {
		return condition.Condition{}, fmt.Errorf("%w: %s: %w", domain.ErrInvalidCondition, f.IndexName(), err)
	}
	return condition.New(f, spec, v)
}

func decodeValue(f field.Field, raw json.RawMessage) (condition.Value, error) {
	switch f.ValueType() {
	case field.String:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, errors.New("expected a string")
		}
		return condition.TextValue(s), nil
	case field.Link:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, errors.New("expected a link string")
		}
		return condition.LinkValue(s), nil
	case field.Integer:
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, errors.New("expected an integer")
		}
		return condition.IntValue(n), nil
	case field.Boolean:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, errors.New("expected a boolean")
		}
		return condition.BoolValue(b), nil
	case field.Date:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, errors.New("expected a date string")
		}
		t, err := parseDate(s)
		if err != nil {
			return nil, err
		}
		return condition.DateValue(t), nil
	case field.EnumSet:
		var names []string
		if err := json.Unmarshal(raw, &names); err != nil {
			return nil, errors.New("expected a list of states")
		}
		states := make([]domain.State, 0, len(names))
		for _, name := range names {
			st, err := domain.ParseState(name)
			if err != nil {
				return nil, err
			}
			states = append(states, st)
		}
		return condition.NewEnumSet(states...), nil
	case field.Location:
		var loc locationDTO
		if err := json.Unmarshal(raw, &loc); err != nil {
			return nil, errors.New("expected a location object")
		}
		return condition.NewLocation(loc.Folders, loc.Bookmarks, loc.Bins), nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", f.ValueType())
	}
}

// parseDate accepts RFC 3339 timestamps and plain calendar dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed date %q", s)
	}
	return t, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
