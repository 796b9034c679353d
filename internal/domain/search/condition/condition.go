package condition

import (
	"fmt"

	"github.com/kailas-cloud/feedsearch/internal/domain"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/field"
)

// Condition is an immutable predicate over one field.
type Condition struct {
	field     field.Field
	specifier Specifier
	value     Value
}

// New validates and creates a Condition.
// The value variant must match the declared value type of the field. The
// "all fields" pseudo-field accepts text only.
func New(f field.Field, s Specifier, v Value) (Condition, error) {
	if v == nil {
		return Condition{}, fmt.Errorf("%w: value is required for %s", domain.ErrInvalidCondition, f)
	}
	if s < Is || s > SimilarTo {
		return Condition{}, fmt.Errorf("%w: invalid specifier %d", domain.ErrInvalidCondition, int(s))
	}
	if v.Type() != f.ValueType() {
		return Condition{}, fmt.Errorf("%w: %s expects %s, got %s",
			domain.ErrInvalidCondition, f, f.ValueType(), v.Type())
	}
	return Condition{field: f, specifier: s, value: v}, nil
}

// Reconstruct creates a Condition without validation (stored searches).
func Reconstruct(f field.Field, s Specifier, v Value) Condition {
	return Condition{field: f, specifier: s, value: v}
}

// Field returns the searched field.
func (c Condition) Field() field.Field { return c.field }

// Specifier returns the comparison.
func (c Condition) Specifier() Specifier { return c.specifier }

// Value returns the compared value.
func (c Condition) Value() Value { return c.value }

// WithSpecifier returns a transient copy with another specifier.
func (c Condition) WithSpecifier(s Specifier) Condition {
	c.specifier = s
	return c
}

// WithValue returns a transient copy with another value.
func (c Condition) WithValue(v Value) Condition {
	c.value = v
	return c
}

func (c Condition) String() string {
	if c.value == nil {
		return fmt.Sprintf("%s %s <nil>", c.field, c.specifier)
	}
	return fmt.Sprintf("%s %s %q", c.field, c.specifier, c.value.String())
}
