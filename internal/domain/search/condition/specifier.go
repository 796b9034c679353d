package condition

import (
	"fmt"
	"strings"
)

// Specifier is the comparison a condition applies to its field.
type Specifier int

// Specifiers.
const (
	Is Specifier = iota
	IsNot
	Contains
	ContainsAll
	ContainsNot
	BeginsWith
	EndsWith
	IsGreaterThan
	IsLessThan
	IsAfter
	IsBefore
	SimilarTo
)

var specifierNames = [...]string{
	"is", "is_not", "contains", "contains_all", "contains_not", "begins_with",
	"ends_with", "is_greater_than", "is_less_than", "is_after", "is_before", "similar_to",
}

func (s Specifier) String() string {
	if s < 0 || int(s) >= len(specifierNames) {
		return fmt.Sprintf("specifier(%d)", int(s))
	}
	return specifierNames[s]
}

// IsNegation reports whether the specifier excludes matches.
func (s Specifier) IsNegation() bool { return s == IsNot || s == ContainsNot }

// ParseSpecifier parses the snake_case specifier name.
func ParseSpecifier(s string) (Specifier, error) {
	for i, name := range specifierNames {
		if strings.EqualFold(name, s) {
			return Specifier(i), nil
		}
	}
	return 0, fmt.Errorf("unknown specifier %q", s)
}
