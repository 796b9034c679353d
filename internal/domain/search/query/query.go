// Package query holds the engine-neutral boolean query tree produced by the
// condition compiler and translated by the index adapter.
package query

import (
	"strconv"
	"strings"
)

// Occur is the role of a clause within a boolean group.
type Occur int

// Occurrences.
const (
	Must Occur = iota
	Should
	MustNot
)

func (o Occur) String() string {
	switch o {
	case Must:
		return "MUST"
	case Should:
		return "SHOULD"
	case MustNot:
		return "MUST_NOT"
	default:
		return "OCCUR(" + strconv.Itoa(int(o)) + ")"
	}
}

// Query is a node of the query tree.
type Query interface {
	isQuery()
}

// Clause is a sub-query with its occurrence.
type Clause struct {
	Query Query
	Occur Occur
}

// Boolean combines clauses.
type Boolean struct {
	Clauses []Clause
}

// NewBoolean creates an empty boolean group.
func NewBoolean() *Boolean { return &Boolean{} }

// Add appends a clause and returns the group for chaining.
func (b *Boolean) Add(q Query, o Occur) *Boolean {
	b.Clauses = append(b.Clauses, Clause{Query: q, Occur: o})
	return b
}

// IsEmpty reports whether the group has no clauses.
func (b *Boolean) IsEmpty() bool { return len(b.Clauses) == 0 }

// OnlyProhibited reports whether every clause is MUST_NOT. Such a group
// matches nothing unless paired with a match-everything clause.
func (b *Boolean) OnlyProhibited() bool {
	if len(b.Clauses) == 0 {
		return false
	}
	for _, c := range b.Clauses {
		if c.Occur != MustNot {
			return false
		}
	}
	return true
}

// Term matches an exact indexed term.
type Term struct {
	Field string
	Term  string
}

// Wildcard matches terms against a pattern with * and ?.
type Wildcard struct {
	Field   string
	Pattern string
}

// Phrase is analyzed text whose tokens must appear adjacent and in order.
type Phrase struct {
	Field string
	Text  string
}

// Range matches terms between two lexicographically ordered bounds. An
// empty bound is open.
type Range struct {
	Field        string
	Lower        string
	Upper        string
	IncludeLower bool
	IncludeUpper bool
}

// Fuzzy matches terms within an edit distance.
type Fuzzy struct {
	Field     string
	Term      string
	Fuzziness int
}

// MatchAll matches every document.
type MatchAll struct{}

// MatchNone matches no document. Used as a well-formed placeholder.
type MatchNone struct{}

func (*Boolean) isQuery()  {}
func (Term) isQuery()      {}
func (Wildcard) isQuery()  {}
func (Phrase) isQuery()    {}
func (Range) isQuery()     {}
func (Fuzzy) isQuery()     {}
func (MatchAll) isQuery()  {}
func (MatchNone) isQuery() {}

// IsEmpty reports whether q is nil or a boolean group without clauses.
func IsEmpty(q Query) bool {
	if q == nil {
		return true
	}
	b, ok := q.(*Boolean)
	return ok && b.IsEmpty()
}

// MaxGroupSize returns the clause count of the largest boolean group in q.
func MaxGroupSize(q Query) int {
	b, ok := q.(*Boolean)
	if !ok || b == nil {
		return 0
	}
	largest := len(b.Clauses)
	for _, c := range b.Clauses {
		if n := MaxGroupSize(c.Query); n > largest {
			largest = n
		}
	}
	return largest
}

// String renders q in a Lucene-like syntax for logs and debugging.
func String(q Query) string {
	var sb strings.Builder
	write(&sb, q)
	return sb.String()
}

func write(sb *strings.Builder, q Query) {
	switch n := q.(type) {
	case nil:
		sb.WriteString("<nil>")
	case *Boolean:
		sb.WriteByte('(')
		for i, c := range n.Clauses {
			if i > 0 {
				sb.WriteByte(' ')
			}
			switch c.Occur {
			case Must:
				sb.WriteByte('+')
			case MustNot:
				sb.WriteByte('-')
			}
			write(sb, c.Query)
		}
		sb.WriteByte(')')
	case Term:
		sb.WriteString(n.Field + ":" + strconv.Quote(n.Term))
	case Wildcard:
		sb.WriteString(n.Field + ":" + n.Pattern)
	case Phrase:
		sb.WriteString(n.Field + ":" + strconv.Quote(n.Text) + "~phrase")
	case Range:
		lo, hi := "{", "}"
		if n.IncludeLower {
			lo = "["
		}
		if n.IncludeUpper {
			hi = "]"
		}
		sb.WriteString(n.Field + ":" + lo + n.Lower + " TO " + n.Upper + hi)
	case Fuzzy:
		sb.WriteString(n.Field + ":" + n.Term + "~" + strconv.Itoa(n.Fuzziness))
	case MatchAll:
		sb.WriteString("*:*")
	case MatchNone:
		sb.WriteString("<none>")
	}
}
