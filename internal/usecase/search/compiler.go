// Package search compiles search conditions into query trees, runs them
// against leased index views and coordinates the index admin operations.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/feedsearch/internal/domain"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/condition"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/field"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/query"
)

// strategy compiles the positive form of a condition; negation is applied
// by the clause occurrence. A nil query means the condition constrains nothing.
type strategy func(ctx context.Context, cond condition.Condition) (query.Query, error)

// Compiler turns a set of conditions into a boolean query tree.
type Compiler struct {
	analyzer   Analyzer
	resolver   LocationResolver
	now        func() time.Time
	logger     *zap.Logger
	strategies map[field.Kind]strategy
}

// NewCompiler creates a compiler. The analyzer must match the one applied to
// text fields at index time.
func NewCompiler(analyzer Analyzer, resolver LocationResolver, logger *zap.Logger) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Compiler{
		analyzer: analyzer,
		resolver: resolver,
		now:      time.Now,
		logger:   logger,
	}
	c.strategies = map[field.Kind]strategy{
		field.Standard:     c.compileStandard,
		field.AllFields:    c.compileAllFields,
		field.AgeInDays:    c.compileAge,
		field.LocationKind: c.compileLocation,
	}
	return c
}

// Compile builds the query for conds. With matchAll every condition must
// hold, otherwise any of them. The only side effect is location resolution.
func (c *Compiler) Compile(ctx context.Context, conds []condition.Condition, matchAll bool) (query.Query, error) {
	var states, others []condition.Condition
	for _, cond := range conds {
		if cond.Field().Kind() == field.StateKind {
			states = append(states, cond)
		} else {
			others = append(others, cond)
		}
	}

	root := query.NewBoolean()
	if group := c.stateGroup(states, matchAll); group != nil {
		root.Add(group, occurrence(condition.Is, matchAll))
	}

	for _, cond := range others {
		s, ok := c.strategies[cond.Field().Kind()]
		if !ok {
			return nil, fmt.Errorf("%w: field %s has no compilation strategy", domain.ErrInvalidCondition, cond.Field())
		}
		clause, err := s(ctx, cond)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", cond, err)
		}
		attach(root, clause, cond.Specifier().IsNegation(), matchAll)
	}

	if root.OnlyProhibited() {
		root.Add(query.MatchAll{}, query.Must)
	}
	return root, nil
}

// stateGroup merges all state conditions into one nested group so required
// and forbidden states combine within it.
func (c *Compiler) stateGroup(conds []condition.Condition, matchAll bool) *query.Boolean {
	if len(conds) == 0 {
		return nil
	}
	group := query.NewBoolean()
	for _, cond := range conds {
		attach(group, c.stateClause(cond), cond.Specifier().IsNegation(), matchAll)
	}
	if group.IsEmpty() {
		return nil
	}
	if group.OnlyProhibited() {
		group.Add(query.MatchAll{}, query.Must)
	}
	return group
}

func (c *Compiler) stateClause(cond condition.Condition) query.Query {
	v, ok := cond.Value().(condition.EnumSetValue)
	if !ok {
		return c.degrade(cond)
	}
	return anyState(cond.Field().IndexName(), v.States())
}

func anyState(name string, states []domain.State) query.Query {
	if len(states) == 0 {
		return nil
	}
	disj := query.NewBoolean()
	for _, s := range states {
		disj.Add(query.Term{Field: name, Term: s.String()}, query.Should)
	}
	return disj
}

// occurrence maps a specifier to the role of its clause.
func occurrence(s condition.Specifier, matchAll bool) query.Occur {
	switch {
	case s.IsNegation():
		return query.MustNot
	case matchAll:
		return query.Must
	default:
		return query.Should
	}
}

// attach adds clause to group. Empty clauses are dropped. A negated clause
// in "match any" mode is nested with a match-all so it contributes the
// complement to the union instead of vetoing every other clause.
func attach(group *query.Boolean, clause query.Query, negated, matchAll bool) {
	if query.IsEmpty(clause) {
		return
	}
	if negated && !matchAll {
		nested := query.NewBoolean().
			Add(clause, query.MustNot).
			Add(query.MatchAll{}, query.Must)
		group.Add(nested, query.Should)
		return
	}
	s := condition.Is
	if negated {
		s = condition.IsNot
	}
	group.Add(clause, occurrence(s, matchAll))
}

// positive strips the negation from a specifier.
func positive(s condition.Specifier) condition.Specifier {
	switch s {
	case condition.IsNot:
		return condition.Is
	case condition.ContainsNot:
		return condition.Contains
	default:
		return s
	}
}

// degrade compiles a condition whose value does not fit its field into an
// exact term on the value's lexical form.
func (c *Compiler) degrade(cond condition.Condition) query.Query {
	if cond.Value() == nil {
		return nil
	}
	f := cond.Field()
	term := cond.Value().String()
	if f.Tokenized() {
		term = strings.ToLower(term)
	}
	c.logger.Warn("Condition value does not match field type, falling back to exact term",
		zap.Stringer("field", f),
		zap.Stringer("declared", f.ValueType()),
		zap.Stringer("actual", cond.Value().Type()),
	)
	return query.Term{Field: f.IndexName(), Term: term}
}
