package search

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/feedsearch/internal/domain/search/condition"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/encoding"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/field"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/query"
)

const (
	// minPrefixLen is the shortest stem honoured as a prefix pattern inside CONTAINS.
	minPrefixLen = 2
	// shortTermLen is the longest token matched with edit distance 1 by SIMILAR_TO.
	shortTermLen = 5
)

func (c *Compiler) compileStandard(_ context.Context, cond condition.Condition) (query.Query, error) {
	return c.standardQuery(cond), nil
}

func (c *Compiler) standardQuery(cond condition.Condition) query.Query {
	if cond.Value() == nil {
		return nil
	}
	if cond.Value().Type() != cond.Field().ValueType() {
		return c.degrade(cond)
	}
	b := standardBuilder{c: c, field: cond.Field(), spec: positive(cond.Specifier())}
	cond.Value().Accept(&b)
	return b.out
}

// standardBuilder dispatches a standard field condition on its value variant.
type standardBuilder struct {
	c     *Compiler
	field field.Field
	spec  condition.Specifier
	out   query.Query
}

func (b *standardBuilder) VisitBool(v condition.BoolValue) {
	b.out = query.Term{Field: b.field.IndexName(), Term: encoding.Bool(bool(v))}
}

func (b *standardBuilder) VisitText(v condition.TextValue) {
	b.out = b.c.textQuery(b.field, b.spec, string(v))
}

func (b *standardBuilder) VisitLink(v condition.LinkValue) {
	b.out = b.c.textQuery(b.field, b.spec, string(v))
}

func (b *standardBuilder) VisitInt(v condition.IntValue) {
	b.out = orderedQuery(b.field.IndexName(), b.spec, encoding.Int(int64(v)), encoding.IntMin, encoding.IntMax)
}

func (b *standardBuilder) VisitDate(v condition.DateValue) {
	b.out = orderedQuery(b.field.IndexName(), b.spec, encoding.Date(v.Time()), encoding.DateMin, encoding.DateMax)
}

func (b *standardBuilder) VisitEnumSet(v condition.EnumSetValue) {
	b.out = anyState(b.field.IndexName(), v.States())
}

// VisitLocation is unreachable for standard fields: no standard field
// declares the location type, so such values are degraded before dispatch.
func (b *standardBuilder) VisitLocation(condition.LocationValue) {
	b.out = query.MatchNone{}
}

// orderedQuery compiles a comparison in a fixed-width term space bounded by lo and hi.
func orderedQuery(name string, spec condition.Specifier, term, lo, hi string) query.Query {
	switch spec {
	case condition.IsGreaterThan, condition.IsAfter:
		return query.Range{Field: name, Lower: term, Upper: hi}
	case condition.IsLessThan, condition.IsBefore:
		return query.Range{Field: name, Lower: lo, Upper: term}
	default:
		return query.Term{Field: name, Term: term}
	}
}

func (c *Compiler) textQuery(f field.Field, spec condition.Specifier, value string) query.Query {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	name := f.IndexName()
	switch spec {
	case condition.Contains, condition.ContainsAll:
		return c.containsQuery(f, value, spec == condition.ContainsAll)
	case condition.BeginsWith:
		return c.anchoredQuery(f, value, false)
	case condition.EndsWith:
		return c.anchoredQuery(f, value, true)
	case condition.IsGreaterThan, condition.IsAfter:
		return query.Range{Field: name, Lower: fold(f, unescape(value))}
	case condition.IsLessThan, condition.IsBefore:
		return query.Range{Field: name, Upper: fold(f, unescape(value))}
	case condition.SimilarTo:
		return c.similarQuery(f, value)
	default:
		return c.exactQuery(f, value)
	}
}

// exactQuery matches the whole value, as a pattern only when it holds an
// unescaped wildcard.
func (c *Compiler) exactQuery(f field.Field, value string) query.Query {
	if hasUnescapedWildcard(value) {
		return query.Wildcard{Field: f.IndexName(), Pattern: fold(f, value)}
	}
	literal := unescape(value)
	if f.Tokenized() {
		return c.phraseOrTerm(f.IndexName(), literal)
	}
	return query.Term{Field: f.IndexName(), Term: literal}
}

// containsQuery matches the words of value. On tokenized fields each word
// is matched on its own, combined with AND for all-semantics and OR
// otherwise. A trailing * on a word of at least two characters is a prefix
// match; every other pattern character is literal.
func (c *Compiler) containsQuery(f field.Field, value string, all bool) query.Query {
	name := f.IndexName()
	if !f.Tokenized() {
		return query.Wildcard{Field: name, Pattern: "*" + escapeWildcard(unescape(value)) + "*"}
	}

	occur := query.Should
	if all {
		occur = query.Must
	}
	group := query.NewBoolean()
	for _, word := range strings.Fields(value) {
		if q := c.wordQuery(name, word); q != nil {
			group.Add(q, occur)
		}
	}
	switch len(group.Clauses) {
	case 0:
		return nil
	case 1:
		return group.Clauses[0].Query
	default:
		return group
	}
}

func (c *Compiler) wordQuery(name, word string) query.Query {
	if stem, ok := prefixStem(word); ok && utf8.RuneCountInString(stem) >= minPrefixLen {
		if tokens := c.analyzer.Tokens(stem); len(tokens) == 1 {
			return query.Wildcard{Field: name, Pattern: escapeWildcard(tokens[0]) + "*"}
		}
	}
	return c.phraseOrTerm(name, unescape(word))
}

// phraseOrTerm matches analyzed text: nothing for stop words, a term for a
// single token and a phrase otherwise.
func (c *Compiler) phraseOrTerm(name, text string) query.Query {
	tokens := c.analyzer.Tokens(text)
	switch len(tokens) {
	case 0:
		return nil
	case 1:
		return query.Term{Field: name, Term: tokens[0]}
	default:
		return query.Phrase{Field: name, Text: text}
	}
}

// anchoredQuery matches terms starting (or ending, with suffix) with value.
// On tokenized fields a multi-token value is matched as a phrase.
func (c *Compiler) anchoredQuery(f field.Field, value string, suffix bool) query.Query {
	literal := unescape(value)
	if f.Tokenized() {
		tokens := c.analyzer.Tokens(literal)
		switch len(tokens) {
		case 0:
			return nil
		case 1:
			literal = tokens[0]
		default:
			return query.Phrase{Field: f.IndexName(), Text: literal}
		}
	}
	pattern := escapeWildcard(literal)
	if suffix {
		pattern = "*" + pattern
	} else {
		pattern += "*"
	}
	return query.Wildcard{Field: f.IndexName(), Pattern: pattern}
}

func (c *Compiler) similarQuery(f field.Field, value string) query.Query {
	literal := unescape(value)
	terms := []string{literal}
	if f.Tokenized() {
		terms = c.analyzer.Tokens(literal)
	}
	disj := query.NewBoolean()
	for _, t := range terms {
		disj.Add(query.Fuzzy{Field: f.IndexName(), Term: t, Fuzziness: fuzziness(t)}, query.Should)
	}
	if disj.IsEmpty() {
		return nil
	}
	return disj
}

func fuzziness(term string) int {
	if utf8.RuneCountInString(term) <= shortTermLen {
		return 1
	}
	return 2
}

func fold(f field.Field, s string) string {
	if f.Tokenized() {
		return strings.ToLower(s)
	}
	return s
}

// compileAllFields fans the condition out over the text fields of the entity.
// CONTAINS_ALL becomes a conjunction with one disjunction per word.
func (c *Compiler) compileAllFields(_ context.Context, cond condition.Condition) (query.Query, error) {
	if cond.Value() == nil {
		return nil, nil
	}
	fields := field.TextFields(cond.Field().Entity())
	text := cond.Value().String()
	spec := positive(cond.Specifier())

	if spec != condition.ContainsAll {
		return fanOut(c, fields, cond.WithSpecifier(spec).WithValue(condition.TextValue(text))), nil
	}

	conj := query.NewBoolean()
	for _, word := range strings.Fields(text) {
		wc := cond.WithSpecifier(condition.Contains).WithValue(condition.TextValue(word))
		if disj := fanOut(c, fields, wc); disj != nil {
			conj.Add(disj, query.Must)
		}
	}
	if conj.IsEmpty() {
		return nil, nil
	}
	return conj, nil
}

func fanOut(c *Compiler, fields []field.Field, cond condition.Condition) query.Query {
	disj := query.NewBoolean()
	for _, f := range fields {
		if q := c.standardQuery(condition.Reconstruct(f, cond.Specifier(), cond.Value())); !query.IsEmpty(q) {
			disj.Add(q, query.Should)
		}
	}
	if disj.IsEmpty() {
		return nil
	}
	return disj
}

// compileAge compares the age date against now minus N days. Older than N
// days means an age date before the computed one.
func (c *Compiler) compileAge(_ context.Context, cond condition.Condition) (query.Query, error) {
	n, ok := cond.Value().(condition.IntValue)
	if !ok {
		return c.degrade(cond), nil
	}
	name := cond.Field().IndexName()
	date := encoding.DaysAgo(c.now(), int64(n))
	switch positive(cond.Specifier()) {
	case condition.IsGreaterThan:
		return query.Range{Field: name, Lower: encoding.DateMin, Upper: date}, nil
	case condition.IsLessThan:
		return query.Range{Field: name, Lower: date, Upper: encoding.DateMax}, nil
	default:
		return query.Term{Field: name, Term: date}, nil
	}
}

// compileLocation ORs the resolved container terms. A location resolving to
// nothing yields a match-none placeholder.
func (c *Compiler) compileLocation(ctx context.Context, cond condition.Condition) (query.Query, error) {
	v, ok := cond.Value().(condition.LocationValue)
	if !ok {
		return c.degrade(cond), nil
	}
	terms, err := c.resolver.ResolveLocation(ctx, v.Location)
	if err != nil {
		return nil, fmt.Errorf("resolve location: %w", err)
	}
	if len(terms) == 0 {
		return query.MatchNone{}, nil
	}
	disj := query.NewBoolean()
	for _, t := range terms {
		disj.Add(query.Term{Field: cond.Field().IndexName(), Term: t}, query.Should)
	}
	return disj, nil
}
