package bleve

import (
	"fmt"
	"regexp"
	"strings"

	bq "github.com/blevesearch/bleve/v2/search/query"

	"github.com/kailas-cloud/feedsearch/internal/db"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/query"
)

// translate converts an engine-neutral query tree into a bleve query.
// An empty group and a group of prohibited clauses only match nothing.
func translate(q query.Query) (bq.Query, error) {
	switch n := q.(type) {
	case nil:
		return bq.NewMatchNoneQuery(), nil
	case *query.Boolean:
		return translateBoolean(n)
	case query.Term:
		t := bq.NewTermQuery(n.Term)
		t.SetField(n.Field)
		return t, nil
	case query.Wildcard:
		return translateWildcard(n), nil
	case query.Phrase:
		p := bq.NewMatchPhraseQuery(n.Text)
		p.SetField(n.Field)
		return p, nil
	case query.Range:
		lo, hi := n.IncludeLower, n.IncludeUpper
		r := bq.NewTermRangeInclusiveQuery(n.Lower, n.Upper, &lo, &hi)
		r.SetField(n.Field)
		return r, nil
	case query.Fuzzy:
		f := bq.NewFuzzyQuery(n.Term)
		f.SetField(n.Field)
		f.SetFuzziness(n.Fuzziness)
		return f, nil
	case query.MatchAll:
		return bq.NewMatchAllQuery(), nil
	case query.MatchNone:
		return bq.NewMatchNoneQuery(), nil
	default:
		return nil, fmt.Errorf("%w: %T", db.ErrUnsupported, q)
	}
}

func translateBoolean(b *query.Boolean) (bq.Query, error) {
	if b == nil || b.IsEmpty() || b.OnlyProhibited() {
		return bq.NewMatchNoneQuery(), nil
	}

	var must, should, mustNot []bq.Query
	for _, c := range b.Clauses {
		sub, err := translate(c.Query)
		if err != nil {
			return nil, err
		}
		switch c.Occur {
		case query.Must:
			must = append(must, sub)
		case query.Should:
			should = append(should, sub)
		case query.MustNot:
			mustNot = append(mustNot, sub)
		}
	}
	return bq.NewBooleanQuery(must, should, mustNot), nil
}

// translateWildcard honors backslash escapes, which the engine's wildcard
// syntax lacks, by falling back to an equivalent anchored regexp.
func translateWildcard(w query.Wildcard) bq.Query {
	if !strings.Contains(w.Pattern, `\`) {
		q := bq.NewWildcardQuery(w.Pattern)
		q.SetField(w.Field)
		return q
	}
	q := bq.NewRegexpQuery(wildcardToRegexp(w.Pattern))
	q.SetField(w.Field)
	return q
}

func wildcardToRegexp(pattern string) string {
	var sb strings.Builder
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			sb.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '*':
			sb.WriteString(".*")
		case r == '?':
			sb.WriteByte('.')
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	if escaped {
		sb.WriteString(regexp.QuoteMeta(`\`))
	}
	return sb.String()
}
