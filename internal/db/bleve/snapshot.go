package bleve

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/collector"
	index "github.com/blevesearch/bleve_index_api"

	"github.com/kailas-cloud/feedsearch/internal/db"
	"github.com/kailas-cloud/feedsearch/internal/domain/search/query"
)

// Compile-time check: Snapshot implements db.Snapshot.
var _ db.Snapshot = (*Snapshot)(nil)

// Snapshot is a point-in-time reader over the index. Writes committed after
// it was opened are invisible to it.
type Snapshot struct {
	reader    index.IndexReader
	mapping   mapping.IndexMapping
	closeOnce sync.Once
	closeErr  error
}

func newSnapshot(r index.IndexReader, m mapping.IndexMapping) *Snapshot {
	return &Snapshot{reader: r, mapping: m}
}

func (s *Snapshot) sameReader(other *Snapshot) bool {
	return other != nil && s.reader == other.reader
}

// Search runs req against the snapshot. Hits are ordered by descending score,
// then by internal document order.
func (s *Snapshot) Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResult, error) {
	if req.MaxClauseCount > 0 {
		if n := query.MaxGroupSize(req.Query); n > req.MaxClauseCount {
			return nil, &db.Error{
				Op:  db.OpSearch,
				Err: fmt.Errorf("%w: group of %d exceeds %d", db.ErrTooManyClauses, n, req.MaxClauseCount),
			}
		}
	}

	q, err := translate(req.Query)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	opts := search.SearcherOptions{}
	if !req.Score {
		opts.Score = "none"
	}
	searcher, err := q.Searcher(ctx, s.reader, s.mapping, opts)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: mapSearchErr(err)}
	}
	defer func() { _ = searcher.Close() }()

	size, err := s.collectSize(req.Limit)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	coll := collector.NewTopNCollector(size, 0, search.SortOrder{&search.SortScore{Desc: true}})
	if err := coll.Collect(ctx, searcher, s.reader); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: mapSearchErr(err)}
	}

	hits := coll.Results()
	res := &db.SearchResult{
		Total:   int(coll.Total()),
		Entries: make([]db.SearchEntry, 0, len(hits)),
	}
	for _, hit := range hits {
		entry := db.SearchEntry{Key: hit.ID}
		if req.Score {
			entry.Score = hit.Score
		}
		if len(req.Fields) > 0 {
			fields, err := s.storedFields(hit.ID, req.Fields)
			if err != nil {
				return nil, &db.Error{Op: db.OpDocument, Err: err}
			}
			entry.Fields = fields
		}
		res.Entries = append(res.Entries, entry)
	}
	return res, nil
}

func (s *Snapshot) collectSize(limit int) (int, error) {
	if limit > 0 {
		return limit, nil
	}
	n, err := s.reader.DocCount()
	if err != nil {
		return 0, err
	}
	return max(int(n), 1), nil
}

func (s *Snapshot) storedFields(id string, names []string) (map[string]string, error) {
	doc, err := s.reader.Document(id)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	out := make(map[string]string, len(names))
	if doc == nil {
		return out, nil
	}
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	doc.VisitFields(func(f index.Field) {
		if _, ok := want[f.Name()]; ok {
			out[f.Name()] = string(f.Value())
		}
	})
	return out, nil
}

// ids lists the external IDs of every document in the snapshot.
func (s *Snapshot) ids() ([]string, error) {
	it, err := s.reader.DocIDReaderAll()
	if err != nil {
		return nil, err
	}
	defer func() { _ = it.Close() }()

	var out []string
	for {
		internal, err := it.Next()
		if err != nil {
			return nil, err
		}
		if internal == nil {
			return out, nil
		}
		id, err := s.reader.ExternalID(internal)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
}

// DocCount returns the number of documents visible to the snapshot.
func (s *Snapshot) DocCount() (uint64, error) {
	n, err := s.reader.DocCount()
	if err != nil {
		return 0, &db.Error{Op: db.OpSnapshot, Err: err}
	}
	return n, nil
}

// Close releases the reader. Safe to call more than once.
func (s *Snapshot) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.reader.Close()
	})
	return s.closeErr
}

func mapSearchErr(err error) error {
	if strings.Contains(err.Error(), "TooManyClauses") {
		return fmt.Errorf("%w: %v", db.ErrTooManyClauses, err)
	}
	return err
}
