package bleve

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/kailas-cloud/feedsearch/internal/db"
)

// Analyzer names used by the mapping.
const (
	KeywordAnalyzerName = keyword.Name
	TextAnalyzerName    = standard.Name
)

// BuildIndexMapping converts an index definition into a static bleve mapping.
// Documents are flat maps; unmapped fields are ignored.
func BuildIndexMapping(def *db.IndexDefinition) (*mapping.IndexMappingImpl, error) {
	if def == nil {
		return nil, fmt.Errorf("index definition is required")
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid index definition: %w", err)
	}

	docMapping := bleve.NewDocumentStaticMapping()
	for _, f := range def.Fields {
		docMapping.AddFieldMappingsAt(f.Name, buildFieldMapping(f))
	}

	im := bleve.NewIndexMapping()
	im.DefaultMapping = docMapping
	im.DefaultAnalyzer = TextAnalyzerName
	im.StoreDynamic = false
	im.IndexDynamic = false

	if err := im.Validate(); err != nil {
		return nil, fmt.Errorf("validate mapping: %w", err)
	}
	return im, nil
}

func buildFieldMapping(f db.IndexField) *mapping.FieldMapping {
	fm := bleve.NewTextFieldMapping()
	fm.Store = f.Store
	fm.IncludeInAll = false
	fm.IncludeTermVectors = false
	fm.DocValues = false

	switch f.Type {
	case db.IndexFieldKeyword:
		fm.Analyzer = KeywordAnalyzerName
	case db.IndexFieldText:
		fm.Analyzer = TextAnalyzerName
		fm.IncludeTermVectors = true
	case db.IndexFieldStored:
		fm.Index = false
	}
	return fm
}
