package bleve

import (
	"fmt"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"
)

// Analyzer tokenizes text exactly the way text fields are indexed.
type Analyzer struct {
	analyzer analysis.Analyzer
}

// NewTextAnalyzer returns the analyzer applied to text fields.
func NewTextAnalyzer() (*Analyzer, error) {
	a, err := registry.NewCache().AnalyzerNamed(TextAnalyzerName)
	if err != nil {
		return nil, fmt.Errorf("load analyzer %s: %w", TextAnalyzerName, err)
	}
	return &Analyzer{analyzer: a}, nil
}

// Tokens returns the index terms text produces. Stop words yield nothing.
func (a *Analyzer) Tokens(text string) []string {
	stream := a.analyzer.Analyze([]byte(text))
	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		out = append(out, string(tok.Term))
	}
	return out
}
