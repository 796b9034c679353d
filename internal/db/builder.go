package db

import "strings"

// IndexBuilder is a fluent builder for index definitions.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building an index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Keyword adds an exact-match field.
func (b *IndexBuilder) Keyword(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Type: IndexFieldKeyword})
	return b
}

// StoredKeyword adds an exact-match field whose value is returned with hits.
func (b *IndexBuilder) StoredKeyword(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Type: IndexFieldKeyword, Store: true})
	return b
}

// Text adds an analyzed full-text field.
func (b *IndexBuilder) Text(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Type: IndexFieldText})
	return b
}

// Stored adds a field kept for retrieval only.
func (b *IndexBuilder) Stored(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Type: IndexFieldStored, Store: true})
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return &b.def, nil
}

// MustBuild calls Build and panics on error.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// String returns a compact debug representation of the schema.
func (idx *IndexDefinition) String() string {
	parts := []string{"INDEX", idx.Name, "SCHEMA"}
	for i := range idx.Fields {
		f := &idx.Fields[i]
		parts = append(parts, f.Name)
		switch f.Type {
		case IndexFieldKeyword:
			parts = append(parts, "KEYWORD")
		case IndexFieldText:
			parts = append(parts, "TEXT")
		case IndexFieldStored:
			parts = append(parts, "STORED")
		}
		if f.Store && f.Type != IndexFieldStored {
			parts = append(parts, "STORE")
		}
	}
	return strings.Join(parts, " ")
}
