package field

import "fmt"

// ValueType is the declared type of the values a field accepts.
type ValueType int

// Value types.
const (
	Boolean ValueType = iota
	String
	Link
	Integer
	Date
	EnumSet
	Location
)

var valueTypeNames = [...]string{"boolean", "string", "link", "integer", "date", "enum_set", "location"}

func (t ValueType) String() string {
	if t < 0 || int(t) >= len(valueTypeNames) {
		return fmt.Sprintf("value_type(%d)", int(t))
	}
	return valueTypeNames[t]
}

// Kind selects how the compiler turns a condition on the field into a query.
type Kind int

// Field kinds.
const (
	// Standard fields compile by value type.
	Standard Kind = iota
	// AllFields is the pseudo-field fanning out over the text fields.
	AllFields
	// AgeInDays is computed relative to the compile time.
	AgeInDays
	// LocationKind is resolved to concrete containers.
	LocationKind
	// StateKind conditions are merged into one nested group.
	StateKind
)

// Key identifies a field: the id is unique within the owning entity.
type Key struct {
	ID     int
	Entity string
}

// Field is an immutable value object describing a searchable attribute.
type Field struct {
	id        int
	entity    string
	label     string
	valueType ValueType
	kind      Kind
	indexName string
	tokenized bool
}

// New validates and creates a Standard field.
func New(id int, entity, label string, vt ValueType, indexName string, tokenized bool) (Field, error) {
	if entity == "" {
		return Field{}, fmt.Errorf("field entity is required")
	}
	if indexName == "" {
		return Field{}, fmt.Errorf("index name is required for field %d of %s", id, entity)
	}
	if vt < Boolean || vt > Location {
		return Field{}, fmt.Errorf("invalid value type %d for field %q", int(vt), label)
	}
	return Field{
		id: id, entity: entity, label: label, valueType: vt,
		kind: Standard, indexName: indexName, tokenized: tokenized,
	}, nil
}

// Reconstruct creates a Field without validation.
func Reconstruct(id int, entity, label string, vt ValueType, kind Kind, indexName string, tokenized bool) Field {
	return Field{
		id: id, entity: entity, label: label, valueType: vt,
		kind: kind, indexName: indexName, tokenized: tokenized,
	}
}

// ID returns the field id within its entity.
func (f Field) ID() int { return f.id }

// Entity returns the owning entity name.
func (f Field) Entity() string { return f.entity }

// Label returns the human-readable name.
func (f Field) Label() string { return f.label }

// ValueType returns the declared value type.
func (f Field) ValueType() ValueType { return f.valueType }

// Kind returns the compilation kind.
func (f Field) Kind() Kind { return f.kind }

// IndexName returns the name of the field in the index documents.
func (f Field) IndexName() string { return f.indexName }

// Tokenized reports whether the field is analyzed into lowercase tokens.
func (f Field) Tokenized() bool { return f.tokenized }

// Key returns the identity of the field.
func (f Field) Key() Key { return Key{ID: f.id, Entity: f.entity} }

// Equal compares fields by identity.
func (f Field) Equal(other Field) bool { return f.Key() == other.Key() }

func (f Field) String() string { return fmt.Sprintf("%s.%s", f.entity, f.label) }
