// Package facet maps request-supplied lookup parameters to query filters and
// generates selectable choices from the result set being narrowed. Filters
// compose: each active filter takes a dataset and returns a narrowed dataset,
// nothing is executed until the result is fetched.
package facet

import (
	"fmt"
	"strings"
)

// FieldType describes the kind of values a document field holds. Filter kinds
// declare which field types they are suitable for.
type FieldType string

const (
	FieldString   FieldType = "string"
	FieldBool     FieldType = "bool"
	FieldInt      FieldType = "int"
	FieldFloat    FieldType = "float"
	FieldDate     FieldType = "date" // RFC 3339 strings
	FieldRelation FieldType = "relation"
)

// IsValid checks if the field type is one of the supported kinds.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldString, FieldBool, FieldInt, FieldFloat, FieldDate, FieldRelation:
		return true
	}
	return false
}

// Relation describes the target of a relation field: the collection the
// referenced documents live in and the field used as a human-readable label.
type Relation struct {
	Collection string `yaml:"collection" json:"collection"`
	LabelField string `yaml:"label_field" json:"labelField"`
}

// Field is the metadata for a single document field. It is what filter kinds
// test suitability against and what supplies titles and explicit choice labels.
type Field struct {
	Name     string            `yaml:"-" json:"name"`
	Type     FieldType         `yaml:"type" json:"type"`
	Title    string            `yaml:"title,omitempty" json:"title,omitempty"`
	Choices  map[string]string `yaml:"choices,omitempty" json:"choices,omitempty"`
	Relation *Relation         `yaml:"relation,omitempty" json:"relation,omitempty"`
}

// DisplayTitle returns the human-readable field name.
func (f Field) DisplayTitle() string {
	if f.Title != "" {
		return f.Title
	}
	return f.Name
}

// Validate checks the field metadata for internal consistency.
func (f Field) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("field name is required")
	}
	if !f.Type.IsValid() {
		return fmt.Errorf("field %q: invalid type %q", f.Name, f.Type)
	}
	if f.Type == FieldRelation {
		if f.Relation == nil || f.Relation.Collection == "" {
			return fmt.Errorf("field %q: relation target is required", f.Name)
		}
	} else if f.Relation != nil {
		return fmt.Errorf("field %q: relation set on non-relation type %q", f.Name, f.Type)
	}
	return nil
}

// Schema holds the field metadata of one collection.
type Schema struct {
	Collection string
	Fields     map[string]Field
}

// Field resolves a lookup to its field metadata. For dotted lookups the root
// segment identifies the field ("author.id" resolves the "author" field).
func (s Schema) Field(lookup string) (Field, bool) {
	root := lookup
	if idx := strings.Index(lookup, "."); idx != -1 {
		root = lookup[:idx]
	}
	f, ok := s.Fields[root]
	return f, ok
}

// Validate checks every field in the schema.
func (s Schema) Validate() error {
	if s.Collection == "" {
		return fmt.Errorf("schema collection is required")
	}
	for name, f := range s.Fields {
		if f.Name == "" {
			f.Name = name
		}
		if f.Name != name {
			return fmt.Errorf("field %q: name mismatch (%q)", name, f.Name)
		}
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}
