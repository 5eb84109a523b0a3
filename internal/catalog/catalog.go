// Package catalog holds the declared collections: which fields documents
// carry, and which of them are exposed as facets.
package catalog

import (
	"fmt"

	"github.com/facetbase/facetd/pkg/facet"
	"github.com/facetbase/facetd/pkg/model"
)

// FieldSpec declares one document field.
type FieldSpec struct {
	Type    string            `yaml:"type" json:"type"`
	Title   string            `yaml:"title,omitempty" json:"title,omitempty"`
	Choices map[string]string `yaml:"choices,omitempty" json:"choices,omitempty"`

	// Relation settings, only for type "relation".
	Collection string `yaml:"collection,omitempty" json:"collection,omitempty"`
	LabelField string `yaml:"labelField,omitempty" json:"labelField,omitempty"`
}

// FacetSpec declares one facet binding: a document lookup exposed under a
// request parameter. Kind is optional where the field type resolves to
// exactly one filter kind.
type FacetSpec struct {
	Lookup string `yaml:"lookup" json:"lookup"`
	Param  string `yaml:"param,omitempty" json:"param,omitempty"`
	Kind   string `yaml:"kind,omitempty" json:"kind,omitempty"`
}

// CollectionSpec declares one collection with its fields and facets.
type CollectionSpec struct {
	Fields      map[string]FieldSpec `yaml:"fields" json:"fields"`
	Facets      []FacetSpec          `yaml:"facets" json:"facets"`
	Single      bool                 `yaml:"single,omitempty" json:"single,omitempty"`
	SortByUsage bool                 `yaml:"sortByUsage,omitempty" json:"sortByUsage,omitempty"`
}

// Catalog maps collection names to their specs.
type Catalog map[string]CollectionSpec

// Collection returns the spec of a collection.
func (c Catalog) Collection(name string) (CollectionSpec, error) {
	spec, ok := c[name]
	if !ok {
		return CollectionSpec{}, fmt.Errorf("%w: %s", model.ErrUnknownCollection, name)
	}
	return spec, nil
}

// Schema converts the field specs into a facet schema.
func (s CollectionSpec) Schema(collection string) (facet.Schema, error) {
	fields := make(map[string]facet.Field, len(s.Fields))
	for name, fs := range s.Fields {
		f := facet.Field{
			Name:    name,
			Type:    facet.FieldType(fs.Type),
			Title:   fs.Title,
			Choices: fs.Choices,
		}
		if f.Type == facet.FieldRelation {
			f.Relation = &facet.Relation{
				Collection: fs.Collection,
				LabelField: fs.LabelField,
			}
		}
		fields[name] = f
	}
	schema := facet.Schema{Collection: collection, Fields: fields}
	if err := schema.Validate(); err != nil {
		return facet.Schema{}, err
	}
	return schema, nil
}

// Bindings converts the facet specs into facet bindings.
func (s CollectionSpec) Bindings() []facet.Binding {
	bindings := make([]facet.Binding, 0, len(s.Facets))
	for _, fs := range s.Facets {
		bindings = append(bindings, facet.Binding{
			Lookup: fs.Lookup,
			Param:  fs.Param,
			Kind:   fs.Kind,
		})
	}
	return bindings
}

// Validate checks every collection at startup: field specs must be
// well-formed and every facet binding must resolve to exactly one filter
// kind. A binding whose field type is claimed by more than one kind is a
// configuration error and must name the kind explicitly.
func (c Catalog) Validate(registry *facet.Registry) error {
	for name, spec := range c {
		schema, err := spec.Schema(name)
		if err != nil {
			return fmt.Errorf("collection %q: %w", name, err)
		}
		for _, fs := range spec.Facets {
			field, ok := schema.Field(fs.Lookup)
			if !ok {
				return fmt.Errorf("collection %q, facet %q: %w", name, fs.Lookup, facet.ErrUnknownField)
			}
			if _, err := registry.Resolve(field, fs.Kind); err != nil {
				return fmt.Errorf("collection %q, facet %q: %w", name, fs.Lookup, err)
			}
		}
	}
	return nil
}
