package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/facetbase/facetd/pkg/facet"
	"github.com/facetbase/facetd/pkg/model"
)

func testCatalog() Catalog {
	return Catalog{
		"books": CollectionSpec{
			Fields: map[string]FieldSpec{
				"title":     {Type: "string", Title: "Title"},
				"genre":     {Type: "string", Choices: map[string]string{"scifi": "Science Fiction"}},
				"inStock":   {Type: "bool"},
				"published": {Type: "date"},
				"author":    {Type: "relation", Collection: "authors", LabelField: "name"},
			},
			Facets: []FacetSpec{
				{Lookup: "genre"},
				{Lookup: "inStock", Param: "stock"},
				{Lookup: "published", Kind: "date_drilldown"},
				{Lookup: "author"},
			},
		},
		"authors": CollectionSpec{
			Fields: map[string]FieldSpec{
				"name": {Type: "string"},
			},
			Facets: []FacetSpec{
				{Lookup: "name", Kind: "alphabetic"},
			},
		},
	}
}

func TestCatalog_Collection(t *testing.T) {
	c := testCatalog()

	spec, err := c.Collection("books")
	require.NoError(t, err)
	assert.Len(t, spec.Fields, 5)

	_, err = c.Collection("missing")
	assert.ErrorIs(t, err, model.ErrUnknownCollection)
}

func TestCollectionSpec_Schema(t *testing.T) {
	spec, err := testCatalog().Collection("books")
	require.NoError(t, err)

	schema, err := spec.Schema("books")
	require.NoError(t, err)
	assert.Equal(t, "books", schema.Collection)

	genre, ok := schema.Field("genre")
	require.True(t, ok)
	assert.Equal(t, facet.FieldString, genre.Type)
	assert.Equal(t, "Science Fiction", genre.Choices["scifi"])

	author, ok := schema.Field("author")
	require.True(t, ok)
	assert.Equal(t, facet.FieldRelation, author.Type)
	require.NotNil(t, author.Relation)
	assert.Equal(t, "authors", author.Relation.Collection)
	assert.Equal(t, "name", author.Relation.LabelField)
}

func TestCollectionSpec_Schema_Invalid(t *testing.T) {
	spec := CollectionSpec{
		Fields: map[string]FieldSpec{
			"broken": {Type: "relation"}, // relation without a target collection
		},
	}
	_, err := spec.Schema("books")
	assert.Error(t, err)
}

func TestCollectionSpec_Bindings(t *testing.T) {
	spec, err := testCatalog().Collection("books")
	require.NoError(t, err)

	bindings := spec.Bindings()
	require.Len(t, bindings, 4)
	assert.Equal(t, "genre", bindings[0].Lookup)
	assert.Equal(t, "stock", bindings[1].Param)
	assert.Equal(t, "date_drilldown", bindings[2].Kind)
}

func TestCatalog_Validate(t *testing.T) {
	registry := facet.DefaultRegistry()

	assert.NoError(t, testCatalog().Validate(registry))

	unknownField := testCatalog()
	spec := unknownField["books"]
	spec.Facets = append(spec.Facets, FacetSpec{Lookup: "rating"})
	unknownField["books"] = spec
	err := unknownField.Validate(registry)
	assert.ErrorIs(t, err, facet.ErrUnknownField)

	// A date facet without an explicit kind matches both date kinds
	ambiguous := testCatalog()
	spec = ambiguous["books"]
	spec.Facets = []FacetSpec{{Lookup: "published"}}
	ambiguous["books"] = spec
	err = ambiguous.Validate(registry)
	assert.ErrorIs(t, err, facet.ErrAmbiguousKind)

	unknownKind := testCatalog()
	spec = unknownKind["books"]
	spec.Facets = []FacetSpec{{Lookup: "genre", Kind: "nope"}}
	unknownKind["books"] = spec
	assert.Error(t, unknownKind.Validate(registry))
}

func TestCatalog_YAML(t *testing.T) {
	raw := `
books:
  single: true
  sortByUsage: true
  fields:
    genre:
      type: string
      title: Genre
    published:
      type: date
  facets:
    - lookup: genre
    - lookup: published
      param: year
      kind: date_drilldown
`
	var c Catalog
	require.NoError(t, yaml.Unmarshal([]byte(raw), &c))

	spec, err := c.Collection("books")
	require.NoError(t, err)
	assert.True(t, spec.Single)
	assert.True(t, spec.SortByUsage)
	assert.Equal(t, "Genre", spec.Fields["genre"].Title)
	require.Len(t, spec.Facets, 2)
	assert.Equal(t, "year", spec.Facets[1].Param)

	assert.NoError(t, c.Validate(facet.DefaultRegistry()))
}
