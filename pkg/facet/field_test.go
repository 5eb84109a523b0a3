package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField_Validate(t *testing.T) {
	assert.NoError(t, Field{Name: "genre", Type: FieldString}.Validate())
	assert.Error(t, Field{Type: FieldString}.Validate())
	assert.Error(t, Field{Name: "x", Type: "blob"}.Validate())

	rel := &Relation{Collection: "authors", LabelField: "name"}
	assert.NoError(t, Field{Name: "author", Type: FieldRelation, Relation: rel}.Validate())
	assert.Error(t, Field{Name: "author", Type: FieldRelation}.Validate())
	assert.Error(t, Field{Name: "genre", Type: FieldString, Relation: rel}.Validate())
}

func TestField_DisplayTitle(t *testing.T) {
	assert.Equal(t, "Genre", Field{Name: "genre", Title: "Genre"}.DisplayTitle())
	assert.Equal(t, "genre", Field{Name: "genre"}.DisplayTitle())
}

func TestSchema_Field_DottedLookup(t *testing.T) {
	s := bookSchema()

	f, ok := s.Field("genre")
	require.True(t, ok)
	assert.Equal(t, "genre", f.Name)

	// Dotted lookups resolve by their root segment
	f, ok = s.Field("genre.id")
	require.True(t, ok)
	assert.Equal(t, "genre", f.Name)

	_, ok = s.Field("rating")
	assert.False(t, ok)
}

func TestSchema_Validate(t *testing.T) {
	assert.NoError(t, bookSchema().Validate())
	assert.Error(t, Schema{Fields: map[string]Field{}}.Validate())
	assert.Error(t, Schema{
		Collection: "books",
		Fields:     map[string]Field{"genre": {Name: "other", Type: FieldString}},
	}.Validate())
}
