package facet

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facetbase/facetd/pkg/model"
)

func bookSchema() Schema {
	return Schema{
		Collection: "books",
		Fields: map[string]Field{
			"genre":     {Name: "genre", Type: FieldString, Title: "Genre"},
			"inStock":   {Name: "inStock", Type: FieldBool, Title: "In stock"},
			"published": {Name: "published", Type: FieldDate, Title: "Published"},
		},
	}
}

func bookBindings() []Binding {
	return []Binding{
		{Lookup: "genre"},
		{Lookup: "inStock", Param: "stock"},
		{Lookup: "published", Kind: "date_drilldown"},
	}
}

func newBookList(t *testing.T, values url.Values, opts Options) *List {
	t.Helper()
	l, err := NewList(newFakeDataset(bookDocs()), bookSchema(), DefaultRegistry(), bookBindings(), values, opts)
	require.NoError(t, err)
	return l
}

func TestNewList_Errors(t *testing.T) {
	ds := newFakeDataset(nil)
	schema := bookSchema()
	reg := DefaultRegistry()

	_, err := NewList(ds, schema, reg, []Binding{{}}, nil, Options{})
	assert.ErrorContains(t, err, "empty lookup")

	_, err = NewList(ds, schema, reg, []Binding{{Lookup: "genre"}, {Lookup: "genre"}}, nil, Options{})
	assert.ErrorContains(t, err, "duplicate binding")

	_, err = NewList(ds, schema, reg, []Binding{{Lookup: "rating"}}, nil, Options{})
	assert.ErrorIs(t, err, ErrUnknownField)

	// A date binding without an explicit kind is a configuration error
	_, err = NewList(ds, schema, reg, []Binding{{Lookup: "published"}}, nil, Options{})
	assert.ErrorIs(t, err, ErrAmbiguousKind)

	// An active filter with an invalid value fails list construction
	_, err = NewList(ds, schema, reg, bookBindings(), url.Values{"stock": {"maybe"}}, Options{})
	assert.Error(t, err)
}

func TestList_ActiveAndEncode(t *testing.T) {
	l := newBookList(t, url.Values{"genre": {"scifi"}, "stock": {"true"}}, Options{})

	assert.Len(t, l.Filters(), 3)
	active := l.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "genre", active[0].Lookup())
	assert.Equal(t, "inStock", active[1].Lookup())

	encoded, err := url.ParseQuery(l.Encode())
	require.NoError(t, err)
	assert.Equal(t, "scifi", encoded.Get("genre"))
	assert.Equal(t, "true", encoded.Get("stock"))
}

func TestList_Results(t *testing.T) {
	l := newBookList(t, url.Values{"genre": {"scifi"}, "stock": {"true"}}, Options{})

	res, err := l.Results()
	require.NoError(t, err)
	docs, err := res.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b1", docs[0].GetID())

	// The list's own dataset stays unfiltered
	n, err := l.Dataset().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestList_Clean(t *testing.T) {
	// A pre-narrowed dataset: only fantasy books
	ds := newFakeDataset(bookDocs()).Narrow(model.Filter{Field: "genre", Op: model.OpEq, Value: "fantasy"})
	l, err := NewList(ds, bookSchema(), DefaultRegistry(), bookBindings(), url.Values{"stock": {"true"}}, Options{})
	require.NoError(t, err)

	res, err := l.Results()
	require.NoError(t, err)
	n, err := res.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n) // fantasy and in stock

	clean, err := l.Clean()
	require.NoError(t, err)
	n, err = clean.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n) // in stock only, pre-narrowing discarded
}

func TestList_SingleMode(t *testing.T) {
	l, err := NewList(newFakeDataset(bookDocs()), bookSchema(), DefaultRegistry(), bookBindings(),
		url.Values{"genre": {"scifi"}, "stock": {"true"}}, Options{Single: true})
	require.NoError(t, err)

	active := l.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "genre", active[0].Lookup())

	// The suppressed filter reports inactive with no value
	assert.False(t, l.Filters()[1].Active())
	assert.Empty(t, l.Filters()[1].Value())
}

func TestList_InactiveFiltersDoNotNarrow(t *testing.T) {
	l := newBookList(t, nil, Options{})

	res, err := l.Results()
	require.NoError(t, err)
	n, err := res.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Empty(t, l.Encode())
}
