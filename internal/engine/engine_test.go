package engine

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facetbase/facetd/internal/catalog"
	"github.com/facetbase/facetd/internal/events"
	"github.com/facetbase/facetd/internal/storage"
	storagecfg "github.com/facetbase/facetd/internal/storage/config"
	"github.com/facetbase/facetd/pkg/facet"
	"github.com/facetbase/facetd/pkg/model"
)

func testCatalog() catalog.Catalog {
	return catalog.Catalog{
		"books": catalog.CollectionSpec{
			Fields: map[string]catalog.FieldSpec{
				"title":   {Type: "string", Title: "Title"},
				"genre":   {Type: "string", Title: "Genre"},
				"inStock": {Type: "bool"},
			},
			Facets: []catalog.FacetSpec{
				{Lookup: "genre"},
				{Lookup: "inStock", Param: "stock"},
			},
		},
	}
}

func newTestEngine(t *testing.T) (*Engine, events.Bus) {
	t.Helper()
	store, err := storage.New(context.Background(), storagecfg.Config{Backend: storagecfg.BackendMemory})
	require.NoError(t, err)
	bus := events.NewMemoryBus()
	return New(store, bus, testCatalog(), facet.DefaultRegistry()), bus
}

func seedBooks(t *testing.T, e *Engine) {
	t.Helper()
	docs := []model.Document{
		{"id": "b1", "title": "Accelerando", "genre": "scifi", "inStock": true},
		{"id": "b2", "title": "Blindsight", "genre": "scifi", "inStock": false},
		{"id": "b3", "title": "Borne", "genre": "fantasy", "inStock": true},
	}
	for _, d := range docs {
		_, err := e.PutDocument(context.Background(), "books", d)
		require.NoError(t, err)
	}
}

func TestEngine_PutGetDelete(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	stored, err := e.PutDocument(ctx, "books", model.Document{"id": "b1", "title": "x"})
	require.NoError(t, err)
	assert.Equal(t, "b1", stored.GetID())
	assert.Equal(t, int64(1), stored["version"])
	assert.Equal(t, "books", stored["collection"])

	// Replacing bumps the version
	stored, err = e.PutDocument(ctx, "books", model.Document{"id": "b1", "title": "y"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored["version"])

	got, err := e.GetDocument(ctx, "books", "b1")
	require.NoError(t, err)
	assert.Equal(t, "y", got["title"])

	require.NoError(t, e.DeleteDocument(ctx, "books", "b1"))
	_, err = e.GetDocument(ctx, "books", "b1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestEngine_PutDocument_GeneratesID(t *testing.T) {
	e, _ := newTestEngine(t)

	stored, err := e.PutDocument(context.Background(), "books", model.Document{"title": "x"})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.GetID())
}

func TestEngine_PutDocument_StripsProtectedFields(t *testing.T) {
	e, _ := newTestEngine(t)

	stored, err := e.PutDocument(context.Background(), "books", model.Document{
		"id":         "b1",
		"title":      "x",
		"version":    int64(99),
		"collection": "forged",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored["version"])
	assert.Equal(t, "books", stored["collection"])
}

func TestEngine_InvalidDocumentID(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.GetDocument(ctx, "books", "has spaces")
	assert.ErrorIs(t, err, model.ErrInvalidQuery)

	_, err = e.PutDocument(ctx, "books", model.Document{"id": "has spaces"})
	assert.ErrorIs(t, err, model.ErrInvalidQuery)

	err = e.DeleteDocument(ctx, "books", "has spaces")
	assert.ErrorIs(t, err, model.ErrInvalidQuery)
}

func TestEngine_UnknownCollection(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.GetDocument(ctx, "movies", "m1")
	assert.ErrorIs(t, err, model.ErrUnknownCollection)

	_, err = e.PutDocument(ctx, "movies", model.Document{"id": "m1"})
	assert.ErrorIs(t, err, model.ErrUnknownCollection)

	_, err = e.ExecuteQuery(ctx, model.Query{Collection: "movies"})
	assert.ErrorIs(t, err, model.ErrUnknownCollection)

	_, err = e.Browse(ctx, "movies", url.Values{}, BrowseOptions{})
	assert.ErrorIs(t, err, model.ErrUnknownCollection)

	_, err = e.Watch("movies", func(events.Event) {})
	assert.ErrorIs(t, err, model.ErrUnknownCollection)
}

func TestEngine_Events(t *testing.T) {
	e, bus := newTestEngine(t)
	ctx := context.Background()

	var got []events.Event
	_, err := bus.Subscribe("books", func(ev events.Event) { got = append(got, ev) })
	require.NoError(t, err)

	_, err = e.PutDocument(ctx, "books", model.Document{"id": "b1", "title": "x"})
	require.NoError(t, err)
	require.NoError(t, e.DeleteDocument(ctx, "books", "b1"))

	require.Len(t, got, 2)
	assert.Equal(t, events.EventPut, got[0].Type)
	assert.Equal(t, "b1", got[0].DocID)
	assert.Equal(t, "x", got[0].Document["title"])
	assert.NotZero(t, got[0].Timestamp)
	assert.Equal(t, events.EventDelete, got[1].Type)
	assert.Nil(t, got[1].Document)
}

func TestEngine_Watch(t *testing.T) {
	e, _ := newTestEngine(t)

	var got []events.Event
	sub, err := e.Watch("books", func(ev events.Event) { got = append(got, ev) })
	require.NoError(t, err)
	defer sub.Unsubscribe()

	_, err = e.PutDocument(context.Background(), "books", model.Document{"id": "b1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, events.EventPut, got[0].Type)
}

func TestEngine_Watch_NoBus(t *testing.T) {
	store, err := storage.New(context.Background(), storagecfg.Config{Backend: storagecfg.BackendMemory})
	require.NoError(t, err)
	e := New(store, nil, testCatalog(), facet.DefaultRegistry())

	_, err = e.Watch("books", func(events.Event) {})
	assert.Error(t, err)

	// Writes still work without a bus
	_, err = e.PutDocument(context.Background(), "books", model.Document{"id": "b1"})
	assert.NoError(t, err)
}

func TestEngine_ExecuteQuery(t *testing.T) {
	e, _ := newTestEngine(t)
	seedBooks(t, e)
	ctx := context.Background()

	docs, err := e.ExecuteQuery(ctx, model.Query{
		Collection: "books",
		Filters:    model.Filters{{Field: "genre", Op: model.OpEq, Value: "fantasy"}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Borne", docs[0]["title"])

	_, err = e.ExecuteQuery(ctx, model.Query{
		Collection: "books",
		Filters:    model.Filters{{Field: "genre", Op: "like", Value: "x"}},
	})
	assert.ErrorIs(t, err, model.ErrInvalidQuery)
}

func TestEngine_Collections(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.Equal(t, []string{"books"}, e.Collections())
}

func TestEngine_Collections_Sorted(t *testing.T) {
	store, err := storage.New(context.Background(), storagecfg.Config{Backend: storagecfg.BackendMemory})
	require.NoError(t, err)
	cat := catalog.Catalog{
		"zines":   {Fields: map[string]catalog.FieldSpec{"title": {Type: "string"}}},
		"books":   {Fields: map[string]catalog.FieldSpec{"title": {Type: "string"}}},
		"authors": {Fields: map[string]catalog.FieldSpec{"name": {Type: "string"}}},
	}
	e := New(store, nil, cat, facet.DefaultRegistry())

	for i := 0; i < 5; i++ {
		assert.Equal(t, []string{"authors", "books", "zines"}, e.Collections())
	}
}

func TestEngine_Browse(t *testing.T) {
	e, _ := newTestEngine(t)
	seedBooks(t, e)

	res, err := e.Browse(context.Background(), "books", url.Values{}, BrowseOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, defaultPageSize, res.Limit)
	assert.Len(t, res.Items, 3)
	assert.Empty(t, res.ActiveQuery)

	require.Len(t, res.Facets, 2)
	genre := res.Facets[0]
	assert.Equal(t, "genre", genre.Param)
	assert.Equal(t, "Genre", genre.Title)
	assert.False(t, genre.Active)
	require.Len(t, genre.Choices, 2)
	assert.Equal(t, "fantasy", genre.Choices[0].Value)
	assert.Equal(t, int64(1), genre.Choices[0].Count)
	assert.Equal(t, "scifi", genre.Choices[1].Value)
	assert.Equal(t, int64(2), genre.Choices[1].Count)

	stock := res.Facets[1]
	assert.Equal(t, "stock", stock.Param)
	assert.Equal(t, "inStock", stock.Lookup)
}

func TestEngine_Browse_Filtered(t *testing.T) {
	e, _ := newTestEngine(t)
	seedBooks(t, e)

	res, err := e.Browse(context.Background(), "books", url.Values{"genre": {"scifi"}}, BrowseOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
	assert.Contains(t, res.ActiveQuery, "genre=scifi")

	genre := res.Facets[0]
	assert.True(t, genre.Active)
	assert.Equal(t, "scifi", genre.Value)

	// Choices are counted against the unfiltered view
	require.Len(t, genre.Choices, 2)
	assert.Equal(t, int64(1), genre.Choices[0].Count)
}

func TestEngine_Browse_Pagination(t *testing.T) {
	e, _ := newTestEngine(t)
	seedBooks(t, e)
	ctx := context.Background()

	res, err := e.Browse(ctx, "books", url.Values{}, BrowseOptions{Page: 2, Limit: 2, Sort: "title"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 2, res.Limit)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Borne", res.Items[0]["title"])

	// Limits are clamped
	res, err = e.Browse(ctx, "books", url.Values{}, BrowseOptions{Limit: 10000})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, res.Limit)

	res, err = e.Browse(ctx, "books", url.Values{}, BrowseOptions{Page: -3})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
}

func TestEngine_Browse_Sort(t *testing.T) {
	e, _ := newTestEngine(t)
	seedBooks(t, e)

	res, err := e.Browse(context.Background(), "books", url.Values{}, BrowseOptions{Sort: "-title"})
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "Borne", res.Items[0]["title"])
	assert.Equal(t, "Accelerando", res.Items[2]["title"])
}

func newDateEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := storage.New(context.Background(), storagecfg.Config{Backend: storagecfg.BackendMemory})
	require.NoError(t, err)
	cat := catalog.Catalog{
		"books": catalog.CollectionSpec{
			Fields: map[string]catalog.FieldSpec{
				"title":     {Type: "string"},
				"published": {Type: "date"},
			},
			Facets: []catalog.FacetSpec{
				{Lookup: "published", Kind: "date_drilldown"},
			},
		},
	}
	return New(store, events.NewMemoryBus(), cat, facet.DefaultRegistry())
}

func TestEngine_PutDocument_NormalizesDates(t *testing.T) {
	e := newDateEngine(t)

	stored, err := e.PutDocument(context.Background(), "books", model.Document{
		"id":        "b1",
		"title":     "x",
		"published": "2025-01-01T00:30:00+02:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-12-31T22:30:00Z", stored["published"])
}

func TestEngine_PutDocument_BadDate(t *testing.T) {
	e := newDateEngine(t)
	ctx := context.Background()

	_, err := e.PutDocument(ctx, "books", model.Document{"id": "b1", "published": "yesterday"})
	assert.ErrorIs(t, err, model.ErrInvalidQuery)

	_, err = e.PutDocument(ctx, "books", model.Document{"id": "b1", "published": 20240101})
	assert.ErrorIs(t, err, model.ErrInvalidQuery)

	// A missing date field is fine
	_, err = e.PutDocument(ctx, "books", model.Document{"id": "b1", "title": "x"})
	assert.NoError(t, err)
}

func TestEngine_Browse_DrilldownOffsetTimestamp(t *testing.T) {
	e := newDateEngine(t)
	ctx := context.Background()

	// An offset timestamp whose instant falls in the previous year
	_, err := e.PutDocument(ctx, "books", model.Document{
		"id":        "b1",
		"title":     "x",
		"published": "2025-01-01T00:30:00+02:00",
	})
	require.NoError(t, err)

	res, err := e.Browse(ctx, "books", url.Values{}, BrowseOptions{})
	require.NoError(t, err)
	require.Len(t, res.Facets, 1)
	require.Len(t, res.Facets[0].Choices, 1)
	assert.Equal(t, "2024", res.Facets[0].Choices[0].Value)

	// Selecting the bucket the choice advertises must match the same document
	res, err = e.Browse(ctx, "books", url.Values{"published": {"2024"}}, BrowseOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	require.Len(t, res.Items, 1)

	res, err = e.Browse(ctx, "books", url.Values{"published": {"2025"}}, BrowseOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Total)
}

func TestEngine_Browse_BadFacetValue(t *testing.T) {
	e, _ := newTestEngine(t)
	seedBooks(t, e)

	_, err := e.Browse(context.Background(), "books", url.Values{"stock": {"definitely"}}, BrowseOptions{})
	assert.ErrorIs(t, err, model.ErrInvalidQuery)
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		name    string
		sort    string
		want    []model.Order
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"single asc", "title", []model.Order{{Field: "title", Direction: "asc"}}, false},
		{"single desc", "-createdAt", []model.Order{{Field: "createdAt", Direction: "desc"}}, false},
		{"multiple", "-createdAt, title", []model.Order{
			{Field: "createdAt", Direction: "desc"},
			{Field: "title", Direction: "asc"},
		}, false},
		{"trailing comma", "title,", []model.Order{{Field: "title", Direction: "asc"}}, false},
		{"bare dash", "-", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSort(tt.sort)
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrInvalidQuery)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
