// Package dataset adapts a storage backend to the facet.Dataset interface.
// A dataset is a description of a query, not its results: narrowing copies
// the query and nothing touches the backend until Fetch, Count or
// ValueCounts is called.
package dataset

import (
	"context"
	"fmt"

	"github.com/facetbase/facetd/internal/storage"
	"github.com/facetbase/facetd/pkg/facet"
	"github.com/facetbase/facetd/pkg/model"
)

type dataset struct {
	store storage.Backend
	query model.Query
	base  model.Query
}

// New returns a dataset over all documents of a collection.
func New(store storage.Backend, collection string) facet.Dataset {
	q := model.Query{Collection: collection}
	return &dataset{store: store, query: q, base: q}
}

// FromQuery returns a dataset over the documents matching q. Base() strips
// the filters of q but keeps its collection, ordering and pagination.
func FromQuery(store storage.Backend, q model.Query) facet.Dataset {
	base := q
	base.Filters = nil
	return &dataset{store: store, query: q, base: base}
}

func (d *dataset) Query() model.Query {
	return d.query
}

func (d *dataset) Base() facet.Dataset {
	return &dataset{store: d.store, query: d.base, base: d.base}
}

func (d *dataset) Narrow(filters ...model.Filter) facet.Dataset {
	return &dataset{store: d.store, query: d.query.Narrow(filters...), base: d.base}
}

func (d *dataset) Fetch(ctx context.Context) ([]model.Document, error) {
	docs, err := d.store.Query(ctx, d.query)
	if err != nil {
		return nil, err
	}
	out := make([]model.Document, 0, len(docs))
	for _, doc := range docs {
		out = append(out, storage.Flatten(doc))
	}
	return out, nil
}

func (d *dataset) Count(ctx context.Context) (int64, error) {
	// Pagination must not affect the count
	q := d.query
	q.Limit = 0
	q.Offset = 0
	return d.store.Count(ctx, q)
}

func (d *dataset) ValueCounts(ctx context.Context, field string) ([]model.ValueCount, error) {
	q := d.query
	q.Limit = 0
	q.Offset = 0
	return d.store.ValueCounts(ctx, q, field)
}

// Related loads documents from another collection by document id, for
// resolving relation values into display titles. Missing ids are skipped.
func (d *dataset) Related(ctx context.Context, collection string, ids []interface{}) (map[string]model.Document, error) {
	if len(ids) == 0 {
		return map[string]model.Document{}, nil
	}

	strIDs := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		strIDs = append(strIDs, fmt.Sprint(id))
	}

	q := model.Query{
		Collection: collection,
		Filters:    model.Filters{{Field: "id", Op: model.OpIn, Value: strIDs}},
	}
	docs, err := d.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make(map[string]model.Document, len(docs))
	for _, doc := range docs {
		out[doc.DocID] = storage.Flatten(doc)
	}
	return out, nil
}
