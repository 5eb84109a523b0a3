package facet

import (
	"context"

	"github.com/facetbase/facetd/pkg/model"
)

// Dataset is a lazily evaluated result set. Narrow returns a derived dataset
// with additional predicates; no I/O happens until Fetch, Count or ValueCounts
// is called. Implementations are provided by the storage layer.
type Dataset interface {
	// Query returns the query the dataset currently represents.
	Query() model.Query

	// Base returns an unfiltered dataset over the same collection. It is used
	// to rebuild a query from active filters alone, without whatever
	// pre-filtering the original dataset carried.
	Base() Dataset

	// Narrow returns a derived dataset with the given predicates appended.
	Narrow(filters ...model.Filter) Dataset

	// Fetch executes the query and returns the matching documents.
	Fetch(ctx context.Context) ([]model.Document, error)

	// Count executes the query and returns the number of matching documents.
	Count(ctx context.Context) (int64, error)

	// ValueCounts returns the distinct values of field among the matching
	// documents, each with its usage count.
	ValueCounts(ctx context.Context, field string) ([]model.ValueCount, error)

	// Related fetches documents from another collection by ID. Missing IDs are
	// simply absent from the result map.
	Related(ctx context.Context, collection string, ids []interface{}) (map[string]model.Document, error)
}
