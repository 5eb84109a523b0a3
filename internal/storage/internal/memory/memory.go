// Package memory implements an in-process storage backend. Query predicates
// are compiled to CEL programs and evaluated against flattened documents, so
// the memory backend and the MongoDB backend agree on filter semantics.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/facetbase/facetd/internal/storage/types"
	"github.com/facetbase/facetd/pkg/model"
)

type backend struct {
	mu   sync.RWMutex
	docs map[string]*types.Document
	env  *cel.Env
}

// New creates an empty in-memory backend.
func New() (types.Backend, error) {
	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &backend{
		docs: make(map[string]*types.Document),
		env:  env,
	}, nil
}

func (b *backend) Get(_ context.Context, collection, docID string) (*types.Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	doc, ok := b.docs[types.CalculateID(collection, docID)]
	if !ok {
		return nil, model.ErrNotFound
	}
	return doc, nil
}

func (b *backend) Put(_ context.Context, doc *types.Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	stored := *doc
	stored.Data = make(map[string]interface{}, len(doc.Data))
	for k, v := range doc.Data {
		stored.Data[k] = v
	}

	if prev, ok := b.docs[stored.Id]; ok {
		stored.CreatedAt = prev.CreatedAt
		stored.Version = prev.Version + 1
	}
	b.docs[stored.Id] = &stored
	return nil
}

func (b *backend) Delete(_ context.Context, collection, docID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := types.CalculateID(collection, docID)
	if _, ok := b.docs[id]; !ok {
		return model.ErrNotFound
	}
	delete(b.docs, id)
	return nil
}

func (b *backend) Query(ctx context.Context, q model.Query) ([]*types.Document, error) {
	matched, err := b.match(ctx, q)
	if err != nil {
		return nil, err
	}

	sortDocs(matched, q.OrderBy)

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return []*types.Document{}, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (b *backend) Count(ctx context.Context, q model.Query) (int64, error) {
	matched, err := b.match(ctx, q)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

func (b *backend) ValueCounts(ctx context.Context, q model.Query, field string) ([]model.ValueCount, error) {
	matched, err := b.match(ctx, q)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		value interface{}
		count int64
	}
	buckets := map[string]*bucket{}
	for _, doc := range matched {
		v, ok := types.Flatten(doc).Get(field)
		if !ok || v == nil {
			continue
		}
		key := fmt.Sprint(v)
		if bk, exists := buckets[key]; exists {
			bk.count++
		} else {
			buckets[key] = &bucket{value: v, count: 1}
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	counts := make([]model.ValueCount, 0, len(keys))
	for _, k := range keys {
		counts = append(counts, model.ValueCount{Value: buckets[k].value, Count: buckets[k].count})
	}
	return counts, nil
}

func (b *backend) Close(context.Context) error {
	return nil
}

// match returns the documents of the query's collection that satisfy its
// filters, unordered.
func (b *backend) match(ctx context.Context, q model.Query) ([]*types.Document, error) {
	prg, err := compileFilters(b.env, q.Filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidQuery, err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	var matched []*types.Document
	for _, doc := range b.docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if doc.Collection != q.Collection {
			continue
		}
		if evaluate(prg, types.Flatten(doc)) {
			matched = append(matched, doc)
		}
	}
	return matched, nil
}

// sortDocs orders documents by the requested fields, falling back to the
// document ID so results are deterministic.
func sortDocs(docs []*types.Document, orderBy []model.Order) {
	sort.SliceStable(docs, func(i, j int) bool {
		fi, fj := types.Flatten(docs[i]), types.Flatten(docs[j])
		for _, o := range orderBy {
			vi, _ := fi.Get(o.Field)
			vj, _ := fj.Get(o.Field)
			c := compareValues(vi, vj)
			if c == 0 {
				continue
			}
			if o.Direction == "desc" {
				return c > 0
			}
			return c < 0
		}
		return docs[i].DocID < docs[j].DocID
	})
}

func compareValues(a, b interface{}) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}
