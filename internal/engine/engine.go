// Package engine implements the document and browse operations on top of a
// storage backend. It owns the write path (and the change events it emits)
// and the faceted read path.
package engine

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/facetbase/facetd/internal/catalog"
	"github.com/facetbase/facetd/internal/dataset"
	"github.com/facetbase/facetd/internal/events"
	"github.com/facetbase/facetd/internal/storage"
	"github.com/facetbase/facetd/pkg/facet"
	"github.com/facetbase/facetd/pkg/model"
)

// Engine executes document operations against a backend and publishes
// change events for watchers.
type Engine struct {
	store    storage.Backend
	bus      events.Bus
	catalog  catalog.Catalog
	registry *facet.Registry
}

// New creates an engine. The catalog must already be validated against the
// registry.
func New(store storage.Backend, bus events.Bus, cat catalog.Catalog, registry *facet.Registry) *Engine {
	return &Engine{store: store, bus: bus, catalog: cat, registry: registry}
}

// GetDocument fetches a single document by id.
func (e *Engine) GetDocument(ctx context.Context, collection, docID string) (model.Document, error) {
	if _, err := e.catalog.Collection(collection); err != nil {
		return nil, err
	}
	if !model.CheckDocumentID(docID) {
		return nil, fmt.Errorf("%w: invalid document id %q", model.ErrInvalidQuery, docID)
	}
	doc, err := e.store.Get(ctx, collection, docID)
	if err != nil {
		return nil, err
	}
	return storage.Flatten(doc), nil
}

// PutDocument inserts or replaces a document. A missing id is generated.
// The stored document is returned with its protected fields populated.
func (e *Engine) PutDocument(ctx context.Context, collection string, data model.Document) (model.Document, error) {
	spec, err := e.catalog.Collection(collection)
	if err != nil {
		return nil, err
	}

	data.GenerateIDIfEmpty()
	docID := data.GetID()
	if !model.CheckDocumentID(docID) {
		return nil, fmt.Errorf("%w: invalid document id %q", model.ErrInvalidQuery, docID)
	}
	data.StripProtectedFields()
	if err := normalizeDates(spec, data); err != nil {
		return nil, err
	}

	doc := storage.NewDocument(collection, docID, data)
	if err := e.store.Put(ctx, doc); err != nil {
		return nil, err
	}

	stored, err := e.store.Get(ctx, collection, docID)
	if err != nil {
		return nil, err
	}
	flattened := storage.Flatten(stored)

	e.publish(ctx, events.Event{
		Type:       events.EventPut,
		Collection: collection,
		DocID:      docID,
		Document:   flattened,
	})
	return flattened, nil
}

// DeleteDocument removes a document by id.
func (e *Engine) DeleteDocument(ctx context.Context, collection, docID string) error {
	if _, err := e.catalog.Collection(collection); err != nil {
		return err
	}
	if !model.CheckDocumentID(docID) {
		return fmt.Errorf("%w: invalid document id %q", model.ErrInvalidQuery, docID)
	}
	if err := e.store.Delete(ctx, collection, docID); err != nil {
		return err
	}
	e.publish(ctx, events.Event{
		Type:       events.EventDelete,
		Collection: collection,
		DocID:      docID,
	})
	return nil
}

// ExecuteQuery runs a raw structured query.
func (e *Engine) ExecuteQuery(ctx context.Context, q model.Query) ([]model.Document, error) {
	if _, err := e.catalog.Collection(q.Collection); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return dataset.FromQuery(e.store, q).Fetch(ctx)
}

// normalizeDates rewrites declared date fields to UTC "Z" form. Date range
// predicates compare stored values as strings, so string order must equal
// time order.
func normalizeDates(spec catalog.CollectionSpec, data model.Document) error {
	for name, fs := range spec.Fields {
		if facet.FieldType(fs.Type) != facet.FieldDate {
			continue
		}
		raw, ok := data[name]
		if !ok || raw == nil {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return fmt.Errorf("%w: field %q must be an RFC 3339 string", model.ErrInvalidQuery, name)
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("%w: field %q: %v", model.ErrInvalidQuery, name, err)
		}
		data[name] = t.UTC().Format(time.RFC3339)
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, ev events.Event) {
	if e.bus == nil {
		return
	}
	ev.Timestamp = time.Now().UnixMilli()
	_ = e.bus.Publish(ctx, ev)
}

// Watch subscribes to change events of a collection.
func (e *Engine) Watch(collection string, h events.Handler) (events.Subscription, error) {
	if _, err := e.catalog.Collection(collection); err != nil {
		return nil, err
	}
	if e.bus == nil {
		return nil, fmt.Errorf("event bus not configured")
	}
	return e.bus.Subscribe(collection, h)
}

// Collections returns the names of the declared collections, sorted.
func (e *Engine) Collections() []string {
	names := make([]string, 0, len(e.catalog))
	for name := range e.catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// buildList constructs the filter list of a collection for a set of request
// values.
func (e *Engine) buildList(collection string, q model.Query, values url.Values, opts facet.Options) (*facet.List, error) {
	spec, err := e.catalog.Collection(collection)
	if err != nil {
		return nil, err
	}
	schema, err := spec.Schema(collection)
	if err != nil {
		return nil, err
	}
	ds := dataset.FromQuery(e.store, q)
	return facet.NewList(ds, schema, e.registry, spec.Bindings(), values, opts)
}
