package facet

import (
	"context"
	"fmt"
	"net/url"

	"github.com/facetbase/facetd/pkg/model"
)

// List is an ordered collection of filters built from facet bindings and a
// set of request lookup parameters. Only parameters named by a binding are
// consulted; everything else in the request is ignored. Each collection field
// appears at most once.
type List struct {
	ds      Dataset
	filters []Filter
	opts    Options
}

// NewList resolves every binding against the schema and registry, activates
// the filters whose parameters are present in values, and validates the
// request values through the respective filter kinds. Ambiguous or unknown
// kind resolution and invalid values are errors, not silent no-ops.
func NewList(ds Dataset, schema Schema, registry *Registry, bindings []Binding, values url.Values, opts Options) (*List, error) {
	seen := map[string]bool{}
	filters := make([]Filter, 0, len(bindings))
	singleTriggered := false

	for _, b := range bindings {
		if b.Lookup == "" {
			return nil, fmt.Errorf("binding with empty lookup")
		}
		if seen[b.Lookup] {
			return nil, fmt.Errorf("duplicate binding for lookup %q", b.Lookup)
		}
		seen[b.Lookup] = true

		field, ok := schema.Field(b.Lookup)
		if !ok {
			return nil, fmt.Errorf("%w: %q in collection %q", ErrUnknownField, b.Lookup, schema.Collection)
		}

		kind, err := registry.Resolve(field, b.Kind)
		if err != nil {
			return nil, err
		}

		value := values.Get(b.ParamName())
		active := value != ""
		if active && opts.Single {
			if singleTriggered {
				active = false
				value = ""
			} else {
				singleTriggered = true
			}
		}

		f, err := kind.New(b, field, value, active, opts)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}

	return &List{ds: ds, filters: filters, opts: opts}, nil
}

// Filters returns all filters in binding order.
func (l *List) Filters() []Filter {
	return l.filters
}

// Active returns the currently active filters.
func (l *List) Active() []Filter {
	var active []Filter
	for _, f := range l.filters {
		if f.Active() {
			active = append(active, f)
		}
	}
	return active
}

// Encode returns the active filters as a query string, so the current state
// can be carried in a URL.
func (l *List) Encode() string {
	values := url.Values{}
	for _, f := range l.Active() {
		values.Set(f.Param(), f.Value())
	}
	return values.Encode()
}

// Dataset returns the dataset the list was built over, before narrowing.
func (l *List) Dataset() Dataset {
	return l.ds
}

// Results applies the active filters to the list's dataset and returns the
// narrowed dataset. The base dataset is untouched: choices keep being
// computed against it.
func (l *List) Results() (Dataset, error) {
	return l.narrow(l.ds)
}

// Clean rebuilds a dataset from scratch with only the active filters applied,
// discarding any pre-filtering the base dataset carried. Useful when a block
// must reflect the facet state but not the view's own constraints.
func (l *List) Clean() (Dataset, error) {
	return l.narrow(l.ds.Base())
}

func (l *List) narrow(ds Dataset) (Dataset, error) {
	var err error
	for _, f := range l.Active() {
		ds, err = f.Narrow(ds)
		if err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// Fetch is a convenience for Results followed by Fetch.
func (l *List) Fetch(ctx context.Context) ([]model.Document, error) {
	ds, err := l.Results()
	if err != nil {
		return nil, err
	}
	return ds.Fetch(ctx)
}
