package engine

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/facetbase/facetd/pkg/facet"
	"github.com/facetbase/facetd/pkg/model"
)

const (
	defaultPageSize = 25
	maxPageSize     = 500
)

// BrowseOptions control pagination and ordering of a browse request. The
// underscore prefix keeps the control parameters apart from facet
// parameters.
type BrowseOptions struct {
	Page   int    `schema:"_page"`
	Limit  int    `schema:"_limit"`
	Sort   string `schema:"_sort"`
	Single bool   `schema:"_single"`
}

// FacetView is the rendered state of one filter: its identity, whether it is
// active, and the choices a client can offer for it.
type FacetView struct {
	Param   string         `json:"param"`
	Lookup  string         `json:"lookup"`
	Kind    string         `json:"kind"`
	Title   string         `json:"title"`
	Active  bool           `json:"active"`
	Value   string         `json:"value,omitempty"`
	Choices []facet.Choice `json:"choices"`
}

// BrowseResult is a page of documents together with the facet navigation
// state that produced it.
type BrowseResult struct {
	Items []model.Document `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`

	Facets []FacetView `json:"facets"`

	// ActiveQuery is the query string encoding the active filters, for
	// building links that preserve the current selection.
	ActiveQuery string `json:"activeQuery"`
}

// Browse runs a faceted query: it activates the filters named in values,
// fetches the matching page of documents, and renders every declared facet
// with its choices. Choices are counted against the dataset before the
// list's own filters are applied, so each facet shows what selecting it
// would yield from the unfiltered view.
func (e *Engine) Browse(ctx context.Context, collection string, values url.Values, opts BrowseOptions) (*BrowseResult, error) {
	spec, err := e.catalog.Collection(collection)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page := opts.Page
	if page < 1 {
		page = 1
	}

	orderBy, err := parseSort(opts.Sort)
	if err != nil {
		return nil, err
	}

	q := model.Query{
		Collection: collection,
		OrderBy:    orderBy,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}

	list, err := e.buildList(collection, q, values, facet.Options{
		Single:      spec.Single || opts.Single,
		SortByUsage: spec.SortByUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidQuery, err)
	}

	results, err := list.Results()
	if err != nil {
		return nil, err
	}
	items, err := results.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	total, err := results.Count(ctx)
	if err != nil {
		return nil, err
	}

	facets := make([]FacetView, 0, len(list.Filters()))
	for _, f := range list.Filters() {
		choices, err := f.Choices(ctx, list.Dataset())
		if err != nil {
			return nil, err
		}
		facets = append(facets, FacetView{
			Param:   f.Param(),
			Lookup:  f.Lookup(),
			Kind:    f.Kind(),
			Title:   f.Title(),
			Active:  f.Active(),
			Value:   f.Value(),
			Choices: choices,
		})
	}

	return &BrowseResult{
		Items:       items,
		Total:       total,
		Page:        page,
		Limit:       limit,
		Facets:      facets,
		ActiveQuery: list.Encode(),
	}, nil
}

// parseSort turns a comma-separated sort spec into query ordering. A leading
// "-" means descending, as in "-createdAt,title".
func parseSort(sort string) ([]model.Order, error) {
	if sort == "" {
		return nil, nil
	}
	var orders []model.Order
	for _, part := range strings.Split(sort, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dir := "asc"
		if strings.HasPrefix(part, "-") {
			dir = "desc"
			part = part[1:]
		}
		if part == "" {
			return nil, fmt.Errorf("%w: empty sort field", model.ErrInvalidQuery)
		}
		orders = append(orders, model.Order{Field: part, Direction: dir})
	}
	return orders, nil
}
