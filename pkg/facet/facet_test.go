package facet

import (
	"context"
	"sort"
	"strings"

	"github.com/facetbase/facetd/pkg/model"
)

// fakeDataset evaluates queries over an in-memory document slice. It mirrors
// what the storage-backed dataset does, just enough for filter tests.
type fakeDataset struct {
	docs    []model.Document
	related map[string][]model.Document
	filters []model.Filter
}

func newFakeDataset(docs []model.Document) *fakeDataset {
	return &fakeDataset{docs: docs}
}

func (d *fakeDataset) withRelated(collection string, docs []model.Document) *fakeDataset {
	if d.related == nil {
		d.related = map[string][]model.Document{}
	}
	d.related[collection] = docs
	return d
}

func (d *fakeDataset) Query() model.Query {
	return model.Query{Collection: "fake", Filters: append(model.Filters{}, d.filters...)}
}

func (d *fakeDataset) Base() Dataset {
	return &fakeDataset{docs: d.docs, related: d.related}
}

func (d *fakeDataset) Narrow(filters ...model.Filter) Dataset {
	combined := make([]model.Filter, 0, len(d.filters)+len(filters))
	combined = append(combined, d.filters...)
	combined = append(combined, filters...)
	return &fakeDataset{docs: d.docs, related: d.related, filters: combined}
}

func (d *fakeDataset) matching() []model.Document {
	var out []model.Document
	for _, doc := range d.docs {
		ok := true
		for _, f := range d.filters {
			if !matchFilter(doc, f) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, doc)
		}
	}
	return out
}

func matchFilter(doc model.Document, f model.Filter) bool {
	v, ok := doc.Get(f.Field)
	if !ok {
		return false
	}
	switch f.Op {
	case model.OpEq:
		return valueString(v) == valueString(f.Value)
	case model.OpPrefix:
		s, want := valueString(v), valueString(f.Value)
		return strings.HasPrefix(strings.ToLower(s), strings.ToLower(want))
	case model.OpGte, model.OpGt, model.OpLt, model.OpLte:
		return matchOrdered(v, f)
	default:
		return false
	}
}

func matchOrdered(v interface{}, f model.Filter) bool {
	var cmp int
	a, aok := toFloat(v)
	b, bok := toFloat(f.Value)
	if aok && bok {
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	} else {
		cmp = strings.Compare(valueString(v), valueString(f.Value))
	}
	switch f.Op {
	case model.OpGte:
		return cmp >= 0
	case model.OpGt:
		return cmp > 0
	case model.OpLt:
		return cmp < 0
	default:
		return cmp <= 0
	}
}

func (d *fakeDataset) Fetch(context.Context) ([]model.Document, error) {
	return d.matching(), nil
}

func (d *fakeDataset) Count(context.Context) (int64, error) {
	return int64(len(d.matching())), nil
}

func (d *fakeDataset) ValueCounts(_ context.Context, field string) ([]model.ValueCount, error) {
	counts := map[string]model.ValueCount{}
	for _, doc := range d.matching() {
		v, ok := doc.Get(field)
		if !ok || v == nil {
			continue
		}
		key := valueString(v)
		vc := counts[key]
		vc.Value = v
		vc.Count++
		counts[key] = vc
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]model.ValueCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, counts[k])
	}
	return out, nil
}

func (d *fakeDataset) Related(_ context.Context, collection string, ids []interface{}) (map[string]model.Document, error) {
	out := map[string]model.Document{}
	for _, doc := range d.related[collection] {
		for _, id := range ids {
			if doc.GetID() == valueString(id) {
				out[doc.GetID()] = doc
			}
		}
	}
	return out, nil
}
