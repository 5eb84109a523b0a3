package facet

import (
	"context"

	"github.com/facetbase/facetd/pkg/model"
)

// RelationKind filters fields that reference documents in another collection.
// Choice titles come from the label field of the referenced documents.
type RelationKind struct{}

func (RelationKind) Name() string { return "relation" }

func (RelationKind) SuitableFor(f Field) bool { return f.Type == FieldRelation }

func (RelationKind) New(b Binding, f Field, value string, active bool, opts Options) (Filter, error) {
	return &relationFilter{base: base{
		kind:    "relation",
		binding: b,
		field:   f,
		value:   value,
		active:  active,
		opts:    opts,
	}}, nil
}

type relationFilter struct {
	base
}

func (f *relationFilter) Narrow(ds Dataset) (Dataset, error) {
	return ds.Narrow(model.Filter{Field: f.Lookup(), Op: model.OpEq, Value: f.value}), nil
}

// Choices returns the referenced IDs present in the dataset, titled by the
// related document's label field. IDs whose document is gone fall back to the
// raw value as title.
func (f *relationFilter) Choices(ctx context.Context, ds Dataset) ([]Choice, error) {
	counts, err := ds.ValueCounts(ctx, f.Lookup())
	if err != nil {
		return nil, err
	}

	ids := make([]interface{}, 0, len(counts))
	for _, vc := range counts {
		ids = append(ids, vc.Value)
	}

	related, err := ds.Related(ctx, f.field.Relation.Collection, ids)
	if err != nil {
		return nil, err
	}

	choices := make([]Choice, 0, len(counts))
	for _, vc := range counts {
		value := valueString(vc.Value)
		title := value
		if doc, ok := related[value]; ok {
			if label, ok := doc.Get(f.field.Relation.LabelField); ok {
				title = valueString(label)
			}
		}
		choices = append(choices, f.choice(title, value, vc.Count))
	}

	sortChoices(choices, f.opts.SortByUsage)
	return choices, nil
}
