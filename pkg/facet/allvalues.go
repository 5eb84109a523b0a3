package facet

import (
	"context"

	"github.com/facetbase/facetd/pkg/model"
)

// AllValuesKind is the universal fallback: equality on the lookup, choices
// from the distinct values present in the dataset. It is never part of
// automatic selection; it is what automatic selection falls back to.
type AllValuesKind struct{}

func (AllValuesKind) Name() string { return "all_values" }

func (AllValuesKind) SuitableFor(Field) bool { return false }

func (AllValuesKind) New(b Binding, f Field, value string, active bool, opts Options) (Filter, error) {
	flt := &allValuesFilter{base: base{
		kind:    "all_values",
		binding: b,
		field:   f,
		value:   value,
		active:  active,
		opts:    opts,
	}}
	if active {
		typed, err := parseTyped(f, value)
		if err != nil {
			return nil, err
		}
		flt.typed = typed
	}
	return flt, nil
}

type allValuesFilter struct {
	base
	typed interface{}
}

func (f *allValuesFilter) Narrow(ds Dataset) (Dataset, error) {
	return ds.Narrow(model.Filter{Field: f.Lookup(), Op: model.OpEq, Value: f.typed}), nil
}

// Choices returns the distinct values with usage counts. When the field
// declares an explicit choice list, values outside the list are excluded and
// the declared labels are used as titles.
func (f *allValuesFilter) Choices(ctx context.Context, ds Dataset) ([]Choice, error) {
	counts, err := ds.ValueCounts(ctx, f.Lookup())
	if err != nil {
		return nil, err
	}

	choices := make([]Choice, 0, len(counts))
	for _, vc := range counts {
		value := valueString(vc.Value)
		title := value
		if len(f.field.Choices) > 0 {
			label, declared := f.field.Choices[value]
			if !declared {
				continue
			}
			title = label
		}
		choices = append(choices, f.choice(title, value, vc.Count))
	}

	sortChoices(choices, f.opts.SortByUsage)
	return choices, nil
}
