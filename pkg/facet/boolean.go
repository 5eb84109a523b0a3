package facet

import (
	"context"

	"github.com/facetbase/facetd/pkg/model"
)

// BooleanKind filters boolean fields. Values must be exactly "true" or
// "false"; choices are labeled yes/no and presented in that order.
type BooleanKind struct{}

func (BooleanKind) Name() string { return "boolean" }

func (BooleanKind) SuitableFor(f Field) bool { return f.Type == FieldBool }

func (BooleanKind) New(b Binding, f Field, value string, active bool, opts Options) (Filter, error) {
	flt := &booleanFilter{base: base{
		kind:    "boolean",
		binding: b,
		field:   f,
		value:   value,
		active:  active,
		opts:    opts,
	}}
	if active {
		typed, err := parseTyped(Field{Name: f.Name, Type: FieldBool}, value)
		if err != nil {
			return nil, err
		}
		flt.typed = typed.(bool)
	}
	return flt, nil
}

type booleanFilter struct {
	base
	typed bool
}

func (f *booleanFilter) Narrow(ds Dataset) (Dataset, error) {
	return ds.Narrow(model.Filter{Field: f.Lookup(), Op: model.OpEq, Value: f.typed}), nil
}

func (f *booleanFilter) Choices(ctx context.Context, ds Dataset) ([]Choice, error) {
	counts, err := ds.ValueCounts(ctx, f.Lookup())
	if err != nil {
		return nil, err
	}

	byValue := map[string]int64{}
	for _, vc := range counts {
		byValue[valueString(vc.Value)] += vc.Count
	}

	var choices []Choice
	for _, bc := range []struct{ value, title string }{
		{"true", "yes"},
		{"false", "no"},
	} {
		if count, ok := byValue[bc.value]; ok {
			choices = append(choices, f.choice(bc.title, bc.value, count))
		}
	}
	return choices, nil
}
