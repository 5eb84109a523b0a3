package facet

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/facetbase/facetd/pkg/model"
)

// rangeBuckets is how many choice buckets a range filter derives from the
// spread of values present in the dataset.
const rangeBuckets = 5

// RangeKind narrows numeric fields by an interval. Values take the form
// "min..max" with either bound optional ("10..", "..99.5"). Like the
// alphabetic kind it is selected by name only.
type RangeKind struct{}

func (RangeKind) Name() string { return "range" }

func (RangeKind) SuitableFor(Field) bool { return false }

func (RangeKind) New(b Binding, f Field, value string, active bool, opts Options) (Filter, error) {
	if f.Type != FieldInt && f.Type != FieldFloat {
		return nil, fmt.Errorf("field %q: range filter requires a numeric field", f.Name)
	}

	flt := &rangeFilter{base: base{
		kind:    "range",
		binding: b,
		field:   f,
		value:   value,
		active:  active,
		opts:    opts,
	}}

	if active {
		lo, hi, err := parseRange(f, value)
		if err != nil {
			return nil, err
		}
		flt.lo, flt.hi = lo, hi
	}
	return flt, nil
}

func parseRange(f Field, raw string) (lo, hi *float64, err error) {
	parts := strings.SplitN(raw, "..", 2)
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("field %q: invalid range %q", f.Name, raw)
	}
	if parts[0] == "" && parts[1] == "" {
		return nil, nil, fmt.Errorf("field %q: empty range", f.Name)
	}
	if parts[0] != "" {
		v, perr := strconv.ParseFloat(parts[0], 64)
		if perr != nil {
			return nil, nil, fmt.Errorf("field %q: invalid range bound %q", f.Name, parts[0])
		}
		lo = &v
	}
	if parts[1] != "" {
		v, perr := strconv.ParseFloat(parts[1], 64)
		if perr != nil {
			return nil, nil, fmt.Errorf("field %q: invalid range bound %q", f.Name, parts[1])
		}
		hi = &v
	}
	if lo != nil && hi != nil && *lo > *hi {
		return nil, nil, fmt.Errorf("field %q: range %q is inverted", f.Name, raw)
	}
	return lo, hi, nil
}

type rangeFilter struct {
	base
	lo, hi *float64
}

func (f *rangeFilter) bound(v float64) interface{} {
	if f.field.Type == FieldInt {
		return int64(v)
	}
	return v
}

func (f *rangeFilter) Narrow(ds Dataset) (Dataset, error) {
	var preds []model.Filter
	if f.lo != nil {
		preds = append(preds, model.Filter{Field: f.Lookup(), Op: model.OpGte, Value: f.bound(*f.lo)})
	}
	if f.hi != nil {
		preds = append(preds, model.Filter{Field: f.Lookup(), Op: model.OpLte, Value: f.bound(*f.hi)})
	}
	return ds.Narrow(preds...), nil
}

// Choices splits the observed value spread into equal-width buckets.
func (f *rangeFilter) Choices(ctx context.Context, ds Dataset) ([]Choice, error) {
	counts, err := ds.ValueCounts(ctx, f.Lookup())
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return nil, nil
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	values := make([]struct {
		v float64
		n int64
	}, 0, len(counts))
	for _, vc := range counts {
		v, ok := toFloat(vc.Value)
		if !ok {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		values = append(values, struct {
			v float64
			n int64
		}{v, vc.Count})
	}
	if len(values) == 0 {
		return nil, nil
	}

	if lo == hi {
		c := f.choice(f.formatSpan(lo, hi), f.formatValue(lo)+".."+f.formatValue(hi), 0)
		for _, v := range values {
			c.Count += v.n
		}
		return []Choice{c}, nil
	}

	width := (hi - lo) / rangeBuckets
	choices := make([]Choice, 0, rangeBuckets)
	for i := 0; i < rangeBuckets; i++ {
		bLo := lo + width*float64(i)
		bHi := bLo + width
		last := i == rangeBuckets-1
		var count int64
		for _, v := range values {
			if v.v >= bLo && (v.v < bHi || (last && v.v <= hi)) {
				count += v.n
			}
		}
		if count == 0 {
			continue
		}
		choices = append(choices, f.choice(
			f.formatSpan(bLo, bHi),
			f.formatValue(bLo)+".."+f.formatValue(bHi),
			count,
		))
	}
	return choices, nil
}

func (f *rangeFilter) formatValue(v float64) string {
	if f.field.Type == FieldInt {
		return strconv.FormatInt(int64(math.Round(v)), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (f *rangeFilter) formatSpan(lo, hi float64) string {
	return f.formatValue(lo) + " to " + f.formatValue(hi)
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
