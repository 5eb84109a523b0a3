package facet

import (
	"context"
	"fmt"
	"time"

	"github.com/facetbase/facetd/pkg/model"
)

// DateDrilldownKind represents dates as nested levels for year, month and
// day. The request value is the drilldown path: "2024" narrows to a year and
// offers months, "2024-06" narrows to a month and offers days. It claims date
// fields, as does DateFadeoutKind, so a date binding without an explicit kind
// is therefore rejected as ambiguous by the registry.
type DateDrilldownKind struct{}

func (DateDrilldownKind) Name() string { return "date_drilldown" }

func (DateDrilldownKind) SuitableFor(f Field) bool { return f.Type == FieldDate }

// drilldown period layouts, outermost first.
var drilldownLayouts = []string{"2006", "2006-01", "2006-01-02"}

func (DateDrilldownKind) New(b Binding, f Field, value string, active bool, opts Options) (Filter, error) {
	flt := &drilldownFilter{base: base{
		kind:    "date_drilldown",
		binding: b,
		field:   f,
		value:   value,
		active:  active,
		opts:    opts,
	}, depth: -1}

	if active {
		for depth, layout := range drilldownLayouts {
			t, err := time.Parse(layout, value)
			if err == nil {
				flt.depth = depth
				flt.start = t
				return flt, nil
			}
		}
		return nil, fmt.Errorf("field %q: invalid drilldown period %q", f.Name, value)
	}
	return flt, nil
}

type drilldownFilter struct {
	base
	depth int // -1 inactive, 0 year, 1 month, 2 day
	start time.Time
}

func (f *drilldownFilter) span() (time.Time, time.Time) {
	switch f.depth {
	case 0:
		return f.start, f.start.AddDate(1, 0, 0)
	case 1:
		return f.start, f.start.AddDate(0, 1, 0)
	default:
		return f.start, f.start.AddDate(0, 0, 1)
	}
}

func (f *drilldownFilter) Narrow(ds Dataset) (Dataset, error) {
	start, end := f.span()
	return ds.Narrow(
		model.Filter{Field: f.Lookup(), Op: model.OpGte, Value: start.UTC().Format(time.RFC3339)},
		model.Filter{Field: f.Lookup(), Op: model.OpLt, Value: end.UTC().Format(time.RFC3339)},
	), nil
}

// Choices buckets the dataset's dates one level below the current drilldown
// depth: years when inactive, months within the chosen year, days within the
// chosen month. Buckets are chronological; usage sorting does not apply.
func (f *drilldownFilter) Choices(ctx context.Context, ds Dataset) ([]Choice, error) {
	counts, err := ds.ValueCounts(ctx, f.Lookup())
	if err != nil {
		return nil, err
	}

	nextDepth := f.depth + 1
	if nextDepth >= len(drilldownLayouts) {
		nextDepth = len(drilldownLayouts) - 1
	}
	layout := drilldownLayouts[nextDepth]

	start, end := f.span()
	buckets := map[string]int64{}
	for _, vc := range counts {
		t, perr := time.Parse(time.RFC3339, valueString(vc.Value))
		if perr != nil {
			continue
		}
		if f.depth >= 0 && (t.Before(start) || !t.Before(end)) {
			continue
		}
		buckets[t.UTC().Format(layout)] += vc.Count
	}

	choices := make([]Choice, 0, len(buckets))
	for bucket, count := range buckets {
		choices = append(choices, f.choice(bucket, bucket, count))
	}
	sortChoices(choices, false)
	return choices, nil
}
