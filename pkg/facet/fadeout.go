package facet

import (
	"context"
	"fmt"
	"time"

	"github.com/facetbase/facetd/pkg/model"
)

// DateFadeoutKind represents dates as single-level categories by remoteness
// from now: today, the past week, this month, this year, or any date. It
// claims date fields alongside DateDrilldownKind; the registry forces the
// choice between them to be explicit.
type DateFadeoutKind struct{}

func (DateFadeoutKind) Name() string { return "date_fadeout" }

func (DateFadeoutKind) SuitableFor(f Field) bool { return f.Type == FieldDate }

type fadeoutBucket struct {
	value string
	title string
}

var fadeoutBuckets = []fadeoutBucket{
	{"today", "Today"},
	{"past_7_days", "Past 7 days"},
	{"this_month", "This month"},
	{"this_year", "This year"},
	{"any", "Any date"},
}

func (DateFadeoutKind) New(b Binding, f Field, value string, active bool, opts Options) (Filter, error) {
	if active {
		known := false
		for _, bucket := range fadeoutBuckets {
			if bucket.value == value {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("field %q: invalid date bucket %q", f.Name, value)
		}
	}
	return &fadeoutFilter{base: base{
		kind:    "date_fadeout",
		binding: b,
		field:   f,
		value:   value,
		active:  active,
		opts:    opts,
	}}, nil
}

type fadeoutFilter struct {
	base
}

// bound returns the inclusive lower bound of a bucket, or false for "any".
func (f *fadeoutFilter) bound(bucket string) (time.Time, bool) {
	now := f.opts.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch bucket {
	case "today":
		return midnight, true
	case "past_7_days":
		return midnight.AddDate(0, 0, -7), true
	case "this_month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), true
	case "this_year":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC), true
	default:
		return time.Time{}, false
	}
}

func (f *fadeoutFilter) Narrow(ds Dataset) (Dataset, error) {
	lower, ok := f.bound(f.value)
	if !ok {
		return ds, nil // "any" keeps everything
	}
	return ds.Narrow(model.Filter{Field: f.Lookup(), Op: model.OpGte, Value: lower.Format(time.RFC3339)}), nil
}

// Choices counts, for each remoteness bucket, the documents at or after its
// lower bound. Buckets keep their fixed order and nest by construction: a
// document counted under "today" is also counted under "this year".
func (f *fadeoutFilter) Choices(ctx context.Context, ds Dataset) ([]Choice, error) {
	counts, err := ds.ValueCounts(ctx, f.Lookup())
	if err != nil {
		return nil, err
	}

	choices := make([]Choice, 0, len(fadeoutBuckets))
	for _, bucket := range fadeoutBuckets {
		lower, bounded := f.bound(bucket.value)
		var total int64
		for _, vc := range counts {
			t, perr := time.Parse(time.RFC3339, valueString(vc.Value))
			if perr != nil {
				continue
			}
			if !bounded || !t.Before(lower) {
				total += vc.Count
			}
		}
		choices = append(choices, f.choice(bucket.title, bucket.value, total))
	}
	return choices, nil
}
