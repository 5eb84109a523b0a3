package facet

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/facetbase/facetd/pkg/model"
)

// AlphabeticKind narrows by first letter, case-insensitively. It behaves like
// the universal kind with regard to suitability (any string field could carry
// it), so it never auto-matches and must be named explicitly in a binding.
type AlphabeticKind struct{}

func (AlphabeticKind) Name() string { return "alphabetic" }

func (AlphabeticKind) SuitableFor(Field) bool { return false }

func (AlphabeticKind) New(b Binding, f Field, value string, active bool, opts Options) (Filter, error) {
	if active {
		r, size := utf8.DecodeRuneInString(value)
		if size != len(value) || !unicode.IsLetter(r) {
			return nil, fmt.Errorf("field %q: invalid letter %q", f.Name, value)
		}
	}
	return &alphabeticFilter{base: base{
		kind:    "alphabetic",
		binding: b,
		field:   f,
		value:   strings.ToLower(value),
		active:  active,
		opts:    opts,
	}}, nil
}

type alphabeticFilter struct {
	base
}

func (f *alphabeticFilter) Narrow(ds Dataset) (Dataset, error) {
	return ds.Narrow(model.Filter{Field: f.Lookup(), Op: model.OpPrefix, Value: f.value}), nil
}

// Choices compresses the distinct values down to their first letters,
// combining the counts. Letters sort alphabetically regardless of usage.
func (f *alphabeticFilter) Choices(ctx context.Context, ds Dataset) ([]Choice, error) {
	counts, err := ds.ValueCounts(ctx, f.Lookup())
	if err != nil {
		return nil, err
	}

	letters := map[string]int64{}
	for _, vc := range counts {
		s := valueString(vc.Value)
		if s == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(s)
		letters[string(unicode.ToLower(r))] += vc.Count
	}

	choices := make([]Choice, 0, len(letters))
	for letter, count := range letters {
		choices = append(choices, f.choice(strings.ToUpper(letter), letter, count))
	}

	sortChoices(choices, false)
	return choices, nil
}
