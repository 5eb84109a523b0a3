package facet

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"
)

// Filter is one facet of a filter list: it knows which request parameter it is
// driven by, whether it is currently active, how to narrow a dataset and how
// to generate selectable choices from one.
type Filter interface {
	// Kind returns the name of the filter kind that produced this filter.
	Kind() string

	// Param returns the request parameter the filter listens on.
	Param() string

	// Lookup returns the document lookup the filter narrows by.
	Lookup() string

	// Title returns the human-readable name for navigation blocks.
	Title() string

	// Active reports whether the request carried a value for this filter.
	Active() bool

	// Value returns the raw request value ("" when inactive).
	Value() string

	// Narrow applies the filter's predicate to the dataset. It must only be
	// called on active filters.
	Narrow(ds Dataset) (Dataset, error)

	// Choices generates the selectable options with usage counts, computed
	// against the given dataset.
	Choices(ctx context.Context, ds Dataset) ([]Choice, error)
}

// Choice is a single selectable option of a filter, annotated with the number
// of documents it would keep.
type Choice struct {
	Title  string `json:"title"`
	Value  string `json:"value"`
	Count  int64  `json:"count"`
	Active bool   `json:"active"`

	param string
}

// Encode returns the choice as a query string fragment ("param=value").
func (c Choice) Encode() string {
	return url.Values{c.param: []string{c.Value}}.Encode()
}

// base carries the state shared by all filter kinds.
type base struct {
	kind    string
	binding Binding
	field   Field
	value   string
	active  bool
	opts    Options
}

func (b *base) Kind() string   { return b.kind }
func (b *base) Param() string  { return b.binding.ParamName() }
func (b *base) Lookup() string { return b.binding.Lookup }
func (b *base) Title() string  { return b.field.DisplayTitle() }
func (b *base) Active() bool   { return b.active }
func (b *base) Value() string  { return b.value }

func (b *base) choice(title, value string, count int64) Choice {
	return Choice{
		Title:  title,
		Value:  value,
		Count:  count,
		Active: b.active && value == b.value,
		param:  b.binding.ParamName(),
	}
}

// sortChoices orders choices by usage (count descending, value ascending as
// tiebreak) or by value alone.
func sortChoices(choices []Choice, byUsage bool) {
	sort.SliceStable(choices, func(i, j int) bool {
		if byUsage && choices[i].Count != choices[j].Count {
			return choices[i].Count > choices[j].Count
		}
		return choices[i].Value < choices[j].Value
	})
}

// parseTyped converts a raw request value into the representation stored for
// the field, rejecting values that do not parse. This is the validation step
// between untrusted request input and query construction.
func parseTyped(f Field, raw string) (interface{}, error) {
	switch f.Type {
	case FieldInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("field %q: invalid integer %q", f.Name, raw)
		}
		return n, nil
	case FieldFloat:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("field %q: invalid number %q", f.Name, raw)
		}
		return n, nil
	case FieldBool:
		switch raw {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("field %q: invalid boolean %q", f.Name, raw)
	case FieldDate:
		if _, err := time.Parse(time.RFC3339, raw); err != nil {
			return nil, fmt.Errorf("field %q: invalid date %q", f.Name, raw)
		}
		return raw, nil
	default:
		return raw, nil
	}
}

// valueString renders a stored value in its canonical request-parameter form.
func valueString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprint(x)
	}
}
