package facet

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownKind is returned when a binding names a kind that is not registered.
	ErrUnknownKind = errors.New("unknown filter kind")
	// ErrAmbiguousKind is returned when automatic kind selection is ambiguous.
	// Ambiguity is a configuration error: the binding must name a kind explicitly.
	ErrAmbiguousKind = errors.New("ambiguous filter kind")
	// ErrUnknownField is returned when a binding references a field the schema
	// does not declare.
	ErrUnknownField = errors.New("unknown field")
)

// Kind constructs filters of one flavor and decides which fields it is
// suitable for when no kind is named explicitly.
type Kind interface {
	// Name is the identifier bindings use to select the kind explicitly.
	Name() string

	// SuitableFor reports whether the kind applies to the field by type.
	// Kinds that narrow like the universal fallback must return false here
	// and rely on explicit selection instead.
	SuitableFor(f Field) bool

	// New builds a filter for the binding. value is the raw request value
	// ("" when the filter is inactive); active filters must validate it.
	New(b Binding, f Field, value string, active bool, opts Options) (Filter, error)
}

// Registry holds the known filter kinds. Explicit kind names in a binding
// always win; automatic selection by suitability is only a fallback and must
// be unambiguous. When several registered kinds claim the same field the
// registry refuses to pick one.
type Registry struct {
	order    []Kind
	byName   map[string]Kind
	fallback Kind
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]Kind{}}
}

// Register adds a kind. Kinds registered here participate in automatic
// selection through their SuitableFor test.
func (r *Registry) Register(k Kind) error {
	if _, dup := r.byName[k.Name()]; dup {
		return fmt.Errorf("filter kind %q already registered", k.Name())
	}
	r.byName[k.Name()] = k
	r.order = append(r.order, k)
	return nil
}

// SetFallback sets the kind used when no registered kind claims a field.
// The fallback never makes a match ambiguous.
func (r *Registry) SetFallback(k Kind) {
	r.byName[k.Name()] = k
	r.fallback = k
}

// Kind returns a registered kind by name.
func (r *Registry) Kind(name string) (Kind, bool) {
	k, ok := r.byName[name]
	return k, ok
}

// Resolve picks the kind for a field. A non-empty explicit name is the
// developer's choice and is honored as long as it is registered. Otherwise
// exactly one registered kind must claim the field; zero claims fall back to
// the fallback kind, two or more are rejected as ambiguous.
func (r *Registry) Resolve(f Field, explicit string) (Kind, error) {
	if explicit != "" {
		k, ok := r.byName[explicit]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, explicit)
		}
		return k, nil
	}

	var matches []Kind
	for _, k := range r.order {
		if k.SuitableFor(f) {
			matches = append(matches, k)
		}
	}

	switch len(matches) {
	case 0:
		if r.fallback == nil {
			return nil, fmt.Errorf("%w: no kind suits field %q", ErrUnknownKind, f.Name)
		}
		return r.fallback, nil
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, k := range matches {
			names[i] = k.Name()
		}
		return nil, fmt.Errorf("%w: field %q suits %s; name one explicitly",
			ErrAmbiguousKind, f.Name, strings.Join(names, ", "))
	}
}

// DefaultRegistry returns a registry with the built-in kinds. Boolean,
// relation and the two date kinds participate in automatic selection; both
// date kinds claim date fields, so a date binding without an explicit kind is
// rejected as ambiguous. Alphabetic and range narrow arbitrary fields and are
// available by name only. AllValues is the universal fallback.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, k := range []Kind{
		BooleanKind{},
		RelationKind{},
		DateDrilldownKind{},
		DateFadeoutKind{},
		AlphabeticKind{},
		RangeKind{},
	} {
		if err := r.Register(k); err != nil {
			panic(err)
		}
	}
	r.SetFallback(AllValuesKind{})
	return r
}
