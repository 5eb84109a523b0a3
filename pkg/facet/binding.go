package facet

import "time"

// Binding couples a document lookup with the request parameter that drives it
// and, optionally, an explicit filter kind. When Param is empty the parameter
// is assumed to have the same name as the lookup. When Kind is empty the kind
// is resolved from the field metadata by the registry.
type Binding struct {
	Lookup string `yaml:"lookup" json:"lookup"`
	Param  string `yaml:"param,omitempty" json:"param,omitempty"`
	Kind   string `yaml:"kind,omitempty" json:"kind,omitempty"`
}

// ParamName returns the request parameter the binding listens on.
func (b Binding) ParamName() string {
	if b.Param != "" {
		return b.Param
	}
	return b.Lookup
}

// Options tune how a filter list behaves.
type Options struct {
	// Single activates only the first binding whose parameter is present,
	// even if the request carries values for several bound parameters.
	Single bool

	// SortByUsage orders choices by usage count, most referenced on top.
	// Kinds with an inherent order (dates, alphabet) ignore it.
	SortByUsage bool

	// Now supplies the clock for date-based kinds. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}
