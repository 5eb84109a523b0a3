package model

// Order represents a sort order.
type Order struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // "asc" or "desc"
}

// Query represents a database query. Queries are values: Narrow returns a
// derived copy, the receiver is never mutated. Nothing is executed until a
// storage backend is asked to run the query.
type Query struct {
	Collection string  `json:"collection"`
	Filters    Filters `json:"filters,omitempty"`
	OrderBy    []Order `json:"orderBy,omitempty"`
	Limit      int     `json:"limit,omitempty"`
	Offset     int     `json:"offset,omitempty"`
}

// Narrow returns a copy of q with the given filters appended.
func (q Query) Narrow(filters ...Filter) Query {
	combined := make(Filters, 0, len(q.Filters)+len(filters))
	combined = append(combined, q.Filters...)
	combined = append(combined, filters...)
	q.Filters = combined
	return q
}

// Validate checks if the query is well formed.
func (q Query) Validate() error {
	if q.Collection == "" {
		return ErrInvalidQuery
	}
	if !q.Filters.Validate() {
		return ErrInvalidQuery
	}
	for _, o := range q.OrderBy {
		if o.Field == "" {
			return ErrInvalidQuery
		}
		if o.Direction != "" && o.Direction != "asc" && o.Direction != "desc" {
			return ErrInvalidQuery
		}
	}
	if q.Limit < 0 || q.Offset < 0 {
		return ErrInvalidQuery
	}
	return nil
}

// ValueCount is one distinct value of a field together with the number of
// documents referencing it.
type ValueCount struct {
	Value interface{} `json:"value"`
	Count int64       `json:"count"`
}
