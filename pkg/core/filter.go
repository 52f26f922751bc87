package core

import "fmt"

// Filter is a predicate over document fields. By contract the same
// filter drives both the one-shot query and the live subscription of
// a view; adapters must honor it identically in both paths.
//
// The zero Filter matches every document in the collection.
type Filter struct {
	Field string
	Value any
}

// Where builds an equality filter on a single field.
func Where(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.Field == ""
}

// Matches reports whether the document satisfies the filter.
func (f Filter) Matches(d Document) bool {
	if f.IsZero() {
		return true
	}
	v, ok := d.Fields[f.Field]
	if !ok {
		return false
	}
	if v == f.Value {
		return true
	}
	// Numeric and other scalar values may arrive with different
	// concrete types depending on the adapter (e.g. float64 after a
	// JSON round-trip). Compare their canonical forms.
	return fmt.Sprintf("%v", v) == fmt.Sprintf("%v", f.Value)
}

// String renders the filter for logs and introspection.
func (f Filter) String() string {
	if f.IsZero() {
		return "*"
	}
	return fmt.Sprintf("%s == %v", f.Field, f.Value)
}
