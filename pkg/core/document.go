// Package core defines the document model, the store port, and the
// filtered view lifecycle that every adapter implements.
package core

// Fields represents the flexible key-value pairs of a document.
type Fields map[string]any

// Document is the central entity of the domain.
// It represents one record in a remote collection, identified by an ID.
// The engine never interprets document content beyond the fields a
// consumer asks for; everything except the ID is opaque.
type Document struct {
	ID     string
	Fields Fields
}

// String returns the named field as a string, or "" if absent or not a string.
func (d Document) String(field string) string {
	s, _ := d.Fields[field].(string)
	return s
}

// Bool returns the named field as a bool, or false if absent or not a bool.
func (d Document) Bool(field string) bool {
	b, _ := d.Fields[field].(bool)
	return b
}

// Clone returns a copy of the document with its own Fields map. A
// fieldless document clones to an empty map, never nil, so patches
// always have somewhere to land. Nested values are shared;
// projections treat them as read-only.
func (d Document) Clone() Document {
	fields := make(Fields, len(d.Fields))
	for k, v := range d.Fields {
		fields[k] = v
	}
	return Document{ID: d.ID, Fields: fields}
}

// CloneAll copies a snapshot so that the caller owns the slice and
// each document's Fields map.
func CloneAll(docs []Document) []Document {
	if docs == nil {
		return nil
	}
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = d.Clone()
	}
	return out
}
