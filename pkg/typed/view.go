// Package typed provides type-safe wrappers over the raw document
// views. A Decoder turns store documents into domain structs; items
// that fail to decode are skipped rather than poisoning the
// projection.
package typed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/glean/pkg/core"
)

// Decoder converts a raw document into a typed value.
type Decoder[T any] func(core.Document) (T, error)

// JSONDecoder builds a Decoder that unmarshals document fields into T
// via JSON. The document ID is written into an "id" field first, so
// structs with an `json:"id"` tag pick it up.
func JSONDecoder[T any]() Decoder[T] {
	return func(doc core.Document) (T, error) {
		var v T
		fields := doc.Clone().Fields
		fields["id"] = doc.ID
		data, err := json.Marshal(fields)
		if err != nil {
			return v, fmt.Errorf("marshal fields of %s: %w", doc.ID, err)
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return v, fmt.Errorf("decode %s: %w", doc.ID, err)
		}
		return v, nil
	}
}

// View wraps a core.View to expose its projection as typed values.
type View[T any] struct {
	view   *core.View
	decode Decoder[T]
}

// NewView wraps an already-open view. The wrapper shares the view's
// lifecycle; closing either closes both.
func NewView[T any](view *core.View, decode Decoder[T]) *View[T] {
	return &View[T]{view: view, decode: decode}
}

// Open opens a view on the collection and wraps it in one call.
func Open[T any](ctx context.Context, store core.Store, collection string, filter core.Filter, decode Decoder[T], opts ...core.ViewOption) *View[T] {
	return NewView(core.Open(ctx, store, collection, filter, opts...), decode)
}

// Items decodes the current projection. Documents that fail to decode
// are skipped.
func (v *View[T]) Items() []T {
	docs := v.view.Projection()
	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, err := v.decode(doc)
		if err != nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

// Phase reports the lifecycle phase of the underlying view.
func (v *View[T]) Phase() core.Phase { return v.view.Phase() }

// Reason reports why the view is Errored, if it is.
func (v *View[T]) Reason() error { return v.view.Reason() }

// Updates signals projection changes.
func (v *View[T]) Updates() <-chan struct{} { return v.view.Updates() }

// Errs surfaces non-terminal errors.
func (v *View[T]) Errs() <-chan error { return v.view.Errs() }

// Close releases the underlying view.
func (v *View[T]) Close() { v.view.Close() }

// Raw exposes the wrapped view.
func (v *View[T]) Raw() *core.View { return v.view }
