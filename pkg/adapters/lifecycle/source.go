// Package lifecycle bridges view update signals to the generic
// lifecycle event runtime, so applications can drive render or
// refresh loops from a lifecycle.Source.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/glean/pkg/core"
)

// Update is emitted every time the observed view's projection
// changes.
type Update struct {
	Collection string
	Size       int
	At         time.Time
}

// String implements lifecycle.Event.
func (u Update) String() string {
	return fmt.Sprintf("view update: %s (%d documents)", u.Collection, u.Size)
}

type viewSource struct {
	view       *core.View
	collection string
	out        chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits an Update for every
// projection change of the view. The collection name is carried in
// the events for labeling only.
func NewSource(view *core.View, collection string) lifecycle.Source {
	return &viewSource{
		view:       view,
		collection: collection,
		out:        make(chan lifecycle.Event),
	}
}

func (s *viewSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *viewSource) Start(ctx context.Context) error {
	// Uses lifecycle.Go so the bridge itself is tracked and safe.
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case _, ok := <-s.view.Updates():
				if !ok {
					return nil
				}
				event := Update{
					Collection: s.collection,
					Size:       s.view.Len(),
					At:         time.Now(),
				}
				select {
				case s.out <- event:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
