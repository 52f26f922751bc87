package core

import (
	"github.com/aretw0/introspection"
)

// ViewState exposes internal state for observability.
type ViewState struct {
	Collection string `json:"collection"`
	Filter     string `json:"filter"`
	Phase      string `json:"phase"`
	Size       int    `json:"size"`
	Deliveries uint64 `json:"deliveries"`
	Subscribed bool   `json:"subscribed"`
}

// State implements introspection.Introspectable.
func (v *View) State() any {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return ViewState{
		Collection: v.collection,
		Filter:     v.filter.String(),
		Phase:      v.phase.String(),
		Size:       len(v.projection),
		Deliveries: v.deliveries,
		Subscribed: v.cancel != nil,
	}
}

// ComponentType implements introspection.Component.
func (v *View) ComponentType() string {
	return "view"
}

var _ introspection.Introspectable = (*View)(nil)
var _ introspection.Component = (*View)(nil)
