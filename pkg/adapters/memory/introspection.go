package memory

import (
	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Collections   map[string]int `json:"collections"`
	Subscriptions int            `json:"subscriptions"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sizes := make(map[string]int, len(s.collections))
	for name, col := range s.collections {
		sizes[name] = len(col.docs)
	}
	return StoreState{
		Collections:   sizes,
		Subscriptions: len(s.subs),
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "memory-store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
