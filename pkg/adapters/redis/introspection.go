package redis

import (
	"context"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Addr      string `json:"addr"`
	DB        int    `json:"db"`
	Connected bool   `json:"connected"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	opts := s.client.Options()
	return StoreState{
		Addr:      opts.Addr,
		DB:        opts.DB,
		Connected: s.Health(context.Background()) == nil,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "redis-store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
