package sqlite

import (
	"context"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	PollIntervalMS int64          `json:"poll_interval_ms"`
	Collections    map[string]int `json:"collections"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	sizes := make(map[string]int)
	rows, err := s.db.QueryxContext(context.Background(),
		`SELECT collection, COUNT(*) FROM documents GROUP BY collection`)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var name string
			var n int
			if rows.Scan(&name, &n) == nil {
				sizes[name] = n
			}
		}
	}
	return StoreState{
		PollIntervalMS: s.pollInterval.Milliseconds(),
		Collections:    sizes,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "sqlite-store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
