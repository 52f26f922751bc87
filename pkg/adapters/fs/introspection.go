package fs

import (
	"os"
	"strings"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Path        string         `json:"path"`
	DebounceMS  int64          `json:"debounce_ms"`
	Collections map[string]int `json:"collections"`
	Watchers    int64          `json:"watchers"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	sizes := make(map[string]int)
	entries, err := os.ReadDir(s.Path)
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			docs, err := os.ReadDir(s.Path + "/" + e.Name())
			if err != nil {
				continue
			}
			n := 0
			for _, d := range docs {
				if !d.IsDir() && strings.HasSuffix(d.Name(), docExt) {
					n++
				}
			}
			sizes[e.Name()] = n
		}
	}
	return StoreState{
		Path:        s.Path,
		DebounceMS:  s.config.Debounce.Milliseconds(),
		Collections: sizes,
		Watchers:    watchers.Load(),
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "fs-store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
