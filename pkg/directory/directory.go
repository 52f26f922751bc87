// Package directory presents the NGOs registered on the platform as
// a live selection list.
package directory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/glean/pkg/core"
)

// Collection is the store collection holding user profiles.
const Collection = "users"

// RoleField is the profile field the directory filters on.
const RoleField = "role"

// RoleNGO is the fixed role value of directory members.
const RoleNGO = "ngo"

// Entry is one NGO in the directory. Beyond the identifying fields
// the profile is opaque; Fields carries it verbatim.
type Entry struct {
	ID     string
	Name   string
	Fields core.Fields
}

// Directory is a read-only view over all users whose role is "ngo".
// No ordering is imposed; presentation decides. It exposes no
// mutation operations.
type Directory struct {
	view *core.View
}

type config struct {
	logger *slog.Logger
}

// Option configures a Directory at open time.
type Option func(*config)

// WithLogger sets the logger for the directory's view.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// Open opens the directory view. The handle returns immediately;
// observe Phase and Updates for progress, and Close on every exit
// path.
func Open(ctx context.Context, store core.Store, opts ...Option) *Directory {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	viewOpts := []core.ViewOption{core.WithAdmission(admit)}
	if cfg.logger != nil {
		viewOpts = append(viewOpts, core.WithLogger(cfg.logger))
	}

	return &Directory{
		view: core.Open(ctx, store, Collection, core.Where(RoleField, RoleNGO), viewOpts...),
	}
}

// admit enforces the directory's data-integrity rule: a surfaced
// profile must actually carry the filtered role, and must have a
// name to be selectable.
func admit(d core.Document) error {
	if d.String(RoleField) != RoleNGO {
		return fmt.Errorf("role is %q, want %q", d.String(RoleField), RoleNGO)
	}
	if d.String("name") == "" {
		return fmt.Errorf("profile has no name")
	}
	return nil
}

// Entries returns the current projection as directory entries.
func (d *Directory) Entries() []Entry {
	docs := d.view.Projection()
	out := make([]Entry, 0, len(docs))
	for _, doc := range docs {
		out = append(out, Entry{
			ID:     doc.ID,
			Name:   doc.String("name"),
			Fields: doc.Fields,
		})
	}
	return out
}

// Phase returns the lifecycle signal of the underlying view.
func (d *Directory) Phase() core.Phase { return d.view.Phase() }

// Reason returns the error that moved the directory to Errored, if any.
func (d *Directory) Reason() error { return d.view.Reason() }

// Updates signals projection changes; consumers re-read on wake-up.
func (d *Directory) Updates() <-chan struct{} { return d.view.Updates() }

// Errs carries query, subscription, and integrity errors.
func (d *Directory) Errs() <-chan error { return d.view.Errs() }

// Close releases the subscription. Idempotent.
func (d *Directory) Close() { d.view.Close() }

// View exposes the underlying view, mainly for introspection.
func (d *Directory) View() *core.View { return d.view }
