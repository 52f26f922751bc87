package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/glean/pkg/core"
)

// Feed is a view over one recipient's notifications. It inherits the
// view lifecycle (Loading/Live/Errored/Closed, replacement snapshots,
// idempotent close) and adds the newest-first total order plus the
// read-state transition.
type Feed struct {
	store      core.Store
	collection string
	view       *core.View
}

type config struct {
	collection string
	logger     *slog.Logger
}

// Option configures a Feed at open time.
type Option func(*config)

// WithCollection overrides the notification collection name.
func WithCollection(name string) Option {
	return func(c *config) { c.collection = name }
}

// WithLogger sets the logger for the feed's view.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// Open opens a feed for one recipient. The handle returns
// immediately; observe Phase and Updates for progress, and Close on
// every exit path.
func Open(ctx context.Context, store core.Store, recipientID string, opts ...Option) *Feed {
	cfg := config{collection: Collection}
	for _, opt := range opts {
		opt(&cfg)
	}

	viewOpts := []core.ViewOption{core.WithOrdering(ByNewest)}
	if cfg.logger != nil {
		viewOpts = append(viewOpts, core.WithLogger(cfg.logger))
	}

	return &Feed{
		store:      store,
		collection: cfg.collection,
		view:       core.Open(ctx, store, cfg.collection, core.Where(RecipientField, recipientID), viewOpts...),
	}
}

// Notifications returns the current projection decoded into entries,
// newest first. Documents that do not decode are skipped; the raw
// projection remains available through Documents.
func (f *Feed) Notifications() []Notification {
	docs := f.view.Projection()
	out := make([]Notification, 0, len(docs))
	for _, d := range docs {
		n, err := FromDocument(d)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Documents returns the raw ordered projection.
func (f *Feed) Documents() []core.Document {
	return f.view.Projection()
}

// Unread counts entries not yet marked read.
func (f *Feed) Unread() int {
	count := 0
	for _, d := range f.view.Projection() {
		if !d.Bool("read") {
			count++
		}
	}
	return count
}

// MarkRead flags one notification as read through the store.
// Fire-and-forget for the projection: the local state is NOT updated
// here — the change becomes visible only once the subscription
// redelivers the updated snapshot. A failed write is returned to the
// caller and never retried.
func (f *Feed) MarkRead(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("notification ID is empty")
	}
	if err := f.store.Mutate(ctx, f.collection, id, core.Fields{"read": true}); err != nil {
		markReadFailures.Inc()
		return &core.MutateError{Collection: f.collection, ID: id, Err: err}
	}
	return nil
}

// Phase returns the lifecycle signal of the underlying view.
func (f *Feed) Phase() core.Phase { return f.view.Phase() }

// Reason returns the error that moved the feed to Errored, if any.
func (f *Feed) Reason() error { return f.view.Reason() }

// Updates signals projection changes; consumers re-read on wake-up.
func (f *Feed) Updates() <-chan struct{} { return f.view.Updates() }

// Errs carries query, subscription, and integrity errors.
func (f *Feed) Errs() <-chan error { return f.view.Errs() }

// Close releases the subscription. Idempotent.
func (f *Feed) Close() { f.view.Close() }

// View exposes the underlying view, mainly for introspection.
func (f *Feed) View() *core.View { return f.view }
