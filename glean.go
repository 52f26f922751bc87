package glean

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/glean/internal/platform"
	"github.com/aretw0/glean/pkg/core"
	"github.com/aretw0/glean/pkg/directory"
	"github.com/aretw0/glean/pkg/donation"
	"github.com/aretw0/glean/pkg/feed"
	"github.com/aretw0/glean/pkg/typed"
)

// --- Types ---

// Document is a public alias for the raw store record.
type Document = core.Document

// Fields is a public alias for a document's key-value pairs.
type Fields = core.Fields

// Filter is a public alias for the single-field equality filter.
type Filter = core.Filter

// View is a public alias for the raw collection view.
type View = core.View

// Phase is a public alias for the view lifecycle signal.
type Phase = core.Phase

// Store is a public alias for the backend contract.
type Store = core.Store

// Putter is a public alias for the optional whole-document write
// capability.
type Putter = core.Putter

// TypedView is a public alias for the type-safe view wrapper.
type TypedView[T any] = typed.View[T]

// Notification is a public alias for one feed entry.
type Notification = feed.Notification

// FoodDetails is a public alias for a donation notification payload.
type FoodDetails = feed.FoodDetails

// DisasterDetails is a public alias for a disaster alert payload.
type DisasterDetails = feed.DisasterDetails

// Donation is a public alias for a donation record.
type Donation = donation.Donation

const (
	PhaseLoading = core.PhaseLoading
	PhaseLive    = core.PhaseLive
	PhaseErrored = core.PhaseErrored
	PhaseClosed  = core.PhaseClosed
)

// Where builds a single-field equality filter.
func Where(field string, value any) Filter {
	return core.Where(field, value)
}

// --- Configuration ---

// Option defines a functional option for configuring Glean.
type Option = platform.Option

// WithLogger sets the logger for the engine and its adapters.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStore allows injecting a custom storage adapter.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithAdapter allows specifying the storage adapter to use by name
// ("memory", "fs", "sqlite", "redis").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithMustExist ensures the data directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithDebounce sets the filesystem watch settle window.
func WithDebounce(d time.Duration) Option {
	return platform.WithDebounce(d)
}

// WithPollInterval sets the sqlite subscription poll interval.
func WithPollInterval(d time.Duration) Option {
	return platform.WithPollInterval(d)
}

// --- Factory ---

// NewStore builds a store from a URI. The adapter is inferred from
// the URI shape unless WithAdapter overrides it: empty for memory, a
// redis:// URL for redis, a .db/.sqlite path for sqlite, any other
// path for the filesystem adapter.
func NewStore(ctx context.Context, uri string, opts ...Option) (core.Store, error) {
	return platform.Init(ctx, uri, opts...)
}

// --- Views ---

// OpenView opens a raw filtered view on a collection.
func OpenView(ctx context.Context, store core.Store, collection string, filter Filter, opts ...core.ViewOption) *View {
	return core.Open(ctx, store, collection, filter, opts...)
}

// OpenTypedView opens a view and decodes its projection into T via
// JSON field tags.
func OpenTypedView[T any](ctx context.Context, store core.Store, collection string, filter Filter, opts ...core.ViewOption) *TypedView[T] {
	return typed.Open(ctx, store, collection, filter, typed.JSONDecoder[T](), opts...)
}

// OpenFeed opens the notification feed of one recipient, newest
// first.
func OpenFeed(ctx context.Context, store core.Store, recipientID string, opts ...feed.Option) *feed.Feed {
	return feed.Open(ctx, store, recipientID, opts...)
}

// OpenDirectory opens the live directory of registered NGOs.
func OpenDirectory(ctx context.Context, store core.Store, opts ...directory.Option) *directory.Directory {
	return directory.Open(ctx, store, opts...)
}

// --- Services ---

// NewPublisher creates a notification publisher over a writable
// store.
func NewPublisher(store core.Putter, opts ...feed.PublisherOption) *feed.Publisher {
	return feed.NewPublisher(store, opts...)
}

// NewDonationService creates the donation submission service. The
// publisher may be nil to record donations without notifying.
func NewDonationService(store core.Putter, publisher *feed.Publisher, opts ...donation.ServiceOption) *donation.Service {
	return donation.NewService(store, publisher, opts...)
}

// --- Utils ---

// FindRoot recursively looks upwards for a glean data root indicator.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
