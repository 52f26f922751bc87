package core

import "context"

// CancelFunc releases a subscription. Calling it more than once is a
// no-op; adapters must tolerate cancellation while a delivery is in
// flight.
type CancelFunc func()

// Store defines the contract with the remote document store.
// Adhering to this interface keeps the engine independent of the
// underlying backend (memory, filesystem, SQLite, Redis, ...).
//
// Deliveries for one subscription are serialized by the adapter: a
// snapshot callback never runs concurrently with another callback of
// the same subscription. Snapshots are complete replacements for the
// filtered collection, never deltas.
type Store interface {
	// Query performs a one-shot fetch of all documents in the
	// collection matching the filter, in insertion order.
	Query(ctx context.Context, collection string, filter Filter) ([]Document, error)

	// Subscribe attaches a live listener for the same filter.
	// onSnapshot receives a full replacement snapshot after every
	// relevant change; onError receives delivery failures without
	// terminating the subscription. The subscription lives until the
	// returned CancelFunc is called or ctx is done.
	Subscribe(ctx context.Context, collection string, filter Filter, onSnapshot func([]Document), onError func(error)) (CancelFunc, error)

	// Mutate applies a partial patch to one document. At-most-once:
	// a failed mutate is reported, never retried by the engine.
	Mutate(ctx context.Context, collection string, id string, patch Fields) error
}

// Putter is an optional write capability: creating or replacing whole
// documents. The read core never needs it; the publishing side
// (donations, alerts, seeds) asserts for it.
type Putter interface {
	Put(ctx context.Context, collection string, doc Document) error
}

// Deleter is an optional capability for removing documents.
type Deleter interface {
	Delete(ctx context.Context, collection string, id string) error
}
