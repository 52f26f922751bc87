// Package glean is the Composition Root for the Glean engine.
//
// It connects the reactive core (filtered collection views) with the
// storage adapters using the Hexagonal Architecture pattern.
//
// Philosophy:
//
// Glean keeps client-side projections of remote document collections
// continuously in sync. A view is opened with a filter, loads an
// initial snapshot, then replaces its projection wholesale on every
// live delivery. The core is backend-agnostic; adapters exist for
// memory, the filesystem, SQLite and Redis.
//
// Features:
//
//   - **Filtered Views**: one filter, one always-current projection.
//   - **Replacement Semantics**: snapshots replace, they never merge.
//   - **Resilient**: delivery failures keep the last-known-good data.
//   - **Notification Feed**: per-recipient feed, newest first.
//   - **NGO Directory**: read-only roster with integrity admission.
//   - **Extensible**: any backend implementing core.Store plugs in.
//
// Usage:
//
//	store, err := glean.NewStore(ctx, "./data",
//		glean.WithLogger(logger),
//	)
//
//	feed := glean.OpenFeed(ctx, store, "ngo-42")
//	defer feed.Close()
//	for range feed.Updates() {
//		render(feed.Notifications())
//	}
package glean
