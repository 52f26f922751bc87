// Package memory implements core.Store with an in-process document
// store. It is the default backend for tests, examples and the CLI
// when no URI is given.
package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/glean/pkg/core"
)

// Store is a thread-safe in-memory document store with live
// subscriptions. Documents keep their insertion order per collection.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	subs        map[int64]*subscription
	nextSub     int64
	seq         int64
	logger      *slog.Logger
}

type collection struct {
	docs map[string]entry
}

type entry struct {
	doc core.Document
	seq int64
}

// subscription is one live listener. Deliveries are serialized by a
// dedicated dispatcher goroutine; writes only ping the wake channel,
// so a slow consumer coalesces intermediate snapshots instead of
// blocking writers.
type subscription struct {
	id         int64
	collection string
	filter     core.Filter
	onSnapshot func([]core.Document)
	onError    func(error)
	wake       chan struct{}
	done       chan struct{}
	once       sync.Once
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for dispatcher events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates an empty in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		collections: make(map[string]*collection),
		subs:        make(map[int64]*subscription),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query returns all matching documents in insertion order.
func (s *Store) Query(_ context.Context, collection string, filter core.Filter) ([]core.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(collection, filter), nil
}

// snapshotLocked builds a filtered, insertion-ordered snapshot.
// Callers must hold at least the read lock.
func (s *Store) snapshotLocked(name string, filter core.Filter) []core.Document {
	col, ok := s.collections[name]
	if !ok {
		return []core.Document{}
	}
	entries := make([]entry, 0, len(col.docs))
	for _, e := range col.docs {
		if filter.Matches(e.doc) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	docs := make([]core.Document, len(entries))
	for i, e := range entries {
		docs[i] = e.doc.Clone()
	}
	return docs
}

// Subscribe attaches a live listener. The dispatcher goroutine runs
// until the returned cancel is called or ctx is done. A baseline
// snapshot is delivered at attach, so a write landing between a
// caller's query and this call is not lost.
func (s *Store) Subscribe(ctx context.Context, collection string, filter core.Filter, onSnapshot func([]core.Document), onError func(error)) (core.CancelFunc, error) {
	sub := &subscription{
		collection: collection,
		filter:     filter,
		onSnapshot: onSnapshot,
		onError:    onError,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	sub.wake <- struct{}{} // baseline delivery

	s.mu.Lock()
	s.nextSub++
	sub.id = s.nextSub
	s.subs[sub.id] = sub
	s.mu.Unlock()

	lifecycle.Go(ctx, func(ctx context.Context) error {
		s.dispatch(ctx, sub)
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("memory dispatcher failed", "collection", collection, "error", err)
	}))

	cancel := func() {
		sub.once.Do(func() {
			s.mu.Lock()
			delete(s.subs, sub.id)
			s.mu.Unlock()
			close(sub.done)
		})
	}
	return cancel, nil
}

// dispatch delivers snapshots for one subscription. Wakes coalesce:
// however many writes happened since the last delivery, the consumer
// sees one current snapshot.
func (s *Store) dispatch(ctx context.Context, sub *subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.done:
			return
		case <-sub.wake:
		}

		s.mu.RLock()
		docs := s.snapshotLocked(sub.collection, sub.filter)
		s.mu.RUnlock()

		select {
		case <-sub.done:
			return
		default:
		}
		sub.onSnapshot(docs)
	}
}

// notifyLocked pings every subscription on the collection. Callers
// must hold the write lock.
func (s *Store) notifyLocked(collection string) {
	for _, sub := range s.subs {
		if sub.collection != collection {
			continue
		}
		select {
		case sub.wake <- struct{}{}:
		default: // already pending, coalesce
		}
	}
}

// Put creates or replaces a document. A replaced document keeps its
// original position in insertion order.
func (s *Store) Put(_ context.Context, name string, doc core.Document) error {
	if doc.ID == "" {
		return core.ErrNoID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[name]
	if !ok {
		col = &collection{docs: make(map[string]entry)}
		s.collections[name] = col
	}
	var seq int64
	if existing, ok := col.docs[doc.ID]; ok {
		seq = existing.seq
	} else {
		s.seq++
		seq = s.seq
	}
	col.docs[doc.ID] = entry{doc: doc.Clone(), seq: seq}
	s.notifyLocked(name)
	return nil
}

// Mutate applies a partial patch to one document.
func (s *Store) Mutate(_ context.Context, collection string, id string, patch core.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[collection]
	if !ok {
		return core.ErrNotFound
	}
	e, ok := col.docs[id]
	if !ok {
		return core.ErrNotFound
	}
	doc := e.doc.Clone()
	for k, v := range patch {
		doc.Fields[k] = v
	}
	col.docs[id] = entry{doc: doc, seq: e.seq}
	s.notifyLocked(collection)
	return nil
}

// Delete removes a document. Deleting a missing document is an error.
func (s *Store) Delete(_ context.Context, collection string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[collection]
	if !ok {
		return core.ErrNotFound
	}
	if _, ok := col.docs[id]; !ok {
		return core.ErrNotFound
	}
	delete(col.docs, id)
	s.notifyLocked(collection)
	return nil
}
