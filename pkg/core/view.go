package core

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/lifecycle"
)

// Phase is the consumer-visible lifecycle signal of a view.
type Phase int

const (
	// PhaseLoading means the initial query is still outstanding.
	PhaseLoading Phase = iota
	// PhaseLive means the projection is populated and the
	// subscription keeps it current.
	PhaseLive
	// PhaseErrored means the initial query failed. No subscription
	// was opened; the consumer must open a fresh view to retry.
	PhaseErrored
	// PhaseClosed means the view was disposed. Terminal.
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLive:
		return "live"
	case PhaseErrored:
		return "errored"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Ordering is a strict-weak "less" over documents. When set, the
// projection is re-sorted after the initial query and after every
// delivery, since snapshots arrive unsorted.
type Ordering func(a, b Document) bool

// Admission validates a document before it enters the projection.
// A non-nil error withholds the document and surfaces an
// IntegrityError on the error channel.
type Admission func(d Document) error

// View maintains an always-current, ordered, duplicate-free
// projection of the documents matching one filter. It reconciles the
// one-shot query with the live subscription so consumers never have
// to merge the two sources themselves.
//
// Lifecycle: Open returns immediately in PhaseLoading; the initial
// query runs on a managed goroutine. On success the projection is
// installed and a subscription for the identical filter attached
// (PhaseLive). On failure the view is PhaseErrored and no
// subscription is ever attempted. Close releases the subscription
// exactly once and is idempotent; store responses arriving after
// Close are discarded silently.
type View struct {
	store      Store
	collection string
	filter     Filter

	ordering Ordering
	admit    Admission
	logger   *slog.Logger

	mu         sync.RWMutex
	phase      Phase
	reason     error
	projection []Document
	cancel     CancelFunc
	deliveries uint64

	errs    chan error
	updates chan struct{}
}

// ViewOption configures a View at open time.
type ViewOption func(*View)

// WithOrdering sets the projection ordering policy.
func WithOrdering(o Ordering) ViewOption {
	return func(v *View) { v.ordering = o }
}

// WithAdmission sets the data-integrity rule for admitted documents.
func WithAdmission(a Admission) ViewOption {
	return func(v *View) { v.admit = a }
}

// WithLogger sets the logger for the view.
func WithLogger(logger *slog.Logger) ViewOption {
	return func(v *View) { v.logger = logger }
}

// WithErrorBuffer sets the capacity of the error channel.
// Zero means default (16). Errors beyond capacity are dropped after
// being logged; the projection is never affected by backpressure.
func WithErrorBuffer(size int) ViewOption {
	return func(v *View) {
		if size > 0 {
			v.errs = make(chan error, size)
		}
	}
}

// Open creates a view over (collection, filter) against the store.
// It returns the handle immediately; observe Phase and Updates for
// progress. The caller must Close the view on every exit path of its
// own lifecycle, or the subscription leaks.
func Open(ctx context.Context, store Store, collection string, filter Filter, opts ...ViewOption) *View {
	v := &View{
		store:      store,
		collection: collection,
		filter:     filter,
		phase:      PhaseLoading,
		errs:       make(chan error, 16),
		updates:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(v)
	}

	viewsActive.Inc()

	lifecycle.Go(ctx, v.load, lifecycle.WithErrorHandler(func(err error) {
		// load never returns an error; this catches panics escaping
		// a store implementation.
		v.report(&QueryError{Collection: collection, Err: err})
	}))

	return v
}

// load runs the open sequence: one-shot query, then subscription.
func (v *View) load(ctx context.Context) error {
	docs, err := v.store.Query(ctx, v.collection, v.filter)

	v.mu.Lock()
	if v.phase == PhaseClosed {
		// Disposed before the query resolved. Discard the result and
		// do not subscribe.
		v.mu.Unlock()
		return nil
	}
	if err != nil {
		qerr := &QueryError{Collection: v.collection, Err: err}
		v.phase = PhaseErrored
		v.reason = qerr
		v.mu.Unlock()
		queryFailures.Inc()
		v.report(qerr)
		v.wake()
		return nil
	}
	kept, violations := v.screen(docs)
	v.projection = kept
	v.phase = PhaseLive
	v.mu.Unlock()

	for _, verr := range violations {
		v.report(verr)
	}
	v.wake()

	cancel, err := v.store.Subscribe(ctx, v.collection, v.filter, v.deliver, v.delivered)
	if err != nil {
		// The projection stays at the query result; the consumer is
		// told the view will not receive live updates.
		v.report(&SubscriptionError{Collection: v.collection, Err: err})
		return nil
	}

	v.mu.Lock()
	if v.phase == PhaseClosed {
		v.mu.Unlock()
		cancel()
		return nil
	}
	v.cancel = cancel
	v.mu.Unlock()
	return nil
}

// deliver replaces the projection with a subscription snapshot.
func (v *View) deliver(docs []Document) {
	v.mu.Lock()
	if v.phase == PhaseClosed {
		v.mu.Unlock()
		return
	}
	kept, violations := v.screen(docs)
	v.projection = kept
	v.deliveries++
	v.mu.Unlock()

	snapshotDeliveries.Inc()
	for _, verr := range violations {
		v.report(verr)
	}
	v.wake()
}

// delivered handles a failed delivery. Last known good wins: the
// projection is left untouched and the subscription stays open.
func (v *View) delivered(err error) {
	subscriptionFailures.Inc()
	v.report(&SubscriptionError{Collection: v.collection, Err: err})
}

// screen applies admission and ordering to a raw snapshot.
func (v *View) screen(docs []Document) ([]Document, []error) {
	var violations []error
	kept := make([]Document, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for _, d := range docs {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		if v.admit != nil {
			if err := v.admit(d); err != nil {
				violations = append(violations, &IntegrityError{
					Collection: v.collection,
					ID:         d.ID,
					Reason:     err.Error(),
				})
				continue
			}
		}
		kept = append(kept, d)
	}
	if v.ordering != nil {
		sort.SliceStable(kept, func(i, j int) bool {
			return v.ordering(kept[i], kept[j])
		})
	}
	return kept, violations
}

// Projection returns the current ordered snapshot. The returned slice
// is the caller's; the documents themselves must be treated read-only.
func (v *View) Projection() []Document {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Document, len(v.projection))
	copy(out, v.projection)
	return out
}

// Len returns the size of the current projection.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.projection)
}

// Phase returns the lifecycle signal of the view.
func (v *View) Phase() Phase {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.phase
}

// Reason returns the error that moved the view to PhaseErrored, or
// nil in any other phase.
func (v *View) Reason() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.reason
}

// Updates signals that the projection changed. The channel coalesces:
// one receive may cover several deliveries, so consumers re-read the
// whole projection on each wake-up.
func (v *View) Updates() <-chan struct{} {
	return v.updates
}

// Errs carries query, subscription, and integrity errors. The channel
// is buffered; consumers that ignore it lose error detail but never
// block the delivery path.
func (v *View) Errs() <-chan error {
	return v.errs
}

// Close releases the subscription. Idempotent: closing an already
// closed view is a no-op. Effective even while the initial query or a
// delivery is still in flight; late responses are discarded.
func (v *View) Close() {
	v.mu.Lock()
	if v.phase == PhaseClosed {
		v.mu.Unlock()
		return
	}
	v.phase = PhaseClosed
	v.projection = nil
	cancel := v.cancel
	v.cancel = nil
	v.mu.Unlock()

	viewsActive.Dec()
	if cancel != nil {
		cancel()
	}
}

func (v *View) wake() {
	select {
	case v.updates <- struct{}{}:
	default:
	}
}

func (v *View) report(err error) {
	select {
	case v.errs <- err:
	default:
		if v.logger != nil {
			v.logger.Debug("error channel full, dropping", "collection", v.collection, "error", err)
		}
	}
	if v.logger != nil {
		v.logger.Warn("view error", "collection", v.collection, "filter", v.filter.String(), "error", err)
	}
}
