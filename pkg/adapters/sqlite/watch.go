package sqlite

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/glean/pkg/core"
)

// Subscribe delivers a baseline snapshot at attach, then polls the
// collection's revision counter and delivers a fresh snapshot
// whenever it moved. Deliveries are serialized by the polling
// goroutine; intermediate revisions between two ticks coalesce into
// one snapshot.
func (s *Store) Subscribe(ctx context.Context, collection string, filter core.Filter, onSnapshot func([]core.Document), onError func(error)) (core.CancelFunc, error) {
	lastRev, err := s.rev(ctx, collection)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	var once sync.Once

	lifecycle.Go(ctx, func(ctx context.Context) error {
		// Baseline delivery: a write landing between the caller's
		// query and this attach would otherwise never surface until
		// the next unrelated revision bump.
		if docs, err := s.Query(ctx, collection, filter); err != nil {
			s.report(collection, err, onError)
		} else {
			select {
			case <-done:
				return nil
			default:
			}
			onSnapshot(docs)
		}

		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-done:
				return nil
			case <-ticker.C:
			}

			rev, err := s.rev(ctx, collection)
			if err != nil {
				s.report(collection, err, onError)
				continue
			}
			if rev == lastRev {
				continue
			}

			docs, err := s.Query(ctx, collection, filter)
			if err != nil {
				s.report(collection, err, onError)
				continue
			}
			lastRev = rev

			select {
			case <-done:
				return nil
			default:
			}
			onSnapshot(docs)
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("sqlite poller failed", "collection", collection, "error", err)
		if onError != nil {
			onError(err)
		}
	}))

	cancel := func() {
		once.Do(func() { close(done) })
	}
	return cancel, nil
}

func (s *Store) report(collection string, err error, onError func(error)) {
	wrapped := &core.SubscriptionError{Collection: collection, Err: err}
	s.logger.Warn("sqlite subscription error", "collection", collection, "error", err)
	if onError != nil {
		onError(wrapped)
	}
}
