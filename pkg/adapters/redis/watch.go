package redis

import (
	"context"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/glean/pkg/core"
)

// Subscribe delivers a baseline snapshot at attach, then listens on
// the collection's change channel and re-queries after every
// published write. Deliveries are serialized by the listener
// goroutine.
func (s *Store) Subscribe(ctx context.Context, collection string, filter core.Filter, onSnapshot func([]core.Document), onError func(error)) (core.CancelFunc, error) {
	pubsub := s.client.Subscribe(ctx, changesChannel(collection))
	// Force the subscription to be established before returning, so
	// no write published after Subscribe returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, &core.SubscriptionError{Collection: collection, Err: err}
	}

	done := make(chan struct{})
	var once sync.Once

	lifecycle.Go(ctx, func(ctx context.Context) error {
		// Baseline delivery: covers writes published before the
		// channel above was established.
		if docs, err := s.Query(ctx, collection, filter); err != nil {
			wrapped := &core.SubscriptionError{Collection: collection, Err: err}
			s.logger.Warn("redis subscription error", "collection", collection, "error", err)
			if onError != nil {
				onError(wrapped)
			}
		} else {
			select {
			case <-done:
				return nil
			default:
			}
			onSnapshot(docs)
		}

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-done:
				return nil
			case _, ok := <-ch:
				if !ok {
					return nil
				}

				docs, err := s.Query(ctx, collection, filter)
				if err != nil {
					wrapped := &core.SubscriptionError{Collection: collection, Err: err}
					s.logger.Warn("redis subscription error", "collection", collection, "error", err)
					if onError != nil {
						onError(wrapped)
					}
					continue
				}
				select {
				case <-done:
					return nil
				default:
				}
				onSnapshot(docs)
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("redis listener failed", "collection", collection, "error", err)
		if onError != nil {
			onError(err)
		}
	}))

	cancel := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}
	return cancel, nil
}
