package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/glean/pkg/core"
)

// watchers counts live subscriptions across the store, for
// introspection only.
var watchers atomic.Int64

// Subscribe watches the collection directory and re-reads it after
// every settled burst of file events. Deliveries for one subscription
// are serialized by the worker goroutine.
func (s *Store) Subscribe(ctx context.Context, collection string, filter core.Filter, onSnapshot func([]core.Document), onError func(error)) (core.CancelFunc, error) {
	if err := validateName(collection); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.Path, collection)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create collection directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &watchWorker{
		store:      s,
		collection: collection,
		filter:     filter,
		onSnapshot: onSnapshot,
		onError:    onError,
		watcher:    watcher,
		done:       make(chan struct{}),
	}

	watchers.Add(1)
	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		s.config.Logger.Error("fs watcher failed", "collection", collection, "error", err)
		if onError != nil {
			onError(err)
		}
	}))

	cancel := func() {
		w.once.Do(func() { close(w.done) })
	}
	return cancel, nil
}

type watchWorker struct {
	store      *Store
	collection string
	filter     core.Filter
	onSnapshot func([]core.Document)
	onError    func(error)
	watcher    *fsnotify.Watcher
	done       chan struct{}
	once       sync.Once
}

// run is the main event loop. File events only arm the debounce
// timer; the snapshot is read once the burst settles, so a bulk seed
// of N documents costs one delivery, not N.
func (w *watchWorker) run(ctx context.Context) error {
	defer watchers.Add(-1)
	defer w.watcher.Close()

	// The timer starts armed: one baseline snapshot fires after the
	// first debounce window, covering writes that landed before the
	// watcher was in place.
	timer := time.NewTimer(w.store.config.Debounce)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-w.done:
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if w.shouldIgnore(event) {
				continue
			}
			w.store.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.store.config.Debounce)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.report(&core.SubscriptionError{Collection: w.collection, Err: wErr})

		case <-timer.C:
			docs, err := w.store.Query(ctx, w.collection, w.filter)
			if err != nil {
				w.report(&core.SubscriptionError{Collection: w.collection, Err: err})
				continue
			}
			select {
			case <-w.done:
				return nil
			default:
			}
			w.onSnapshot(docs)
		}
	}
}

// shouldIgnore filters out events that cannot change a snapshot:
// temp files from atomic writes, non-document files, and anything
// matching the configured ignore patterns.
func (w *watchWorker) shouldIgnore(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, TempFilePrefix) {
		return true
	}
	if !strings.HasSuffix(base, docExt) {
		return true
	}
	for _, pattern := range w.store.config.IgnorePatterns {
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

func (w *watchWorker) report(err error) {
	w.store.config.Logger.Warn("fs subscription error", "collection", w.collection, "error", err)
	if w.onError != nil {
		w.onError(err)
	}
}
