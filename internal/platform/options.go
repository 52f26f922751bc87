package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/glean/pkg/core"
)

// options holds the internal configuration for the Glean engine.
type options struct {
	store   core.Store
	logger  *slog.Logger
	adapter string
	config  map[string]interface{}
}

// Option defines a functional option for configuring Glean.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		store:   nil,
		logger:  nil,
		adapter: "",
		config:  make(map[string]interface{}),
	}
}

// WithLogger sets the logger for the engine and its adapters.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore allows injecting a custom storage adapter (e.g. mock).
// If provided, URI-based adapter selection is skipped.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithAdapter allows specifying the storage adapter to use by name
// ("memory", "fs", "sqlite", "redis"). If not set, the adapter is
// inferred from the URI.
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithMustExist ensures the data directory must already exist
// (fs adapter only).
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithDebounce sets the settle window for filesystem watch events
// (fs adapter only). Zero means default (50ms).
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.config["debounce"] = d
	}
}

// WithIgnorePatterns sets doublestar patterns for files the
// filesystem watcher must not react to (fs adapter only).
func WithIgnorePatterns(patterns []string) Option {
	return func(o *options) {
		o.config["ignore_patterns"] = patterns
	}
}

// WithPollInterval sets how often subscriptions check for changes
// (sqlite adapter only). Zero means default (100ms).
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.config["poll_interval"] = d
	}
}
