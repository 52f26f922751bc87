package platform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/glean/pkg/adapters/fs"
	"github.com/aretw0/glean/pkg/adapters/memory"
	"github.com/aretw0/glean/pkg/adapters/redis"
	"github.com/aretw0/glean/pkg/adapters/sqlite"
	"github.com/aretw0/glean/pkg/core"
)

// Init builds the configured core.Store. The 'uri' argument is
// adapter-specific: empty for 'memory', a directory for 'fs', a
// database file for 'sqlite', a redis:// URL for 'redis'.
func Init(ctx context.Context, uri string, opts ...Option) (core.Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	// 1. Check for injected store
	if o.store != nil {
		return o.store, nil
	}

	// 2. Initialize based on Adapter
	adapter := o.adapter
	if adapter == "" {
		adapter = detectAdapter(uri)
	}

	switch adapter {
	case "memory":
		return initMemory(o), nil
	case "fs":
		return initFS(ctx, uri, o)
	case "sqlite":
		return initSQLite(uri, o)
	case "redis":
		return initRedis(ctx, uri, o)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", adapter)
	}
}

// detectAdapter infers the adapter from the URI shape.
func detectAdapter(uri string) string {
	switch {
	case uri == "" || uri == "memory://":
		return "memory"
	case strings.HasPrefix(uri, "redis://") || strings.HasPrefix(uri, "rediss://"):
		return "redis"
	case strings.HasSuffix(uri, ".db") || strings.HasSuffix(uri, ".sqlite"):
		return "sqlite"
	default:
		return "fs"
	}
}

func initMemory(o *options) core.Store {
	var opts []memory.Option
	if o.logger != nil {
		opts = append(opts, memory.WithLogger(o.logger))
	}
	return memory.NewStore(opts...)
}

func initFS(ctx context.Context, path string, o *options) (core.Store, error) {
	mustExist, _ := o.config["must_exist"].(bool)
	debounce, _ := o.config["debounce"].(time.Duration)
	ignore, _ := o.config["ignore_patterns"].([]string)

	store := fs.NewStore(fs.Config{
		Path:           path,
		MustExist:      mustExist,
		Debounce:       debounce,
		IgnorePatterns: ignore,
		Logger:         o.logger,
	})
	if err := store.Initialize(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func initSQLite(path string, o *options) (core.Store, error) {
	var opts []sqlite.Option
	if o.logger != nil {
		opts = append(opts, sqlite.WithLogger(o.logger))
	}
	if d, ok := o.config["poll_interval"].(time.Duration); ok && d > 0 {
		opts = append(opts, sqlite.WithPollInterval(d))
	}
	return sqlite.NewStore(path, opts...)
}

func initRedis(ctx context.Context, url string, o *options) (core.Store, error) {
	var opts []redis.Option
	if o.logger != nil {
		opts = append(opts, redis.WithLogger(o.logger))
	}
	return redis.NewStore(ctx, url, opts...)
}
