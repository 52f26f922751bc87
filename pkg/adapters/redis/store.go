// Package redis implements core.Store on a Redis server. Documents
// are JSON strings under glean:doc:<collection>:<id>, a sorted set
// per collection preserves insertion order, and every write publishes
// on glean:changes:<collection> so subscriptions react without
// polling.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/aretw0/glean/pkg/core"
)

const (
	docKeyPrefix   = "glean:doc:"
	indexKeyPrefix = "glean:idx:"
	changesPrefix  = "glean:changes:"
	seqKey         = "glean:seq"
)

// Store implements core.Store on Redis.
type Store struct {
	client *redis.Client
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for subscription events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a Redis-backed store from a redis:// URL and
// verifies the connection with a ping.
func NewStore(ctx context.Context, url string, opts ...Option) (*Store, error) {
	ropts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(ropts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	s := &Store{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewStoreWithClient wraps an existing client. Used by tests.
func NewStoreWithClient(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Health checks if the Redis connection is healthy.
func (s *Store) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func docKey(collection, id string) string {
	return docKeyPrefix + collection + ":" + id
}

func indexKey(collection string) string {
	return indexKeyPrefix + collection
}

func changesChannel(collection string) string {
	return changesPrefix + collection
}

// Query returns matching documents in insertion order.
func (s *Store) Query(ctx context.Context, collection string, filter core.Filter) ([]core.Document, error) {
	ids, err := s.client.ZRange(ctx, indexKey(collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading index of %s: %w", collection, err)
	}
	docs := []core.Document{}
	if len(ids) == 0 {
		return docs, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(collection, id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("reading documents of %s: %w", collection, err)
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Document removed between ZRANGE and MGET.
			continue
		}
		var fields core.Fields
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			s.logger.Warn("skipping undecodable document", "collection", collection, "id", ids[i], "error", err)
			continue
		}
		doc := core.Document{ID: ids[i], Fields: fields}
		if filter.Matches(doc) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Get retrieves a single document.
func (s *Store) Get(ctx context.Context, collection, id string) (core.Document, error) {
	raw, err := s.client.Get(ctx, docKey(collection, id)).Result()
	if errors.Is(err, redis.Nil) {
		return core.Document{}, core.ErrNotFound
	}
	if err != nil {
		return core.Document{}, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	var fields core.Fields
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return core.Document{}, fmt.Errorf("unmarshaling %s/%s: %w", collection, id, err)
	}
	return core.Document{ID: id, Fields: fields}, nil
}

// Put inserts or replaces a document. A replaced document keeps its
// position in the insertion index.
func (s *Store) Put(ctx context.Context, collection string, doc core.Document) error {
	if doc.ID == "" {
		return core.ErrNoID
	}
	data, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("marshaling fields of %s: %w", doc.ID, err)
	}

	// Keep the existing score on replace so insertion order is stable.
	score, err := s.client.ZScore(ctx, indexKey(collection), doc.ID).Result()
	if errors.Is(err, redis.Nil) {
		seq, err := s.client.Incr(ctx, seqKey).Result()
		if err != nil {
			return fmt.Errorf("allocating sequence for %s: %w", doc.ID, err)
		}
		score = float64(seq)
	} else if err != nil {
		return fmt.Errorf("reading index score of %s: %w", doc.ID, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, docKey(collection, doc.ID), data, 0)
	pipe.ZAdd(ctx, indexKey(collection), redis.Z{Score: score, Member: doc.ID})
	pipe.Publish(ctx, changesChannel(collection), doc.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing %s/%s: %w", collection, doc.ID, err)
	}
	return nil
}

// Mutate applies a partial patch to one document. Read-modify-write;
// concurrent mutates of the same document may lose the race.
func (s *Store) Mutate(ctx context.Context, collection string, id string, patch core.Fields) error {
	doc, err := s.Get(ctx, collection, id)
	if err != nil {
		return err
	}
	// A fieldless document deserializes to a nil map.
	doc = doc.Clone()
	for k, v := range patch {
		doc.Fields[k] = v
	}
	return s.Put(ctx, collection, doc)
}

// Delete removes a document.
func (s *Store) Delete(ctx context.Context, collection string, id string) error {
	removed, err := s.client.Del(ctx, docKey(collection, id)).Result()
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	if removed == 0 {
		return core.ErrNotFound
	}
	pipe := s.client.TxPipeline()
	pipe.ZRem(ctx, indexKey(collection), id)
	pipe.Publish(ctx, changesChannel(collection), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("unindexing %s/%s: %w", collection, id, err)
	}
	return nil
}
