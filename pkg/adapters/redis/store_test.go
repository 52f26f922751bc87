package redis

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/glean/pkg/core"
)

// newTestStore connects to the Redis named by GLEAN_REDIS_ADDR and
// isolates the test in its own logical database. Tests are skipped
// when no server is available.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("GLEAN_REDIS_ADDR")
	if addr == "" {
		t.Skip("GLEAN_REDIS_ADDR not set")
	}

	client := goredis.NewClient(&goredis.Options{Addr: addr, DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	require.NoError(t, client.FlushDB(ctx).Err())
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return NewStoreWithClient(client)
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	doc := core.Document{ID: "n1", Fields: core.Fields{"recipientId": "u1", "read": false}}
	require.NoError(t, store.Put(ctx, "notifications", doc))

	got, err := store.Get(ctx, "notifications", "n1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.Fields["recipientId"])
	assert.Equal(t, false, got.Fields["read"])
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "notifications", "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_QueryInsertionOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for i, id := range []string{"b", "a", "c"} {
		role := "ngo"
		if id == "c" {
			role = "restaurant"
		}
		require.NoError(t, store.Put(ctx, "users", core.Document{
			ID:     id,
			Fields: core.Fields{"role": role, "n": fmt.Sprint(i)},
		}))
	}

	docs, err := store.Query(ctx, "users", core.Where("role", "ngo"))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[0].ID)
	assert.Equal(t, "a", docs[1].ID)
}

func TestStore_MutatePatches(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Put(ctx, "notifications", core.Document{ID: "n1", Fields: core.Fields{"read": false, "title": "Hi"}}))
	require.NoError(t, store.Mutate(ctx, "notifications", "n1", core.Fields{"read": true}))

	got, err := store.Get(ctx, "notifications", "n1")
	require.NoError(t, err)
	assert.Equal(t, true, got.Fields["read"])
	assert.Equal(t, "Hi", got.Fields["title"])
}

func TestStore_MutateMissing(t *testing.T) {
	err := newTestStore(t).Mutate(context.Background(), "notifications", "ghost", core.Fields{"read": true})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_MutateFieldlessDocument(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	// A fieldless document stores as JSON null; the patch must still
	// apply.
	require.NoError(t, store.Put(ctx, "notifications", core.Document{ID: "n1"}))
	require.NoError(t, store.Mutate(ctx, "notifications", "n1", core.Fields{"read": true}))

	got, err := store.Get(ctx, "notifications", "n1")
	require.NoError(t, err)
	assert.Equal(t, true, got.Fields["read"])
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Put(ctx, "users", core.Document{ID: "u1", Fields: core.Fields{}}))
	require.NoError(t, store.Delete(ctx, "users", "u1"))
	assert.ErrorIs(t, store.Delete(ctx, "users", "u1"), core.ErrNotFound)

	docs, err := store.Query(ctx, "users", core.Filter{})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

type snapshotRecorder struct {
	mu        sync.Mutex
	snapshots [][]core.Document
}

func (r *snapshotRecorder) record(docs []core.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, docs)
}

func (r *snapshotRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

func (r *snapshotRecorder) last() []core.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return nil
	}
	return r.snapshots[len(r.snapshots)-1]
}

func TestStore_SubscribeDeliversOnWrite(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	rec := &snapshotRecorder{}

	cancel, err := store.Subscribe(ctx, "notifications", core.Where("recipientId", "u1"), rec.record, nil)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, store.Put(ctx, "notifications", core.Document{ID: "n1", Fields: core.Fields{"recipientId": "u1"}}))

	require.Eventually(t, func() bool {
		docs := rec.last()
		return len(docs) == 1 && docs[0].ID == "n1"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestStore_SubscribeDeliversBaselineSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	rec := &snapshotRecorder{}

	// Published before the channel exists, so only the baseline
	// delivery can surface it.
	require.NoError(t, store.Put(ctx, "notifications", core.Document{ID: "n1", Fields: core.Fields{"recipientId": "u1"}}))

	cancel, err := store.Subscribe(ctx, "notifications", core.Where("recipientId", "u1"), rec.record, nil)
	require.NoError(t, err)
	defer cancel()

	require.Eventually(t, func() bool {
		docs := rec.last()
		return len(docs) == 1 && docs[0].ID == "n1"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestStore_SubscribeCancelStopsDeliveries(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	rec := &snapshotRecorder{}

	cancel, err := store.Subscribe(ctx, "users", core.Filter{}, rec.record, nil)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "users", core.Document{ID: "u1", Fields: core.Fields{}}))
	require.Eventually(t, func() bool { return rec.count() >= 1 }, 5*time.Second, 20*time.Millisecond)

	cancel()
	cancel() // idempotent
	time.Sleep(100 * time.Millisecond)
	seen := rec.count()

	require.NoError(t, store.Put(ctx, "users", core.Document{ID: "u2", Fields: core.Fields{}}))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, seen, rec.count())
}
