package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/glean/pkg/core"
)

func doc(id string, fields core.Fields) core.Document {
	return core.Document{ID: id, Fields: fields}
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

func TestStore_QueryInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Put(ctx, "notifications", doc("b", core.Fields{"recipientId": "u1"})))
	require.NoError(t, store.Put(ctx, "notifications", doc("a", core.Fields{"recipientId": "u1"})))
	require.NoError(t, store.Put(ctx, "notifications", doc("c", core.Fields{"recipientId": "u2"})))

	docs, err := store.Query(ctx, "notifications", core.Where("recipientId", "u1"))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[0].ID)
	assert.Equal(t, "a", docs[1].ID)
}

func TestStore_QueryEmptyCollection(t *testing.T) {
	store := NewStore()
	docs, err := store.Query(context.Background(), "missing", core.Filter{})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestStore_PutReplaceKeepsPosition(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Put(ctx, "users", doc("u1", core.Fields{"name": "Alpha"})))
	require.NoError(t, store.Put(ctx, "users", doc("u2", core.Fields{"name": "Beta"})))
	require.NoError(t, store.Put(ctx, "users", doc("u1", core.Fields{"name": "Alpha2"})))

	docs, err := store.Query(ctx, "users", core.Filter{})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "u1", docs[0].ID)
	assert.Equal(t, "Alpha2", docs[0].Fields["name"])
}

func TestStore_PutRejectsEmptyID(t *testing.T) {
	err := NewStore().Put(context.Background(), "users", core.Document{})
	assert.ErrorIs(t, err, core.ErrNoID)
}

func TestStore_MutatePatchesFields(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Put(ctx, "notifications", doc("n1", core.Fields{"read": false, "title": "Hi"})))
	require.NoError(t, store.Mutate(ctx, "notifications", "n1", core.Fields{"read": true}))

	docs, err := store.Query(ctx, "notifications", core.Filter{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, true, docs[0].Fields["read"])
	assert.Equal(t, "Hi", docs[0].Fields["title"])
}

func TestStore_MutateMissingDocument(t *testing.T) {
	err := NewStore().Mutate(context.Background(), "notifications", "ghost", core.Fields{"read": true})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_MutateFieldlessDocument(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Put(ctx, "notifications", doc("n1", nil)))
	require.NoError(t, store.Mutate(ctx, "notifications", "n1", core.Fields{"read": true}))

	docs, err := store.Query(ctx, "notifications", core.Filter{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, true, docs[0].Fields["read"])
}

func TestStore_DeleteRemoves(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Put(ctx, "users", doc("u1", core.Fields{})))
	require.NoError(t, store.Delete(ctx, "users", "u1"))

	docs, err := store.Query(ctx, "users", core.Filter{})
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.ErrorIs(t, store.Delete(ctx, "users", "u1"), core.ErrNotFound)
}

func TestStore_SubscribeDeliversOnWrite(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	rec := &snapshotRecorder{}

	cancel, err := store.Subscribe(ctx, "notifications", core.Where("recipientId", "u1"), rec.record, nil)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, store.Put(ctx, "notifications", doc("n1", core.Fields{"recipientId": "u1"})))

	require.Eventually(t, func() bool { return rec.count() >= 1 }, 2*time.Second, 5*time.Millisecond)
	last := rec.last()
	require.Len(t, last, 1)
	assert.Equal(t, "n1", last[0].ID)

	// A write for another recipient still pings the subscription, but
	// the delivered snapshot stays filtered.
	require.NoError(t, store.Put(ctx, "notifications", doc("n2", core.Fields{"recipientId": "u2"})))
	require.Eventually(t, func() bool {
		docs := rec.last()
		return len(docs) == 1 && docs[0].ID == "n1"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStore_SubscribeDeliversBaselineSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	rec := &snapshotRecorder{}

	// Both writes land before the subscription attaches, the second
	// one standing in for a write racing the caller's own query.
	require.NoError(t, store.Put(ctx, "notifications", doc("n1", core.Fields{"recipientId": "u1"})))
	require.NoError(t, store.Put(ctx, "notifications", doc("n2", core.Fields{"recipientId": "u1"})))

	cancel, err := store.Subscribe(ctx, "notifications", core.Where("recipientId", "u1"), rec.record, nil)
	require.NoError(t, err)
	defer cancel()

	// No further writes: the attach itself must surface both.
	require.Eventually(t, func() bool {
		return len(rec.last()) == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStore_SubscribeCancelStopsDeliveries(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	rec := &snapshotRecorder{}

	cancel, err := store.Subscribe(ctx, "users", core.Filter{}, rec.record, nil)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "users", doc("u1", core.Fields{})))
	require.Eventually(t, func() bool { return rec.count() >= 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	cancel() // idempotent
	seen := rec.count()

	require.NoError(t, store.Put(ctx, "users", doc("u2", core.Fields{})))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, seen, rec.count())
}

func TestStore_SnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Put(ctx, "users", doc("u1", core.Fields{"name": "Alpha"})))

	docs, err := store.Query(ctx, "users", core.Filter{})
	require.NoError(t, err)
	docs[0].Fields["name"] = "tampered"

	again, err := store.Query(ctx, "users", core.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", again[0].Fields["name"])
}

func TestStore_State(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Put(ctx, "users", doc("u1", core.Fields{})))

	cancel, err := store.Subscribe(ctx, "users", core.Filter{}, func([]core.Document) {}, nil)
	require.NoError(t, err)
	defer cancel()

	state, ok := store.State().(StoreState)
	require.True(t, ok)
	assert.Equal(t, 1, state.Collections["users"])
	assert.Equal(t, 1, state.Subscriptions)
	assert.Equal(t, "memory-store", store.ComponentType())
}
