package directory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/glean/pkg/core"
	"github.com/aretw0/glean/pkg/directory"
)

type userStore struct {
	mu         sync.Mutex
	docs       []core.Document
	onSnapshot func([]core.Document)
}

func (s *userStore) Query(ctx context.Context, collection string, filter core.Filter) ([]core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Document
	for _, d := range s.docs {
		if filter.Matches(d) {
			out = append(out, d.Clone())
		}
	}
	return out, nil
}

func (s *userStore) Subscribe(ctx context.Context, collection string, filter core.Filter, onSnapshot func([]core.Document), onError func(error)) (core.CancelFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSnapshot = onSnapshot
	return func() {}, nil
}

func (s *userStore) Mutate(ctx context.Context, collection string, id string, patch core.Fields) error {
	return nil
}

func (s *userStore) deliver(docs []core.Document) {
	s.mu.Lock()
	fn := s.onSnapshot
	s.mu.Unlock()
	if fn != nil {
		fn(docs)
	}
}

func user(id, role, name string) core.Document {
	return core.Document{ID: id, Fields: core.Fields{"role": role, "name": name}}
}

func openDirectory(t *testing.T, store *userStore) *directory.Directory {
	t.Helper()
	d := directory.Open(context.Background(), store)
	t.Cleanup(d.Close)
	require.Eventually(t, func() bool {
		return d.Phase() == core.PhaseLive
	}, 2*time.Second, 5*time.Millisecond)
	return d
}

func TestDirectory_ListsOnlyNGOs(t *testing.T) {
	store := &userStore{docs: []core.Document{
		user("u1", "ngo", "Food Rescue"),
		user("u2", "restaurant", "Green Fork"),
		user("u3", "ngo", "Shelter Aid"),
	}}

	d := openDirectory(t, store)

	entries := d.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Food Rescue", entries[0].Name)
	assert.Equal(t, "Shelter Aid", entries[1].Name)
}

func TestDirectory_WithholdsCorruptProfiles(t *testing.T) {
	store := &userStore{docs: []core.Document{
		user("u1", "ngo", "Food Rescue"),
		user("u2", "ngo", ""), // nameless profile, not selectable
	}}

	d := openDirectory(t, store)

	entries := d.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "u1", entries[0].ID)

	select {
	case err := <-d.Errs():
		var ierr *core.IntegrityError
		require.ErrorAs(t, err, &ierr)
		assert.Equal(t, "u2", ierr.ID)
	case <-time.After(time.Second):
		t.Fatal("expected an integrity error for the nameless profile")
	}
}

func TestDirectory_ReflectsRegistrations(t *testing.T) {
	store := &userStore{docs: []core.Document{
		user("u1", "ngo", "Food Rescue"),
	}}
	d := openDirectory(t, store)
	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.onSnapshot != nil
	}, 2*time.Second, 5*time.Millisecond)

	// A new NGO registers; the subscription redelivers.
	store.deliver([]core.Document{
		user("u1", "ngo", "Food Rescue"),
		user("u4", "ngo", "Harvest Share"),
	})

	entries := d.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Harvest Share", entries[1].Name)
}
