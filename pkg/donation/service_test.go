package donation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/glean/pkg/core"
	"github.com/aretw0/glean/pkg/feed"
)

type putRecorder struct {
	mu     sync.Mutex
	puts   map[string][]core.Document
	putErr error
}

func newPutRecorder() *putRecorder {
	return &putRecorder{puts: map[string][]core.Document{}}
}

func (r *putRecorder) Put(_ context.Context, collection string, doc core.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.putErr != nil {
		return r.putErr
	}
	r.puts[collection] = append(r.puts[collection], doc)
	return nil
}

func (r *putRecorder) documents(collection string) []core.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Document(nil), r.puts[collection]...)
}

func fixedClock() time.Time {
	return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
}

func TestService_SubmitRecordsAndNotifies(t *testing.T) {
	store := newPutRecorder()
	pub := feed.NewPublisher(store,
		feed.WithClock(fixedClock),
		feed.WithIDSource(func() string { return "notif-1" }),
	)
	svc := NewService(store, pub,
		WithClock(fixedClock),
		WithIDSource(func() string { return "don-1" }),
	)

	got, err := svc.Submit(context.Background(), validDonation())
	require.NoError(t, err)
	assert.Equal(t, "don-1", got.ID)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, fixedClock(), got.CreatedAt)

	donations := store.documents(Collection)
	require.Len(t, donations, 1)
	assert.Equal(t, "don-1", donations[0].ID)
	assert.Equal(t, "ngo-1", donations[0].Fields["ngoId"])

	notifs := store.documents(feed.Collection)
	require.Len(t, notifs, 1)
	n, err := feed.FromDocument(notifs[0])
	require.NoError(t, err)
	assert.Equal(t, "ngo-1", n.RecipientID)
	assert.Equal(t, feed.CategoryStandard, n.Classification())
	require.NotNil(t, n.FoodDetails)
	assert.Equal(t, "12kg bread, 3 items soup", n.FoodDetails.Items)
	assert.Equal(t, 45.50, n.FoodDetails.TotalValue)
}

func TestService_SubmitRejectsInvalid(t *testing.T) {
	store := newPutRecorder()
	svc := NewService(store, nil)

	d := validDonation()
	d.NGOID = ""
	_, err := svc.Submit(context.Background(), d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no NGO selected")
	assert.Empty(t, store.documents(Collection))
}

func TestService_SubmitStoreFailure(t *testing.T) {
	store := newPutRecorder()
	store.putErr = errors.New("disk full")
	svc := NewService(store, nil)

	_, err := svc.Submit(context.Background(), validDonation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record donation")
}

func TestService_NotificationFailureKeepsDonation(t *testing.T) {
	store := newPutRecorder()
	// Publisher writes to a separate, failing store; the donation
	// itself still lands.
	failing := newPutRecorder()
	failing.putErr = errors.New("broker down")
	pub := feed.NewPublisher(failing)
	svc := NewService(store, pub, WithIDSource(func() string { return "don-2" }))

	got, err := svc.Submit(context.Background(), validDonation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify NGO")
	assert.Equal(t, "don-2", got.ID)
	require.Len(t, store.documents(Collection), 1)
}
