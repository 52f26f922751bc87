package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/glean/pkg/core"
)

// Publisher writes notification documents to the store. It is the
// production side of the feed: donation confirmations for NGOs and
// disaster alerts.
type Publisher struct {
	store      core.Putter
	collection string
	now        func() time.Time
	newID      func() string
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithPublisherCollection overrides the notification collection name.
func WithPublisherCollection(name string) PublisherOption {
	return func(p *Publisher) { p.collection = name }
}

// WithClock overrides the timestamp source. Used by tests.
func WithClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) { p.now = now }
}

// WithIDSource overrides ID minting. Used by tests.
func WithIDSource(newID func() string) PublisherOption {
	return func(p *Publisher) { p.newID = newID }
}

// NewPublisher creates a Publisher over a store with write capability.
func NewPublisher(store core.Putter, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		store:      store,
		collection: Collection,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DonationReceived notifies one NGO about an incoming donation.
func (p *Publisher) DonationReceived(ctx context.Context, recipientID, title, message string, details FoodDetails) (Notification, error) {
	n := Notification{
		ID:          p.newID(),
		RecipientID: recipientID,
		Title:       title,
		Message:     message,
		Category:    CategoryStandard,
		Read:        false,
		CreatedAt:   p.now().UTC(),
		FoodDetails: &details,
	}
	return n, p.publish(ctx, n)
}

// DisasterAlert notifies one recipient about a disaster. Alerts are
// always urgent.
func (p *Publisher) DisasterAlert(ctx context.Context, recipientID, title, message string, details DisasterDetails) (Notification, error) {
	n := Notification{
		ID:              p.newID(),
		RecipientID:     recipientID,
		Title:           title,
		Message:         message,
		Category:        CategoryUrgent,
		Read:            false,
		CreatedAt:       p.now().UTC(),
		DisasterDetails: &details,
	}
	return n, p.publish(ctx, n)
}

func (p *Publisher) publish(ctx context.Context, n Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	doc, err := n.Document()
	if err != nil {
		return err
	}
	if err := p.store.Put(ctx, p.collection, doc); err != nil {
		return fmt.Errorf("publish notification %s: %w", n.ID, err)
	}
	notificationsPublished.WithLabelValues(string(n.Classification())).Inc()
	return nil
}
