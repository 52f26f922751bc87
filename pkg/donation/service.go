package donation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/glean/pkg/core"
	"github.com/aretw0/glean/pkg/feed"
)

// Service records donations and notifies the chosen NGO.
type Service struct {
	store      core.Putter
	publisher  *feed.Publisher
	collection string
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCollection overrides the donation collection name.
func WithCollection(name string) ServiceOption {
	return func(s *Service) { s.collection = name }
}

// WithLogger sets the logger for submission events.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the timestamp source. Used by tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithIDSource overrides ID minting. Used by tests.
func WithIDSource(newID func() string) ServiceOption {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a donation Service over a writable store. The
// publisher delivers the confirmation notification to the NGO; it
// usually writes to the same store.
func NewService(store core.Putter, publisher *feed.Publisher, opts ...ServiceOption) *Service {
	s := &Service{
		store:      store,
		publisher:  publisher,
		collection: Collection,
		logger:     slog.Default(),
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates and records a donation, then notifies the target
// NGO. The returned Donation carries the minted ID and timestamp.
// A notification failure does not roll back the recorded donation;
// it is reported as an error alongside the stored result.
func (s *Service) Submit(ctx context.Context, d Donation) (Donation, error) {
	if d.ID == "" {
		d.ID = s.newID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now().UTC()
	}
	if d.Status == "" {
		d.Status = StatusPending
	}
	if err := d.Validate(); err != nil {
		return Donation{}, fmt.Errorf("invalid donation: %w", err)
	}

	doc, err := d.Document()
	if err != nil {
		return Donation{}, err
	}
	if err := s.store.Put(ctx, s.collection, doc); err != nil {
		return Donation{}, fmt.Errorf("record donation %s: %w", d.ID, err)
	}
	donationsSubmitted.Inc()
	s.logger.Info("donation recorded", "id", d.ID, "ngo", d.NGOID, "items", len(d.Items))

	if s.publisher != nil {
		details := feed.FoodDetails{
			Items:         d.Summary(),
			TotalValue:    d.TotalValue,
			ExpiryDate:    d.ExpiryDate,
			PickupAddress: d.PickupAddress,
		}
		title := "New Food Donation"
		message := fmt.Sprintf("A donation of %s is available for pickup.", d.Summary())
		if _, err := s.publisher.DonationReceived(ctx, d.NGOID, title, message, details); err != nil {
			s.logger.Warn("donation recorded but notification failed", "id", d.ID, "error", err)
			return d, fmt.Errorf("notify NGO %s: %w", d.NGOID, err)
		}
	}
	return d, nil
}
