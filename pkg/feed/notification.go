// Package feed presents one recipient's notifications, newest first,
// kept current by a live store subscription.
package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/glean/pkg/core"
)

// Collection is the store collection holding notification documents.
const Collection = "notifications"

// RecipientField is the document field a feed filters on.
const RecipientField = "recipientId"

// Category classifies a notification.
type Category string

const (
	CategoryStandard Category = "standard"
	CategoryUrgent   Category = "urgent"
)

// FoodDetails is the payload of a donation notification.
type FoodDetails struct {
	Items         string  `json:"items"`
	TotalValue    float64 `json:"totalValue"`
	ExpiryDate    string  `json:"expiryDate"`
	PickupAddress string  `json:"pickupAddress"`
}

// DisasterDetails is the payload of a disaster alert.
type DisasterDetails struct {
	Location      string `json:"location"`
	Description   string `json:"description"`
	Urgency       string `json:"urgency"`
	ContactNumber string `json:"contactNumber"`
}

// Notification is one entry in a recipient's feed.
// At most one of FoodDetails/DisasterDetails is present; a disaster
// payload implies the urgent category. Read only ever transitions
// false to true, and only through the store.
type Notification struct {
	ID              string           `json:"id"`
	RecipientID     string           `json:"recipientId"`
	Title           string           `json:"title"`
	Message         string           `json:"message"`
	Category        Category         `json:"category"`
	Read            bool             `json:"read"`
	CreatedAt       time.Time        `json:"createdAt"`
	FoodDetails     *FoodDetails     `json:"foodDetails,omitempty"`
	DisasterDetails *DisasterDetails `json:"disasterDetails,omitempty"`
}

// Classification derives the category from the payload: urgent iff a
// disaster payload is present. It is the authoritative classification
// regardless of what the stored category field says.
func (n Notification) Classification() Category {
	if n.DisasterDetails != nil {
		return CategoryUrgent
	}
	return CategoryStandard
}

// Validate checks the entity invariants.
func (n Notification) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("notification has no ID")
	}
	if n.RecipientID == "" {
		return fmt.Errorf("notification %s has no recipient", n.ID)
	}
	if n.FoodDetails != nil && n.DisasterDetails != nil {
		return fmt.Errorf("notification %s carries both food and disaster payloads", n.ID)
	}
	if n.DisasterDetails != nil && n.Category != CategoryUrgent {
		return fmt.Errorf("notification %s has a disaster payload but category %q", n.ID, n.Category)
	}
	return nil
}

// Document converts the notification to its store representation.
// Field names are a fixed contract with the store; they are preserved
// on read and on mutate patches.
func (n Notification) Document() (core.Document, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return core.Document{}, fmt.Errorf("marshal notification: %w", err)
	}
	var fields core.Fields
	if err := json.Unmarshal(data, &fields); err != nil {
		return core.Document{}, fmt.Errorf("convert notification to fields: %w", err)
	}
	delete(fields, "id")
	return core.Document{ID: n.ID, Fields: fields}, nil
}

// FromDocument decodes a store document into a Notification.
func FromDocument(d core.Document) (Notification, error) {
	data, err := json.Marshal(d.Fields)
	if err != nil {
		return Notification{}, fmt.Errorf("marshal fields of %s: %w", d.ID, err)
	}
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return Notification{}, fmt.Errorf("decode notification %s: %w", d.ID, err)
	}
	n.ID = d.ID
	return n, nil
}

// ByNewest is the feed ordering: createdAt descending, ties broken by
// id descending. Total and deterministic, so sorting an already
// sorted feed is a no-op.
func ByNewest(a, b core.Document) bool {
	ta, tb := createdAt(a), createdAt(b)
	if ta != tb {
		return ta > tb
	}
	return a.ID > b.ID
}

// createdAt extracts a sortable timestamp from a raw document. The
// field may be a time.Time (memory adapter), an RFC 3339 string
// (serialized adapters), or a bare number (tests, foreign writers);
// only relative order matters, so each form maps to a monotone key.
func createdAt(d core.Document) int64 {
	switch v := d.Fields["createdAt"].(type) {
	case time.Time:
		return v.UnixNano()
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return ts.UnixNano()
		}
		return 0
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		f, _ := v.Float64()
		return int64(f)
	default:
		return 0
	}
}
