// Package donation handles the restaurant side: composing and
// submitting a surplus-food donation addressed to one NGO.
package donation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/glean/pkg/core"
)

// Collection is the store collection holding donation documents.
const Collection = "donations"

// Unit is the measurement unit of a food item.
type Unit string

const (
	UnitKilogram Unit = "kg"
	UnitGram     Unit = "g"
	UnitLiter    Unit = "liter"
	UnitItems    Unit = "items"
)

// FoodItem is one line of a donation.
type FoodItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     Unit    `json:"unit"`
}

// Status tracks a donation through its lifecycle. Only Pending is
// assigned here; downstream fulfilment moves it on.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusCollected Status = "collected"
)

// Donation is a surplus-food offer from a restaurant to one NGO.
type Donation struct {
	ID            string     `json:"id"`
	RestaurantID  string     `json:"restaurantId"`
	NGOID         string     `json:"ngoId"`
	Items         []FoodItem `json:"items"`
	TotalValue    float64    `json:"totalValue"`
	ExpiryDate    string     `json:"expiryDate,omitempty"`
	PickupAddress string     `json:"pickupAddress,omitempty"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Validate applies the submission rules: an NGO must be selected,
// every item needs a name and a positive quantity, and the estimated
// value must be positive.
func (d Donation) Validate() error {
	if d.RestaurantID == "" {
		return fmt.Errorf("donation has no restaurant")
	}
	if d.NGOID == "" {
		return fmt.Errorf("no NGO selected")
	}
	if len(d.Items) == 0 {
		return fmt.Errorf("donation has no food items")
	}
	for i, item := range d.Items {
		if item.Name == "" {
			return fmt.Errorf("food item %d has no name", i+1)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("food item %q has no quantity", item.Name)
		}
	}
	if d.TotalValue <= 0 {
		return fmt.Errorf("estimated value must be positive")
	}
	return nil
}

// TotalQuantityKg sums the mass-based items in kilograms. Volume and
// count units do not contribute.
func (d Donation) TotalQuantityKg() float64 {
	total := 0.0
	for _, item := range d.Items {
		switch item.Unit {
		case UnitKilogram:
			total += item.Quantity
		case UnitGram:
			total += item.Quantity / 1000
		}
	}
	return total
}

// Summary renders the item list as a single line for notifications,
// e.g. "12kg bread, 3 items soup".
func (d Donation) Summary() string {
	parts := make([]string, 0, len(d.Items))
	for _, item := range d.Items {
		switch item.Unit {
		case UnitItems:
			parts = append(parts, fmt.Sprintf("%g %s %s", item.Quantity, item.Unit, item.Name))
		default:
			parts = append(parts, fmt.Sprintf("%g%s %s", item.Quantity, item.Unit, item.Name))
		}
	}
	return strings.Join(parts, ", ")
}

// Document converts the donation to its store representation.
func (d Donation) Document() (core.Document, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return core.Document{}, fmt.Errorf("marshal donation: %w", err)
	}
	var fields core.Fields
	if err := json.Unmarshal(data, &fields); err != nil {
		return core.Document{}, fmt.Errorf("convert donation to fields: %w", err)
	}
	delete(fields, "id")
	return core.Document{ID: d.ID, Fields: fields}, nil
}

// FromDocument decodes a store document into a Donation.
func FromDocument(doc core.Document) (Donation, error) {
	data, err := json.Marshal(doc.Fields)
	if err != nil {
		return Donation{}, fmt.Errorf("marshal fields of %s: %w", doc.ID, err)
	}
	var d Donation
	if err := json.Unmarshal(data, &d); err != nil {
		return Donation{}, fmt.Errorf("decode donation %s: %w", doc.ID, err)
	}
	d.ID = doc.ID
	return d, nil
}
