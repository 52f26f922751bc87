package donation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDonation() Donation {
	return Donation{
		RestaurantID: "rest-1",
		NGOID:        "ngo-1",
		Items: []FoodItem{
			{Name: "bread", Quantity: 12, Unit: UnitKilogram},
			{Name: "soup", Quantity: 3, Unit: UnitItems},
		},
		TotalValue:    45.50,
		ExpiryDate:    "2026-09-02",
		PickupAddress: "12 Market St",
	}
}

func TestDonation_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Donation)
		wantErr string
	}{
		{name: "valid", mutate: func(*Donation) {}},
		{
			name:    "no restaurant",
			mutate:  func(d *Donation) { d.RestaurantID = "" },
			wantErr: "no restaurant",
		},
		{
			name:    "no NGO selected",
			mutate:  func(d *Donation) { d.NGOID = "" },
			wantErr: "no NGO selected",
		},
		{
			name:    "no items",
			mutate:  func(d *Donation) { d.Items = nil },
			wantErr: "no food items",
		},
		{
			name:    "nameless item",
			mutate:  func(d *Donation) { d.Items[1].Name = "" },
			wantErr: "item 2 has no name",
		},
		{
			name:    "zero quantity",
			mutate:  func(d *Donation) { d.Items[0].Quantity = 0 },
			wantErr: `"bread" has no quantity`,
		},
		{
			name:    "zero value",
			mutate:  func(d *Donation) { d.TotalValue = 0 },
			wantErr: "value must be positive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDonation()
			tt.mutate(&d)
			err := d.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDonation_TotalQuantityKg(t *testing.T) {
	d := Donation{Items: []FoodItem{
		{Name: "rice", Quantity: 5, Unit: UnitKilogram},
		{Name: "spice", Quantity: 250, Unit: UnitGram},
		{Name: "milk", Quantity: 10, Unit: UnitLiter},
		{Name: "sandwich", Quantity: 20, Unit: UnitItems},
	}}
	assert.InDelta(t, 5.25, d.TotalQuantityKg(), 1e-9)
}

func TestDonation_Summary(t *testing.T) {
	d := validDonation()
	assert.Equal(t, "12kg bread, 3 items soup", d.Summary())
}

func TestDonation_DocumentRoundTrip(t *testing.T) {
	d := validDonation()
	d.ID = "don-1"
	d.Status = StatusPending

	doc, err := d.Document()
	require.NoError(t, err)
	assert.Equal(t, "don-1", doc.ID)
	assert.NotContains(t, doc.Fields, "id")

	back, err := FromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, d.NGOID, back.NGOID)
	assert.Equal(t, d.Items, back.Items)
	assert.Equal(t, d.TotalValue, back.TotalValue)
	assert.Equal(t, StatusPending, back.Status)
}
