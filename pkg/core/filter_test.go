package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/glean/pkg/core"
)

func TestFilter_Matches(t *testing.T) {
	d := core.Document{ID: "u1", Fields: core.Fields{
		"role":  "ngo",
		"count": float64(3), // JSON round-trips numbers as float64
	}}

	tests := []struct {
		name   string
		filter core.Filter
		want   bool
	}{
		{"zero filter matches all", core.Filter{}, true},
		{"equal string", core.Where("role", "ngo"), true},
		{"unequal string", core.Where("role", "restaurant"), false},
		{"missing field", core.Where("city", "lisbon"), false},
		{"numeric across types", core.Where("count", 3), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(d))
		})
	}
}

func TestFilter_String(t *testing.T) {
	assert.Equal(t, "*", core.Filter{}.String())
	assert.Equal(t, "role == ngo", core.Where("role", "ngo").String())
}

func TestDocument_Clone(t *testing.T) {
	d := core.Document{ID: "a", Fields: core.Fields{"x": 1}}
	c := d.Clone()
	c.Fields["x"] = 2
	assert.Equal(t, 1, d.Fields["x"], "clone must not share the fields map")
}

func TestDocument_CloneFieldless(t *testing.T) {
	c := core.Document{ID: "a"}.Clone()
	assert.NotNil(t, c.Fields, "a fieldless document must clone to a writable map")
	c.Fields["x"] = 1
	assert.Equal(t, 1, c.Fields["x"])
}
