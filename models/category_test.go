package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidColor(t *testing.T) {
	tests := []struct {
		color    string
		expected bool
	}{
		{"#ef4444", true},
		{"#EF4444", true},
		{"#fff", true},
		{"ef4444", false},
		{"#ef44", false},
		{"#gggggg", false},
		{"", false},
		{"red", false},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.expected, IsValidColor(tt.color), "IsValidColor(%q)", tt.color)
	}
}

func TestCategory_Validate(t *testing.T) {
	assert.NoError(t, (&Category{Name: "Food & Dining", Color: "#ef4444"}).Validate())
	assert.ErrorIs(t, (&Category{Name: "  ", Color: "#ef4444"}).Validate(), ErrEmptyCategoryName)
	assert.ErrorIs(t, (&Category{Name: "Food", Color: "blue"}).Validate(), ErrInvalidColor)
}

func TestDefaultCategories(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range DefaultCategories() {
		assert.NoError(t, c.Validate(), c.Name)
		assert.False(t, seen[c.Name], "duplicate category %s", c.Name)
		seen[c.Name] = true
	}
	assert.True(t, seen["Food & Dining"])
}
