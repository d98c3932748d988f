package models

import (
	"regexp"
	"strings"
	"time"
)

// DefaultCategoryColor is used when a category has no color of its own
const DefaultCategoryColor = "#64748b"

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Category a spending category, provisioned at setup time
type Category struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:50;not null;uniqueIndex"`
	Description string    `json:"description" gorm:"size:255"`
	Color       string    `json:"color" gorm:"size:20;not null;default:#64748b"` // e.g. #ef4444
	Sort        int       `json:"sort" gorm:"default:0;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

// IsValidColor reports whether s is a #rgb or #rrggbb color
func IsValidColor(s string) bool {
	return colorPattern.MatchString(s)
}

// Validate checks name and color
func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategoryName
	}
	if !IsValidColor(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

// DefaultCategories seeded on first start
func DefaultCategories() []Category {
	return []Category{
		{Name: "Food & Dining", Color: "#ef4444", Sort: 10},
		{Name: "Transportation", Color: "#3b82f6", Sort: 20},
		{Name: "Shopping", Color: "#a855f7", Sort: 30},
		{Name: "Entertainment", Color: "#ec4899", Sort: 40},
		{Name: "Health", Color: "#10b981", Sort: 50},
		{Name: "Education", Color: "#f59e0b", Sort: 60},
		{Name: "Housing", Color: "#14b8a6", Sort: 70},
		{Name: "Utilities", Color: "#0ea5e9", Sort: 80},
		{Name: "Other", Color: DefaultCategoryColor, Sort: 90},
	}
}
