package service

import (
	"context"
	"sort"
	"strings"

	"expense-manager/models"

	"gorm.io/gorm"
)

// CategoryRegistry is an immutable snapshot of the categories table.
// It is loaded once and shared by the services that need category lookups.
type CategoryRegistry struct {
	byID   map[uint]models.Category
	sorted []models.Category
}

// NewCategoryRegistry builds a registry from an in-memory list
func NewCategoryRegistry(categories []models.Category) (*CategoryRegistry, error) {
	r := &CategoryRegistry{
		byID:   make(map[uint]models.Category, len(categories)),
		sorted: make([]models.Category, 0, len(categories)),
	}
	for _, c := range categories {
		if err := c.Validate(); err != nil {
			return nil, validationError("category %d: %v", c.ID, err)
		}
		if _, dup := r.byID[c.ID]; dup {
			return nil, validationError("duplicate category id %d", c.ID)
		}
		r.byID[c.ID] = c
		r.sorted = append(r.sorted, c)
	}
	sort.SliceStable(r.sorted, func(i, j int) bool {
		a, b := strings.ToLower(r.sorted[i].Name), strings.ToLower(r.sorted[j].Name)
		if a != b {
			return a < b
		}
		return r.sorted[i].ID < r.sorted[j].ID
	})
	return r, nil
}

// LoadCategoryRegistry reads all categories from db
func LoadCategoryRegistry(ctx context.Context, db *gorm.DB) (*CategoryRegistry, error) {
	var list []models.Category
	if err := db.WithContext(ctx).Find(&list).Error; err != nil {
		return nil, storageError("load categories", err)
	}
	return NewCategoryRegistry(list)
}

// List returns the categories ordered by name. The slice is a copy.
func (r *CategoryRegistry) List() []models.Category {
	out := make([]models.Category, len(r.sorted))
	copy(out, r.sorted)
	return out
}

// Lookup finds a category by id
func (r *CategoryRegistry) Lookup(id uint) (models.Category, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// Len number of categories
func (r *CategoryRegistry) Len() int {
	return len(r.sorted)
}
