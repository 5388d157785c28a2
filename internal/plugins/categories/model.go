// Package categories manages test-case categories. A category carries a
// short display tag and a color, sorts by name and is only deactivated.
package categories

import (
	"sort"
	"time"
)

// DefaultColor is used when a category is created without a color.
const DefaultColor = "#10B981"

// Category classifies test data (e.g. "Smoke", "Regression").
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tag       string    `json:"tag"`
	Color     string    `json:"color"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetID returns the category identifier.
func (c Category) GetID() string { return c.ID }

// CreateCategoryInput is the JSON body for POST /categories.
type CreateCategoryInput struct {
	Name  string `json:"name"`
	Tag   string `json:"tag"`
	Color string `json:"color"`
}

// UpdateCategoryInput is a partial update.
type UpdateCategoryInput struct {
	Name     *string `json:"name,omitempty"`
	Tag      *string `json:"tag,omitempty"`
	Color    *string `json:"color,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// Apply returns c with the non-nil fields of u applied.
func (u UpdateCategoryInput) Apply(c Category) Category {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Tag != nil {
		c.Tag = *u.Tag
	}
	if u.Color != nil {
		c.Color = *u.Color
	}
	if u.IsActive != nil {
		c.IsActive = *u.IsActive
	}
	return c
}

// Less orders categories by name.
func Less(a, b Category) bool { return a.Name < b.Name }

// Sort stably sorts list by name.
func Sort(list []Category) {
	sort.SliceStable(list, func(i, j int) bool { return Less(list[i], list[j]) })
}
