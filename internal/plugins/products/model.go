// Package products manages the product catalog. Products are ordered by an
// explicit display_order and are never physically deleted; deactivation
// clears is_active instead.
package products

import (
	"fmt"
	"slices"
	"sort"
	"time"
)

// Product is one product in the catalog.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Logo         string    `json:"logo"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GetID returns the product identifier.
func (p Product) GetID() string { return p.ID }

// CreateProductInput is the JSON body for POST /products. DisplayOrder is
// optional; the server appends the product after the last one when unset.
type CreateProductInput struct {
	Name         string `json:"name"`
	Logo         string `json:"logo"`
	DisplayOrder *int   `json:"display_order,omitempty"`
}

// UpdateProductInput is a partial update. Nil fields are left unchanged.
type UpdateProductInput struct {
	Name         *string `json:"name,omitempty"`
	Logo         *string `json:"logo,omitempty"`
	DisplayOrder *int    `json:"display_order,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

// Apply returns p with the non-nil fields of u applied.
func (u UpdateProductInput) Apply(p Product) Product {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Logo != nil {
		p.Logo = *u.Logo
	}
	if u.DisplayOrder != nil {
		p.DisplayOrder = *u.DisplayOrder
	}
	if u.IsActive != nil {
		p.IsActive = *u.IsActive
	}
	return p
}

// OrderEntry assigns a display_order to one product in a batch reorder.
type OrderEntry struct {
	ID           string `json:"id"`
	DisplayOrder int    `json:"display_order"`
}

// Less orders products by display_order ascending, ties broken by name.
func Less(a, b Product) bool {
	if a.DisplayOrder != b.DisplayOrder {
		return a.DisplayOrder < b.DisplayOrder
	}
	return a.Name < b.Name
}

// Sort stably sorts list in display order.
func Sort(list []Product) {
	sort.SliceStable(list, func(i, j int) bool { return Less(list[i], list[j]) })
}

// Reorder moves the product at index from to index to and renumbers the
// whole sequence 1..N. The input slice is not modified.
func Reorder(list []Product, from, to int) ([]Product, error) {
	n := len(list)
	if from < 0 || from >= n || to < 0 || to >= n {
		return nil, fmt.Errorf("reorder index out of range: from=%d to=%d len=%d", from, to, n)
	}

	out := make([]Product, 0, n)
	moved := list[from]
	for i, p := range list {
		if i != from {
			out = append(out, p)
		}
	}
	out = slices.Insert(out, to, moved)

	for i := range out {
		out[i].DisplayOrder = i + 1
	}
	return out, nil
}

// OrderOf returns the (id, display_order) pairs of list, for submitting a
// renumbered sequence in one request.
func OrderOf(list []Product) []OrderEntry {
	entries := make([]OrderEntry, len(list))
	for i, p := range list {
		entries[i] = OrderEntry{ID: p.ID, DisplayOrder: p.DisplayOrder}
	}
	return entries
}
