// Package productmodules manages which modules belong to which products.
// There is at most one row per (product, module) pair: unassigning flips
// is_active and assigning again reactivates the same row.
package productmodules

import "time"

// ProductModule associates a module with a product.
type ProductModule struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	ModuleID  string    `json:"module_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetID returns the association identifier.
func (pm ProductModule) GetID() string { return pm.ID }

// CreateProductModuleInput is the JSON body for POST /product-modules.
type CreateProductModuleInput struct {
	ProductID string `json:"product_id"`
	ModuleID  string `json:"module_id"`
}

// UpdateProductModuleInput is a partial update; only is_active can change.
type UpdateProductModuleInput struct {
	IsActive *bool `json:"is_active,omitempty"`
}

// Apply returns pm with the non-nil fields of u applied.
func (u UpdateProductModuleInput) Apply(pm ProductModule) ProductModule {
	if u.IsActive != nil {
		pm.IsActive = *u.IsActive
	}
	return pm
}

// ListFilter narrows GET /product-modules.
type ListFilter struct {
	IncludeInactive bool
	ProductID       string
}

// Matches reports whether pm passes the filter.
func (f ListFilter) Matches(pm ProductModule) bool {
	if !f.IncludeInactive && !pm.IsActive {
		return false
	}
	return f.ProductID == "" || pm.ProductID == f.ProductID
}
