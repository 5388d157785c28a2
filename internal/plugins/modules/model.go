// Package modules manages functional modules that products can be
// assigned. Modules sort by name and are only ever deactivated.
package modules

import (
	"sort"
	"time"
)

// Module is one functional area under test.
type Module struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetID returns the module identifier.
func (m Module) GetID() string { return m.ID }

// CreateModuleInput is the JSON body for POST /modules.
type CreateModuleInput struct {
	Name string `json:"name"`
}

// UpdateModuleInput is a partial update.
type UpdateModuleInput struct {
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// Apply returns m with the non-nil fields of u applied.
func (u UpdateModuleInput) Apply(m Module) Module {
	if u.Name != nil {
		m.Name = *u.Name
	}
	if u.IsActive != nil {
		m.IsActive = *u.IsActive
	}
	return m
}

// Less orders modules by name.
func Less(a, b Module) bool { return a.Name < b.Name }

// Sort stably sorts list by name.
func Sort(list []Module) {
	sort.SliceStable(list, func(i, j int) bool { return Less(list[i], list[j]) })
}
