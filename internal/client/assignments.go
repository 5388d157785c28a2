package client

import (
	"context"
	"fmt"

	"github.com/keyxmakerx/qollect/internal/client/optimistic"
	"github.com/keyxmakerx/qollect/internal/plugins/productmodules"
)

// findPair returns the association row for (productID, moduleID), active
// or not.
func (s *Session) findPair(productID, moduleID string) (productmodules.ProductModule, bool) {
	rows := s.productModules.Filter(func(pm productmodules.ProductModule) bool {
		return pm.ProductID == productID && pm.ModuleID == moduleID
	})
	if len(rows) == 0 {
		return productmodules.ProductModule{}, false
	}
	return rows[0], true
}

// AssignModule assigns a module to a product. An existing inactive row
// for the pair is reactivated in place; the server does the same, so the
// pair never gets a second row.
func (s *Session) AssignModule(ctx context.Context, productID, moduleID string) (productmodules.ProductModule, error) {
	in := productmodules.CreateProductModuleInput{ProductID: productID, ModuleID: moduleID}

	id := s.newTempID()
	if existing, ok := s.findPair(productID, moduleID); ok {
		id = existing.ID
	}
	return s.productModuleOps.Execute(ctx, optimistic.Mutation[productmodules.ProductModule]{
		Op: optimistic.OpCreate,
		ID: id,
		Local: func(current productmodules.ProductModule, exists bool) (productmodules.ProductModule, bool) {
			if exists {
				current.IsActive = true
				return current, true
			}
			return productmodules.ProductModule{ID: id, ProductID: productID, ModuleID: moduleID, IsActive: true}, true
		},
		Remote: func(ctx context.Context) (productmodules.ProductModule, error) {
			return s.backend.ProductModules.Create(ctx, in)
		},
	})
}

// UnassignModule deactivates the active association for the pair.
func (s *Session) UnassignModule(ctx context.Context, productID, moduleID string) error {
	existing, ok := s.findPair(productID, moduleID)
	if !ok || !existing.IsActive {
		return &optimistic.MutationError{
			Entity: "product module",
			Op:     optimistic.OpDelete,
			Err:    fmt.Errorf("module %s is not assigned to product %s: %w", moduleID, productID, optimistic.ErrNotLoaded),
		}
	}
	return s.productModuleOps.Delete(ctx, existing.ID,
		func(pm productmodules.ProductModule) productmodules.ProductModule { pm.IsActive = false; return pm },
		func(ctx context.Context) error { return s.backend.ProductModules.SoftDelete(ctx, existing.ID) },
	)
}

// ToggleProductModule flips an association's is_active from the displayed
// value.
func (s *Session) ToggleProductModule(ctx context.Context, id string) (productmodules.ProductModule, error) {
	return s.productModuleOps.Toggle(ctx, id,
		func(pm productmodules.ProductModule) productmodules.ProductModule { pm.IsActive = !pm.IsActive; return pm },
		func(ctx context.Context, next productmodules.ProductModule) (productmodules.ProductModule, error) {
			return s.backend.ProductModules.Update(ctx, id, productmodules.UpdateProductModuleInput{IsActive: &next.IsActive})
		},
	)
}
