package client

import (
	"context"
	"fmt"

	"github.com/keyxmakerx/qollect/internal/client/optimistic"
	"github.com/keyxmakerx/qollect/internal/plugins/categories"
	"github.com/keyxmakerx/qollect/internal/plugins/modules"
	"github.com/keyxmakerx/qollect/internal/plugins/products"
)

// --- Products ---

// CreateProduct shows the new product immediately under a temporary id
// and swaps in the stored row once the server answers. Without an
// explicit display order the product goes last.
func (s *Session) CreateProduct(ctx context.Context, in products.CreateProductInput) (products.Product, error) {
	tmp := s.newTempID()
	order := 1
	for _, p := range s.products.GetAll() {
		order = max(order, p.DisplayOrder+1)
	}
	if in.DisplayOrder != nil {
		order = *in.DisplayOrder
	}
	return s.productOps.Execute(ctx, optimistic.Mutation[products.Product]{
		Op: optimistic.OpCreate,
		ID: tmp,
		Local: func(products.Product, bool) (products.Product, bool) {
			return products.Product{ID: tmp, Name: in.Name, Logo: in.Logo, DisplayOrder: order, IsActive: true}, true
		},
		Remote: func(ctx context.Context) (products.Product, error) {
			return s.backend.Products.Create(ctx, in)
		},
	})
}

// UpdateProduct applies a partial update.
func (s *Session) UpdateProduct(ctx context.Context, id string, in products.UpdateProductInput) (products.Product, error) {
	return s.productOps.Update(ctx, id, in.Apply, func(ctx context.Context) (products.Product, error) {
		return s.backend.Products.Update(ctx, id, in)
	})
}

// ToggleProduct flips is_active from the displayed value. Returns
// optimistic.ErrPending while a toggle of the same product is in flight.
func (s *Session) ToggleProduct(ctx context.Context, id string) (products.Product, error) {
	return s.productOps.Toggle(ctx, id,
		func(p products.Product) products.Product { p.IsActive = !p.IsActive; return p },
		func(ctx context.Context, next products.Product) (products.Product, error) {
			return s.backend.Products.Update(ctx, id, products.UpdateProductInput{IsActive: &next.IsActive})
		},
	)
}

// DeleteProduct deactivates a product. It stays in Products().
func (s *Session) DeleteProduct(ctx context.Context, id string) error {
	return s.productOps.Delete(ctx, id,
		func(p products.Product) products.Product { p.IsActive = false; return p },
		func(ctx context.Context) error { return s.backend.Products.SoftDelete(ctx, id) },
	)
}

// ReorderProducts moves the active product at index from to index to,
// renumbers the active list 1..N and submits it as one batch. Dropping a
// product on its own position changes nothing and sends nothing. On failure
// the whole previous order is restored and the returned MutationError
// offers a resync.
func (s *Session) ReorderProducts(ctx context.Context, from, to int) ([]products.Product, error) {
	active := s.ActiveProducts()
	if from == to && from >= 0 && from < len(active) {
		return active, nil
	}
	reordered, err := products.Reorder(active, from, to)
	if err != nil {
		return nil, &optimistic.MutationError{Entity: "product", Op: optimistic.OpReorder, Err: err, Resync: s.RefetchProducts}
	}

	next := append([]products.Product{}, reordered...)
	next = append(next, s.products.Filter(func(p products.Product) bool { return !p.IsActive })...)

	return s.productOps.ExecuteBatch(ctx, optimistic.OpReorder, next, func(ctx context.Context) ([]products.Product, error) {
		if s.backend.Reorderer == nil {
			return nil, fmt.Errorf("product reordering is not supported by this backend")
		}
		return s.backend.Reorderer.ReorderProducts(ctx, products.OrderOf(reordered))
	})
}

// --- Modules ---

// CreateModule adds a module optimistically.
func (s *Session) CreateModule(ctx context.Context, in modules.CreateModuleInput) (modules.Module, error) {
	tmp := s.newTempID()
	return s.moduleOps.Execute(ctx, optimistic.Mutation[modules.Module]{
		Op: optimistic.OpCreate,
		ID: tmp,
		Local: func(modules.Module, bool) (modules.Module, bool) {
			return modules.Module{ID: tmp, Name: in.Name, IsActive: true}, true
		},
		Remote: func(ctx context.Context) (modules.Module, error) {
			return s.backend.Modules.Create(ctx, in)
		},
	})
}

// UpdateModule applies a partial update.
func (s *Session) UpdateModule(ctx context.Context, id string, in modules.UpdateModuleInput) (modules.Module, error) {
	return s.moduleOps.Update(ctx, id, in.Apply, func(ctx context.Context) (modules.Module, error) {
		return s.backend.Modules.Update(ctx, id, in)
	})
}

// ToggleModule flips is_active from the displayed value.
func (s *Session) ToggleModule(ctx context.Context, id string) (modules.Module, error) {
	return s.moduleOps.Toggle(ctx, id,
		func(m modules.Module) modules.Module { m.IsActive = !m.IsActive; return m },
		func(ctx context.Context, next modules.Module) (modules.Module, error) {
			return s.backend.Modules.Update(ctx, id, modules.UpdateModuleInput{IsActive: &next.IsActive})
		},
	)
}

// DeleteModule deactivates a module.
func (s *Session) DeleteModule(ctx context.Context, id string) error {
	return s.moduleOps.Delete(ctx, id,
		func(m modules.Module) modules.Module { m.IsActive = false; return m },
		func(ctx context.Context) error { return s.backend.Modules.SoftDelete(ctx, id) },
	)
}

// --- Categories ---

// CreateCategory adds a category optimistically. The server fills in a
// missing tag or color; the local row shows the default color meanwhile.
func (s *Session) CreateCategory(ctx context.Context, in categories.CreateCategoryInput) (categories.Category, error) {
	tmp := s.newTempID()
	color := in.Color
	if color == "" {
		color = categories.DefaultColor
	}
	return s.categoryOps.Execute(ctx, optimistic.Mutation[categories.Category]{
		Op: optimistic.OpCreate,
		ID: tmp,
		Local: func(categories.Category, bool) (categories.Category, bool) {
			return categories.Category{ID: tmp, Name: in.Name, Tag: in.Tag, Color: color, IsActive: true}, true
		},
		Remote: func(ctx context.Context) (categories.Category, error) {
			return s.backend.Categories.Create(ctx, in)
		},
	})
}

// UpdateCategory applies a partial update.
func (s *Session) UpdateCategory(ctx context.Context, id string, in categories.UpdateCategoryInput) (categories.Category, error) {
	return s.categoryOps.Update(ctx, id, in.Apply, func(ctx context.Context) (categories.Category, error) {
		return s.backend.Categories.Update(ctx, id, in)
	})
}

// ToggleCategory flips is_active from the displayed value.
func (s *Session) ToggleCategory(ctx context.Context, id string) (categories.Category, error) {
	return s.categoryOps.Toggle(ctx, id,
		func(c categories.Category) categories.Category { c.IsActive = !c.IsActive; return c },
		func(ctx context.Context, next categories.Category) (categories.Category, error) {
			return s.backend.Categories.Update(ctx, id, categories.UpdateCategoryInput{IsActive: &next.IsActive})
		},
	)
}

// DeleteCategory deactivates a category.
func (s *Session) DeleteCategory(ctx context.Context, id string) error {
	return s.categoryOps.Delete(ctx, id,
		func(c categories.Category) categories.Category { c.IsActive = false; return c },
		func(ctx context.Context) error { return s.backend.Categories.SoftDelete(ctx, id) },
	)
}
