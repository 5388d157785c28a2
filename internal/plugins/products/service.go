package products

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/keyxmakerx/qollect/internal/apperror"
	"github.com/keyxmakerx/qollect/internal/realtime"
	"github.com/keyxmakerx/qollect/internal/sanitize"
)

// maxNameLen matches products.name VARCHAR(200).
const maxNameLen = 200

// ProductService defines the business logic contract for products.
// Every successful write is published on the products realtime channel.
type ProductService interface {
	List(ctx context.Context, includeInactive bool) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, input CreateProductInput) (*Product, error)
	Update(ctx context.Context, id string, input UpdateProductInput) (*Product, error)

	// Deactivate soft-deletes a product.
	Deactivate(ctx context.Context, id string) (*Product, error)

	// Reorder applies a batch of display orders atomically and returns the
	// updated products in the order given.
	Reorder(ctx context.Context, entries []OrderEntry) ([]Product, error)
}

// productService implements ProductService.
type productService struct {
	repo      ProductRepository
	publisher realtime.Publisher
	newID     func() string
}

// NewProductService creates a new product service.
func NewProductService(repo ProductRepository, publisher realtime.Publisher) ProductService {
	return &productService{repo: repo, publisher: publisher, newID: uuid.NewString}
}

// List returns products in display order.
func (s *productService) List(ctx context.Context, includeInactive bool) ([]Product, error) {
	list, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return list, nil
}

// GetByID returns one product.
func (s *productService) GetByID(ctx context.Context, id string) (*Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Wrap(err)
	}
	return p, nil
}

// Create validates input and inserts an active product. Without an explicit
// display_order the product is placed after the current last one.
func (s *productService) Create(ctx context.Context, input CreateProductInput) (*Product, error) {
	name, err := cleanName(input.Name)
	if err != nil {
		return nil, err
	}
	logo, err := cleanLogo(input.Logo)
	if err != nil {
		return nil, err
	}

	order := 0
	if input.DisplayOrder != nil {
		if *input.DisplayOrder < 0 {
			return nil, apperror.NewBadRequest("display_order must not be negative")
		}
		order = *input.DisplayOrder
	} else {
		highest, err := s.repo.MaxDisplayOrder(ctx)
		if err != nil {
			return nil, apperror.NewInternal(err)
		}
		order = highest + 1
	}

	p := &Product{ID: s.newID(), Name: name, Logo: logo, DisplayOrder: order, IsActive: true}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperror.Wrap(err)
	}

	slog.Info("product created", slog.String("id", p.ID), slog.String("name", p.Name))
	realtime.Notify(ctx, s.publisher, realtime.TableProducts, realtime.Insert, p, nil)
	return p, nil
}

// Update applies a partial update.
func (s *productService) Update(ctx context.Context, id string, input UpdateProductInput) (*Product, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := cleanName(*input.Name)
		if err != nil {
			return nil, err
		}
		input.Name = &name
	}
	if input.Logo != nil {
		logo, err := cleanLogo(*input.Logo)
		if err != nil {
			return nil, err
		}
		input.Logo = &logo
	}
	if input.DisplayOrder != nil && *input.DisplayOrder < 0 {
		return nil, apperror.NewBadRequest("display_order must not be negative")
	}

	next := input.Apply(*current)
	if err := s.repo.Update(ctx, &next); err != nil {
		return nil, apperror.Wrap(err)
	}

	realtime.Notify(ctx, s.publisher, realtime.TableProducts, realtime.Update, next, nil)
	return &next, nil
}

// Deactivate sets is_active to false. The row stays retrievable through
// the "all" listing.
func (s *productService) Deactivate(ctx context.Context, id string) (*Product, error) {
	inactive := false
	p, err := s.Update(ctx, id, UpdateProductInput{IsActive: &inactive})
	if err != nil {
		return nil, err
	}
	slog.Info("product deactivated", slog.String("id", id))
	return p, nil
}

// Reorder validates and applies a renumbering batch, then publishes one
// UPDATE per product.
func (s *productService) Reorder(ctx context.Context, entries []OrderEntry) ([]Product, error) {
	if len(entries) == 0 {
		return nil, apperror.NewBadRequest("at least one product is required")
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			return nil, apperror.NewBadRequest("product id is required")
		}
		if seen[e.ID] {
			return nil, apperror.NewBadRequest(fmt.Sprintf("product %s appears more than once", e.ID))
		}
		if e.DisplayOrder < 0 {
			return nil, apperror.NewBadRequest("display_order must not be negative")
		}
		seen[e.ID] = true
	}

	if err := s.repo.SetDisplayOrders(ctx, entries); err != nil {
		return nil, apperror.Wrap(err)
	}

	out := make([]Product, 0, len(entries))
	for _, e := range entries {
		p, err := s.repo.FindByID(ctx, e.ID)
		if err != nil {
			return nil, apperror.Wrap(err)
		}
		out = append(out, *p)
		realtime.Notify(ctx, s.publisher, realtime.TableProducts, realtime.Update, p, nil)
	}

	slog.Info("products reordered", slog.Int("count", len(out)))
	return out, nil
}

func cleanName(raw string) (string, error) {
	name := sanitize.Text(raw)
	if name == "" {
		return "", apperror.NewBadRequest("product name is required")
	}
	if len(name) > maxNameLen {
		return "", apperror.NewBadRequest(fmt.Sprintf("product name must be at most %d characters", maxNameLen))
	}
	return name, nil
}

func cleanLogo(raw string) (string, error) {
	if !sanitize.LogoURL(raw) {
		return "", apperror.NewBadRequest("logo must be an http(s) URL or a data:image URL")
	}
	return raw, nil
}
