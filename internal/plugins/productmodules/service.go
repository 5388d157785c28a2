package productmodules

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/keyxmakerx/qollect/internal/apperror"
	"github.com/keyxmakerx/qollect/internal/plugins/modules"
	"github.com/keyxmakerx/qollect/internal/realtime"
)

// ProductModuleService defines the business logic contract for assignments.
type ProductModuleService interface {
	List(ctx context.Context, filter ListFilter) ([]ProductModule, error)

	// Assign creates the (product, module) association, or reactivates the
	// existing row for that pair. created is false when a row was reused.
	Assign(ctx context.Context, input CreateProductModuleInput) (pm *ProductModule, created bool, err error)

	Update(ctx context.Context, id string, input UpdateProductModuleInput) (*ProductModule, error)
	Deactivate(ctx context.Context, id string) (*ProductModule, error)
	ModulesForProduct(ctx context.Context, productID string) ([]modules.Module, error)
}

type productModuleService struct {
	repo      ProductModuleRepository
	publisher realtime.Publisher
	newID     func() string
}

// NewProductModuleService creates a new association service.
func NewProductModuleService(repo ProductModuleRepository, publisher realtime.Publisher) ProductModuleService {
	return &productModuleService{repo: repo, publisher: publisher, newID: uuid.NewString}
}

func (s *productModuleService) List(ctx context.Context, filter ListFilter) ([]ProductModule, error) {
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return list, nil
}

func (s *productModuleService) Assign(ctx context.Context, input CreateProductModuleInput) (*ProductModule, bool, error) {
	if input.ProductID == "" || input.ModuleID == "" {
		return nil, false, apperror.NewBadRequest("product_id and module_id are required")
	}

	existing, err := s.repo.FindByPair(ctx, input.ProductID, input.ModuleID)
	switch {
	case err == nil:
		pm, err := s.reactivate(ctx, existing)
		return pm, false, err
	case !apperror.IsNotFound(err):
		return nil, false, apperror.Wrap(err)
	}

	pm := &ProductModule{ID: s.newID(), ProductID: input.ProductID, ModuleID: input.ModuleID, IsActive: true}
	if err := s.repo.Create(ctx, pm); err != nil {
		if apperror.SafeCode(err) != http.StatusConflict {
			return nil, false, apperror.Wrap(err)
		}
		// Another request inserted the pair between lookup and insert.
		existing, findErr := s.repo.FindByPair(ctx, input.ProductID, input.ModuleID)
		if findErr != nil {
			return nil, false, apperror.Wrap(findErr)
		}
		pm, err := s.reactivate(ctx, existing)
		return pm, false, err
	}

	slog.Info("module assigned",
		slog.String("product_id", pm.ProductID),
		slog.String("module_id", pm.ModuleID),
	)
	realtime.Notify(ctx, s.publisher, realtime.TableProductModules, realtime.Insert, pm, nil)
	return pm, true, nil
}

// reactivate turns an existing row back on. An already-active row is
// returned as is, without a realtime event.
func (s *productModuleService) reactivate(ctx context.Context, pm *ProductModule) (*ProductModule, error) {
	if pm.IsActive {
		return pm, nil
	}
	if err := s.repo.SetActive(ctx, pm, true); err != nil {
		return nil, apperror.Wrap(err)
	}
	slog.Info("module assignment reactivated", slog.String("id", pm.ID))
	realtime.Notify(ctx, s.publisher, realtime.TableProductModules, realtime.Update, pm, nil)
	return pm, nil
}

func (s *productModuleService) Update(ctx context.Context, id string, input UpdateProductModuleInput) (*ProductModule, error) {
	pm, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Wrap(err)
	}
	if input.IsActive == nil {
		return pm, nil
	}
	if err := s.repo.SetActive(ctx, pm, *input.IsActive); err != nil {
		return nil, apperror.Wrap(err)
	}
	realtime.Notify(ctx, s.publisher, realtime.TableProductModules, realtime.Update, pm, nil)
	return pm, nil
}

func (s *productModuleService) Deactivate(ctx context.Context, id string) (*ProductModule, error) {
	inactive := false
	return s.Update(ctx, id, UpdateProductModuleInput{IsActive: &inactive})
}

func (s *productModuleService) ModulesForProduct(ctx context.Context, productID string) ([]modules.Module, error) {
	list, err := s.repo.ListModulesForProduct(ctx, productID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return list, nil
}
