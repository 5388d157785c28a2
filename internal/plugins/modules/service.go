package modules

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/keyxmakerx/qollect/internal/apperror"
	"github.com/keyxmakerx/qollect/internal/realtime"
	"github.com/keyxmakerx/qollect/internal/sanitize"
)

const maxNameLen = 200

// ModuleService defines the business logic contract for modules.
type ModuleService interface {
	List(ctx context.Context, includeInactive bool) ([]Module, error)
	GetByID(ctx context.Context, id string) (*Module, error)
	Create(ctx context.Context, input CreateModuleInput) (*Module, error)
	Update(ctx context.Context, id string, input UpdateModuleInput) (*Module, error)
	Deactivate(ctx context.Context, id string) (*Module, error)
}

type moduleService struct {
	repo      ModuleRepository
	publisher realtime.Publisher
	newID     func() string
}

// NewModuleService creates a new module service.
func NewModuleService(repo ModuleRepository, publisher realtime.Publisher) ModuleService {
	return &moduleService{repo: repo, publisher: publisher, newID: uuid.NewString}
}

func (s *moduleService) List(ctx context.Context, includeInactive bool) ([]Module, error) {
	list, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return list, nil
}

func (s *moduleService) GetByID(ctx context.Context, id string) (*Module, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Wrap(err)
	}
	return m, nil
}

func (s *moduleService) Create(ctx context.Context, input CreateModuleInput) (*Module, error) {
	name, err := cleanName(input.Name)
	if err != nil {
		return nil, err
	}

	m := &Module{ID: s.newID(), Name: name, IsActive: true}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, apperror.Wrap(err)
	}

	slog.Info("module created", slog.String("id", m.ID), slog.String("name", m.Name))
	realtime.Notify(ctx, s.publisher, realtime.TableModules, realtime.Insert, m, nil)
	return m, nil
}

func (s *moduleService) Update(ctx context.Context, id string, input UpdateModuleInput) (*Module, error) {
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

	next := input.Apply(*current)
	if err := s.repo.Update(ctx, &next); err != nil {
		return nil, apperror.Wrap(err)
	}

	realtime.Notify(ctx, s.publisher, realtime.TableModules, realtime.Update, next, nil)
	return &next, nil
}

// Deactivate soft-deletes a module. Existing product assignments and test
// data keep referencing it.
func (s *moduleService) Deactivate(ctx context.Context, id string) (*Module, error) {
	inactive := false
	m, err := s.Update(ctx, id, UpdateModuleInput{IsActive: &inactive})
	if err != nil {
		return nil, err
	}
	slog.Info("module deactivated", slog.String("id", id))
	return m, nil
}

func cleanName(raw string) (string, error) {
	name := sanitize.Text(raw)
	if name == "" {
		return "", apperror.NewBadRequest("module name is required")
	}
	if len(name) > maxNameLen {
		return "", apperror.NewBadRequest(fmt.Sprintf("module name must be at most %d characters", maxNameLen))
	}
	return name, nil
}
