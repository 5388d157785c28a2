package testdata

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/keyxmakerx/qollect/internal/apperror"
	"github.com/keyxmakerx/qollect/internal/realtime"
	"github.com/keyxmakerx/qollect/internal/sanitize"
)

const maxNameLen = 300

// TestDataService defines the business logic contract for test data.
type TestDataService interface {
	List(ctx context.Context, filter Filter) ([]TestData, error)
	GetByID(ctx context.Context, id string) (*TestData, error)
	Create(ctx context.Context, input CreateTestDataInput) (*TestData, error)
	Update(ctx context.Context, id string, input UpdateTestDataInput) (*TestData, error)

	// Delete removes a test case permanently and publishes a DELETE event.
	Delete(ctx context.Context, id string) error
}

type testDataService struct {
	repo      TestDataRepository
	publisher realtime.Publisher
	newID     func() string
}

// NewTestDataService creates a new test data service.
func NewTestDataService(repo TestDataRepository, publisher realtime.Publisher) TestDataService {
	return &testDataService{repo: repo, publisher: publisher, newID: uuid.NewString}
}

func (s *testDataService) List(ctx context.Context, filter Filter) ([]TestData, error) {
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return list, nil
}

func (s *testDataService) GetByID(ctx context.Context, id string) (*TestData, error) {
	td, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Wrap(err)
	}
	return td, nil
}

func (s *testDataService) Create(ctx context.Context, input CreateTestDataInput) (*TestData, error) {
	td := TestData{
		ID:          s.newID(),
		Name:        input.Name,
		Description: input.Description,
		TestData:    input.TestData,
		Expected:    input.Expected,
	}
	for _, ref := range []struct {
		field string
		src   *string
		dst   *string
	}{
		{"product_id", input.ProductID, &td.ProductID},
		{"module_id", input.ModuleID, &td.ModuleID},
		{"category_id", input.CategoryID, &td.CategoryID},
	} {
		if ref.src == nil || *ref.src == "" {
			return nil, apperror.NewBadRequest(ref.field + " is required")
		}
		*ref.dst = *ref.src
	}

	clean, err := normalize(td)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &clean); err != nil {
		return nil, apperror.Wrap(err)
	}

	slog.Info("test data created", slog.String("id", clean.ID), slog.String("product_id", clean.ProductID))
	realtime.Notify(ctx, s.publisher, realtime.TableTestData, realtime.Insert, clean, nil)
	return &clean, nil
}

func (s *testDataService) Update(ctx context.Context, id string, input UpdateTestDataInput) (*TestData, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, ref := range []struct {
		field string
		v     *string
	}{
		{"product_id", input.ProductID},
		{"module_id", input.ModuleID},
		{"category_id", input.CategoryID},
	} {
		if ref.v != nil && *ref.v == "" {
			return nil, apperror.NewBadRequest(ref.field + " must not be empty")
		}
	}

	next, err := normalize(input.Apply(*current))
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &next); err != nil {
		return nil, apperror.Wrap(err)
	}

	realtime.Notify(ctx, s.publisher, realtime.TableTestData, realtime.Update, next, nil)
	return &next, nil
}

func (s *testDataService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.Wrap(err)
	}
	slog.Info("test data deleted", slog.String("id", id))
	realtime.Notify(ctx, s.publisher, realtime.TableTestData, realtime.Delete, nil, map[string]string{"id": id})
	return nil
}

// normalize sanitizes the free-text fields and checks the name.
func normalize(td TestData) (TestData, error) {
	td.Name = sanitize.Text(td.Name)
	td.Description = sanitize.Text(td.Description)
	td.TestData = sanitize.Text(td.TestData)
	td.Expected = sanitize.Text(td.Expected)

	if td.Name == "" {
		return td, apperror.NewBadRequest("test data name is required")
	}
	if len(td.Name) > maxNameLen {
		return td, apperror.NewBadRequest(fmt.Sprintf("test data name must be at most %d characters", maxNameLen))
	}
	return td, nil
}
