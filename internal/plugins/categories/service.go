package categories

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/keyxmakerx/qollect/internal/apperror"
	"github.com/keyxmakerx/qollect/internal/realtime"
	"github.com/keyxmakerx/qollect/internal/sanitize"
)

const (
	maxNameLen = 200
	maxTagLen  = 50
)

// CategoryService defines the business logic contract for categories.
type CategoryService interface {
	List(ctx context.Context, includeInactive bool) ([]Category, error)
	GetByID(ctx context.Context, id string) (*Category, error)
	Create(ctx context.Context, input CreateCategoryInput) (*Category, error)
	Update(ctx context.Context, id string, input UpdateCategoryInput) (*Category, error)
	Deactivate(ctx context.Context, id string) (*Category, error)
}

type categoryService struct {
	repo      CategoryRepository
	publisher realtime.Publisher
	newID     func() string
}

// NewCategoryService creates a new category service.
func NewCategoryService(repo CategoryRepository, publisher realtime.Publisher) CategoryService {
	return &categoryService{repo: repo, publisher: publisher, newID: uuid.NewString}
}

func (s *categoryService) List(ctx context.Context, includeInactive bool) ([]Category, error) {
	list, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return list, nil
}

func (s *categoryService) GetByID(ctx context.Context, id string) (*Category, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Wrap(err)
	}
	return c, nil
}

// Create validates input and stores an active category. The tag defaults
// to the upper-cased first three letters of the name.
func (s *categoryService) Create(ctx context.Context, input CreateCategoryInput) (*Category, error) {
	name, err := cleanText("category name", input.Name, maxNameLen)
	if err != nil {
		return nil, err
	}
	tag := sanitize.Text(input.Tag)
	if tag == "" {
		tag = defaultTag(name)
	}
	if len(tag) > maxTagLen {
		return nil, apperror.NewBadRequest(fmt.Sprintf("tag must be at most %d characters", maxTagLen))
	}
	color := strings.TrimSpace(input.Color)
	if color == "" {
		color = DefaultColor
	}
	if !sanitize.Color(color) {
		return nil, apperror.NewBadRequest("color must be a hex color (e.g. #10B981) or a color name")
	}

	c := &Category{ID: s.newID(), Name: name, Tag: tag, Color: color, IsActive: true}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, apperror.Wrap(err)
	}

	slog.Info("category created", slog.String("id", c.ID), slog.String("name", c.Name))
	realtime.Notify(ctx, s.publisher, realtime.TableCategories, realtime.Insert, c, nil)
	return c, nil
}

func (s *categoryService) Update(ctx context.Context, id string, input UpdateCategoryInput) (*Category, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := cleanText("category name", *input.Name, maxNameLen)
		if err != nil {
			return nil, err
		}
		input.Name = &name
	}
	if input.Tag != nil {
		tag, err := cleanText("tag", *input.Tag, maxTagLen)
		if err != nil {
			return nil, err
		}
		input.Tag = &tag
	}
	if input.Color != nil {
		color := strings.TrimSpace(*input.Color)
		if !sanitize.Color(color) {
			return nil, apperror.NewBadRequest("color must be a hex color (e.g. #10B981) or a color name")
		}
		input.Color = &color
	}

	next := input.Apply(*current)
	if err := s.repo.Update(ctx, &next); err != nil {
		return nil, apperror.Wrap(err)
	}

	realtime.Notify(ctx, s.publisher, realtime.TableCategories, realtime.Update, next, nil)
	return &next, nil
}

func (s *categoryService) Deactivate(ctx context.Context, id string) (*Category, error) {
	inactive := false
	c, err := s.Update(ctx, id, UpdateCategoryInput{IsActive: &inactive})
	if err != nil {
		return nil, err
	}
	slog.Info("category deactivated", slog.String("id", id))
	return c, nil
}

func cleanText(field, raw string, maxLen int) (string, error) {
	v := sanitize.Text(raw)
	if v == "" {
		return "", apperror.NewBadRequest(field + " is required")
	}
	if len(v) > maxLen {
		return "", apperror.NewBadRequest(fmt.Sprintf("%s must be at most %d characters", field, maxLen))
	}
	return v, nil
}

// defaultTag derives a short label from a name: "Regression" -> "REG".
func defaultTag(name string) string {
	letters := []rune(strings.ToUpper(strings.ReplaceAll(name, " ", "")))
	if len(letters) > 3 {
		letters = letters[:3]
	}
	return string(letters)
}
