package categories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyxmakerx/qollect/internal/apperror"
)

// CategoryRepository defines the data access contract for categories.
type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	FindByID(ctx context.Context, id string) (*Category, error)
	List(ctx context.Context, includeInactive bool) ([]Category, error)
	Update(ctx context.Context, c *Category) error
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

const categoryColumns = `id, name, tag, color, is_active, created_at, updated_at`

func scanCategory(row interface{ Scan(...any) error }) (*Category, error) {
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.Tag, &c.Color, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) Create(ctx context.Context, c *Category) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, tag, color, is_active) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Tag, c.Color, c.IsActive,
	); err != nil {
		return fmt.Errorf("inserting category: %w", err)
	}
	return r.reload(ctx, c)
}

func (r *categoryRepository) FindByID(ctx context.Context, id string) (*Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("category not found")
	}
	if err != nil {
		return nil, fmt.Errorf("finding category: %w", err)
	}
	return c, nil
}

func (r *categoryRepository) List(ctx context.Context, includeInactive bool) ([]Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	if !includeInactive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *categoryRepository) Update(ctx context.Context, c *Category) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, tag = ?, color = ?, is_active = ? WHERE id = ?`,
		c.Name, c.Tag, c.Color, c.IsActive, c.ID,
	); err != nil {
		return fmt.Errorf("updating category: %w", err)
	}
	return r.reload(ctx, c)
}

func (r *categoryRepository) reload(ctx context.Context, c *Category) error {
	fresh, err := r.FindByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *fresh
	return nil
}
