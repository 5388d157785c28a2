package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyxmakerx/qollect/internal/apperror"
)

// ProductRepository defines the data access contract for products.
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, includeInactive bool) ([]Product, error)
	Update(ctx context.Context, p *Product) error
	MaxDisplayOrder(ctx context.Context) (int, error)

	// SetDisplayOrders applies every entry in one transaction. If any id
	// does not exist, nothing is changed.
	SetDisplayOrders(ctx context.Context, entries []OrderEntry) error
}

// productRepository implements ProductRepository with MariaDB.
type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, logo, display_order, is_active, created_at, updated_at`

// Create inserts p (ID already assigned) and reloads it for timestamps.
func (r *productRepository) Create(ctx context.Context, p *Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, name, logo, display_order, is_active) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Logo, p.DisplayOrder, p.IsActive,
	)
	if err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}
	return r.reload(ctx, p)
}

// FindByID returns the product or a NotFound error.
func (r *productRepository) FindByID(ctx context.Context, id string) (*Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Logo, &p.DisplayOrder, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("finding product: %w", err)
	}
	return &p, nil
}

// List returns products in display order. Inactive products are omitted
// unless includeInactive is set.
func (r *productRepository) List(ctx context.Context, includeInactive bool) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	if !includeInactive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY display_order ASC, name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Logo, &p.DisplayOrder, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update writes every mutable column of p and reloads its timestamps.
func (r *productRepository) Update(ctx context.Context, p *Product) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = ?, logo = ?, display_order = ?, is_active = ? WHERE id = ?`,
		p.Name, p.Logo, p.DisplayOrder, p.IsActive, p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}
	return r.reload(ctx, p)
}

// MaxDisplayOrder returns the highest display_order, or 0 with no products.
func (r *productRepository) MaxDisplayOrder(ctx context.Context) (int, error) {
	var highest sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(display_order) FROM products`).Scan(&highest); err != nil {
		return 0, fmt.Errorf("reading max display order: %w", err)
	}
	return int(highest.Int64), nil
}

// SetDisplayOrders renumbers products inside one transaction.
func (r *productRepository) SetDisplayOrders(ctx context.Context, entries []OrderEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning reorder: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE products SET display_order = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("preparing reorder: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.DisplayOrder, e.ID); err != nil {
			return fmt.Errorf("reordering product %s: %w", e.ID, err)
		}
		// Affected-row counts are 0 when the value is unchanged, so check
		// existence separately.
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)`, e.ID).Scan(&exists); err != nil {
			return fmt.Errorf("checking product %s: %w", e.ID, err)
		}
		if !exists {
			return apperror.NewNotFound(fmt.Sprintf("product %s not found", e.ID))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reorder: %w", err)
	}
	return nil
}

func (r *productRepository) reload(ctx context.Context, p *Product) error {
	fresh, err := r.FindByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *fresh
	return nil
}
