package productmodules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/keyxmakerx/qollect/internal/apperror"
	"github.com/keyxmakerx/qollect/internal/plugins/modules"
)

// ProductModuleRepository defines the data access contract for associations.
type ProductModuleRepository interface {
	Create(ctx context.Context, pm *ProductModule) error
	FindByID(ctx context.Context, id string) (*ProductModule, error)
	FindByPair(ctx context.Context, productID, moduleID string) (*ProductModule, error)
	List(ctx context.Context, filter ListFilter) ([]ProductModule, error)
	SetActive(ctx context.Context, pm *ProductModule, active bool) error

	// ListModulesForProduct returns active modules with an active
	// association to productID, sorted by name.
	ListModulesForProduct(ctx context.Context, productID string) ([]modules.Module, error)
}

type productModuleRepository struct {
	db *sql.DB
}

// NewProductModuleRepository creates a new association repository.
func NewProductModuleRepository(db *sql.DB) ProductModuleRepository {
	return &productModuleRepository{db: db}
}

const pmColumns = `id, product_id, module_id, is_active, created_at, updated_at`

func scanProductModule(row interface{ Scan(...any) error }) (*ProductModule, error) {
	var pm ProductModule
	if err := row.Scan(&pm.ID, &pm.ProductID, &pm.ModuleID, &pm.IsActive, &pm.CreatedAt, &pm.UpdatedAt); err != nil {
		return nil, err
	}
	return &pm, nil
}

// Create inserts pm. A missing product or module is a validation error;
// an existing pair is a conflict.
func (r *productModuleRepository) Create(ctx context.Context, pm *ProductModule) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO product_modules (id, product_id, module_id, is_active) VALUES (?, ?, ?, ?)`,
		pm.ID, pm.ProductID, pm.ModuleID, pm.IsActive,
	)
	switch {
	case isDuplicateEntry(err):
		return apperror.NewConflict("module is already assigned to this product")
	case isForeignKeyViolation(err):
		return apperror.NewValidation("product or module does not exist")
	case err != nil:
		return fmt.Errorf("inserting product module: %w", err)
	}
	return r.reload(ctx, pm)
}

func (r *productModuleRepository) FindByID(ctx context.Context, id string) (*ProductModule, error) {
	pm, err := scanProductModule(r.db.QueryRowContext(ctx,
		`SELECT `+pmColumns+` FROM product_modules WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("product module not found")
	}
	if err != nil {
		return nil, fmt.Errorf("finding product module: %w", err)
	}
	return pm, nil
}

func (r *productModuleRepository) FindByPair(ctx context.Context, productID, moduleID string) (*ProductModule, error) {
	pm, err := scanProductModule(r.db.QueryRowContext(ctx,
		`SELECT `+pmColumns+` FROM product_modules WHERE product_id = ? AND module_id = ?`,
		productID, moduleID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("product module not found")
	}
	if err != nil {
		return nil, fmt.Errorf("finding product module pair: %w", err)
	}
	return pm, nil
}

// List returns associations in creation order.
func (r *productModuleRepository) List(ctx context.Context, filter ListFilter) ([]ProductModule, error) {
	var (
		where []string
		args  []any
	)
	if !filter.IncludeInactive {
		where = append(where, "is_active = TRUE")
	}
	if filter.ProductID != "" {
		where = append(where, "product_id = ?")
		args = append(args, filter.ProductID)
	}

	query := `SELECT ` + pmColumns + ` FROM product_modules`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing product modules: %w", err)
	}
	defer rows.Close()

	var out []ProductModule
	for rows.Next() {
		pm, err := scanProductModule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product module: %w", err)
		}
		out = append(out, *pm)
	}
	return out, rows.Err()
}

// SetActive flips is_active and reloads pm.
func (r *productModuleRepository) SetActive(ctx context.Context, pm *ProductModule, active bool) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE product_modules SET is_active = ? WHERE id = ?`, active, pm.ID,
	); err != nil {
		return fmt.Errorf("updating product module: %w", err)
	}
	return r.reload(ctx, pm)
}

func (r *productModuleRepository) ListModulesForProduct(ctx context.Context, productID string) ([]modules.Module, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.name, m.is_active, m.created_at, m.updated_at
		 FROM product_modules pm
		 INNER JOIN modules m ON m.id = pm.module_id
		 WHERE pm.product_id = ? AND pm.is_active = TRUE AND m.is_active = TRUE
		 ORDER BY m.name ASC`, productID)
	if err != nil {
		return nil, fmt.Errorf("listing modules for product: %w", err)
	}
	defer rows.Close()

	var out []modules.Module
	for rows.Next() {
		var m modules.Module
		if err := rows.Scan(&m.ID, &m.Name, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning module: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *productModuleRepository) reload(ctx context.Context, pm *ProductModule) error {
	fresh, err := r.FindByID(ctx, pm.ID)
	if err != nil {
		return err
	}
	*pm = *fresh
	return nil
}

// isDuplicateEntry checks if a MySQL error is a duplicate key violation.
func isDuplicateEntry(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Duplicate entry")
}

// isForeignKeyViolation reports MySQL error 1452 (child row references a
// missing parent).
func isForeignKeyViolation(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1452
}
