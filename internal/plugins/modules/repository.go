package modules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyxmakerx/qollect/internal/apperror"
)

// ModuleRepository defines the data access contract for modules.
type ModuleRepository interface {
	Create(ctx context.Context, m *Module) error
	FindByID(ctx context.Context, id string) (*Module, error)
	List(ctx context.Context, includeInactive bool) ([]Module, error)
	Update(ctx context.Context, m *Module) error
}

// moduleRepository implements ModuleRepository with MariaDB.
type moduleRepository struct {
	db *sql.DB
}

// NewModuleRepository creates a new module repository.
func NewModuleRepository(db *sql.DB) ModuleRepository {
	return &moduleRepository{db: db}
}

// Create inserts m and reloads it for timestamps.
func (r *moduleRepository) Create(ctx context.Context, m *Module) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO modules (id, name, is_active) VALUES (?, ?, ?)`,
		m.ID, m.Name, m.IsActive,
	); err != nil {
		return fmt.Errorf("inserting module: %w", err)
	}
	return r.reload(ctx, m)
}

// FindByID returns the module or a NotFound error.
func (r *moduleRepository) FindByID(ctx context.Context, id string) (*Module, error) {
	var m Module
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, is_active, created_at, updated_at FROM modules WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("module not found")
	}
	if err != nil {
		return nil, fmt.Errorf("finding module: %w", err)
	}
	return &m, nil
}

// List returns modules sorted by name.
func (r *moduleRepository) List(ctx context.Context, includeInactive bool) ([]Module, error) {
	query := `SELECT id, name, is_active, created_at, updated_at FROM modules`
	if !includeInactive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing modules: %w", err)
	}
	defer rows.Close()

	var out []Module
	for rows.Next() {
		var m Module
		if err := rows.Scan(&m.ID, &m.Name, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning module: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update writes name and is_active and reloads timestamps.
func (r *moduleRepository) Update(ctx context.Context, m *Module) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE modules SET name = ?, is_active = ? WHERE id = ?`,
		m.Name, m.IsActive, m.ID,
	); err != nil {
		return fmt.Errorf("updating module: %w", err)
	}
	return r.reload(ctx, m)
}

func (r *moduleRepository) reload(ctx context.Context, m *Module) error {
	fresh, err := r.FindByID(ctx, m.ID)
	if err != nil {
		return err
	}
	*m = *fresh
	return nil
}
