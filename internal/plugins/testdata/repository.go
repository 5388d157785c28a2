package testdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/keyxmakerx/qollect/internal/apperror"
)

// TestDataRepository defines the data access contract for test data.
type TestDataRepository interface {
	Create(ctx context.Context, td *TestData) error
	FindByID(ctx context.Context, id string) (*TestData, error)
	List(ctx context.Context, filter Filter) ([]TestData, error)
	Update(ctx context.Context, td *TestData) error
	Delete(ctx context.Context, id string) error
}

type testDataRepository struct {
	db *sql.DB
}

// NewTestDataRepository creates a new test data repository.
func NewTestDataRepository(db *sql.DB) TestDataRepository {
	return &testDataRepository{db: db}
}

const testDataColumns = `id, name, description, product_id, module_id, category_id, test_data, expected, created_at, updated_at`

func scanTestData(row interface{ Scan(...any) error }) (*TestData, error) {
	var td TestData
	err := row.Scan(&td.ID, &td.Name, &td.Description, &td.ProductID, &td.ModuleID, &td.CategoryID,
		&td.TestData, &td.Expected, &td.CreatedAt, &td.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &td, nil
}

// Create inserts td. References to missing rows are a validation error.
func (r *testDataRepository) Create(ctx context.Context, td *TestData) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO test_data (id, name, description, product_id, module_id, category_id, test_data, expected)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		td.ID, td.Name, td.Description, td.ProductID, td.ModuleID, td.CategoryID, td.TestData, td.Expected,
	)
	if isForeignKeyViolation(err) {
		return apperror.NewValidation("product, module or category does not exist")
	}
	if err != nil {
		return fmt.Errorf("inserting test data: %w", err)
	}
	return r.reload(ctx, td)
}

func (r *testDataRepository) FindByID(ctx context.Context, id string) (*TestData, error) {
	td, err := scanTestData(r.db.QueryRowContext(ctx, `SELECT `+testDataColumns+` FROM test_data WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("test data not found")
	}
	if err != nil {
		return nil, fmt.Errorf("finding test data: %w", err)
	}
	return td, nil
}

// List returns matching rows, newest first. The table collation makes
// LIKE case-insensitive.
func (r *testDataRepository) List(ctx context.Context, filter Filter) ([]TestData, error) {
	var (
		where []string
		args  []any
	)
	if filter.ProductID != "" {
		where = append(where, "product_id = ?")
		args = append(args, filter.ProductID)
	}
	if filter.ModuleID != "" {
		where = append(where, "module_id = ?")
		args = append(args, filter.ModuleID)
	}
	if filter.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + escapeLike(term) + "%"
		where = append(where, "(name LIKE ? OR description LIKE ? OR test_data LIKE ? OR expected LIKE ?)")
		args = append(args, pattern, pattern, pattern, pattern)
	}

	query := `SELECT ` + testDataColumns + ` FROM test_data`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing test data: %w", err)
	}
	defer rows.Close()

	var out []TestData
	for rows.Next() {
		td, err := scanTestData(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning test data: %w", err)
		}
		out = append(out, *td)
	}
	return out, rows.Err()
}

func (r *testDataRepository) Update(ctx context.Context, td *TestData) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE test_data SET name = ?, description = ?, product_id = ?, module_id = ?, category_id = ?,
		        test_data = ?, expected = ?
		 WHERE id = ?`,
		td.Name, td.Description, td.ProductID, td.ModuleID, td.CategoryID, td.TestData, td.Expected, td.ID,
	)
	if isForeignKeyViolation(err) {
		return apperror.NewValidation("product, module or category does not exist")
	}
	if err != nil {
		return fmt.Errorf("updating test data: %w", err)
	}
	return r.reload(ctx, td)
}

// Delete removes the row permanently.
func (r *testDataRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM test_data WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting test data: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("test data not found")
	}
	return nil
}

func (r *testDataRepository) reload(ctx context.Context, td *TestData) error {
	fresh, err := r.FindByID(ctx, td.ID)
	if err != nil {
		return err
	}
	*td = *fresh
	return nil
}

// escapeLike escapes LIKE wildcards so the search term matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// isForeignKeyViolation reports MySQL error 1452 (child row references a
// missing parent).
func isForeignKeyViolation(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1452
}
