package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/keyxmakerx/qollect/internal/apperror"
)

// KeyRepository defines the data access contract for API keys.
type KeyRepository interface {
	Create(ctx context.Context, key *APIKey) error
	FindByPrefix(ctx context.Context, prefix string) (*APIKey, error)
	List(ctx context.Context) ([]APIKey, error)
	UpdateActive(ctx context.Context, id int, active bool) error
	UpdateLastUsed(ctx context.Context, id int) error
}

// keyRepository implements KeyRepository with MariaDB.
type keyRepository struct {
	db *sql.DB
}

// NewKeyRepository creates a new API key repository.
func NewKeyRepository(db *sql.DB) KeyRepository {
	return &keyRepository{db: db}
}

const keyColumns = `id, key_prefix, key_hash, name, role, is_active, last_used_at, created_at`

// Create inserts a new key and sets its ID and CreatedAt. A prefix that is
// already taken is reported as a conflict.
func (r *keyRepository) Create(ctx context.Context, key *APIKey) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_prefix, key_hash, name, role, is_active) VALUES (?, ?, ?, ?, TRUE)`,
		key.KeyPrefix, key.KeyHash, key.Name, key.Role,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return apperror.NewConflict("an api key with this prefix already exists")
		}
		return fmt.Errorf("inserting api key: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading api key id: %w", err)
	}
	key.ID = int(id)
	key.IsActive = true
	return r.db.QueryRowContext(ctx, `SELECT created_at FROM api_keys WHERE id = ?`, key.ID).Scan(&key.CreatedAt)
}

// FindByPrefix looks up a key by its prefix for authentication.
func (r *keyRepository) FindByPrefix(ctx context.Context, prefix string) (*APIKey, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+keyColumns+` FROM api_keys WHERE key_prefix = ?`, prefix)
	key, err := scanKey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("api key not found")
	}
	if err != nil {
		return nil, fmt.Errorf("finding api key: %w", err)
	}
	return key, nil
}

// List returns every key, newest first.
func (r *keyRepository) List(ctx context.Context) ([]APIKey, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+keyColumns+` FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		key, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning api key: %w", err)
		}
		keys = append(keys, *key)
	}
	return keys, rows.Err()
}

// UpdateActive enables or disables a key.
func (r *keyRepository) UpdateActive(ctx context.Context, id int, active bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE api_keys SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("updating api key: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		// MariaDB reports 0 affected rows when the value is unchanged, so
		// confirm the row exists before calling it missing.
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM api_keys WHERE id = ?)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("checking api key: %w", err)
		}
		if !exists {
			return apperror.NewNotFound("api key not found")
		}
	}
	return nil
}

// UpdateLastUsed stamps the key's last use with the current time.
func (r *keyRepository) UpdateLastUsed(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used_at = CURRENT_TIMESTAMP(3) WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("updating api key last use: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKey(row rowScanner) (*APIKey, error) {
	var (
		k        APIKey
		lastUsed sql.NullTime
	)
	if err := row.Scan(&k.ID, &k.KeyPrefix, &k.KeyHash, &k.Name, &k.Role, &k.IsActive, &lastUsed, &k.CreatedAt); err != nil {
		return nil, err
	}
	if lastUsed.Valid {
		k.LastUsedAt = &lastUsed.Time
	}
	return &k, nil
}

// isDuplicateEntry checks if a MySQL error is a duplicate key violation.
func isDuplicateEntry(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Duplicate entry")
}
