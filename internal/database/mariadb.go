// Package database opens the MariaDB pool and Redis client shared by the
// API server, and applies schema migrations at startup.
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/keyxmakerx/qollect/internal/config"
)

// NewMariaDB opens the connection pool and blocks until MariaDB answers a
// ping. Cancelling ctx aborts the wait.
func NewMariaDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening mariadb pool: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := waitReady(ctx, "mariadb", StartupBackoff, db.PingContext); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
