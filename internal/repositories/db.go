package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

const createUsersTable = `
	CREATE TABLE IF NOT EXISTS users (
		email         TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		registered_by TEXT NOT NULL,
		self_destruct BOOLEAN NOT NULL DEFAULT FALSE,
		utm_link      TEXT NOT NULL DEFAULT '',
		device_id     TEXT,
		device_name   TEXT,
		total_devices INTEGER NOT NULL DEFAULT 0
	)`

// Open connects to the store and makes sure the users table exists.
// For sqlite the dsn is a file path; its directory is created if missing.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// one writer at a time, same as the file lock would enforce anyway
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
		for _, pragma := range []string{
			"PRAGMA busy_timeout = 5000",
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
		} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("sqlite %s: %w", pragma, err)
			}
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, createUsersTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create users table: %w", err)
	}
	return db, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}
