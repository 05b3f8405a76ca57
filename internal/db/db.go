package db

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Open opens (or creates) the SQLite database holding users and posts and
// applies pending migrations. Migrations are versioned .sql files embedded
// from internal/db/migrations:
//
//	0001_name.up.sql / 0001_name.down.sql
//
// The returned handle is a pool; callers acquire connections per operation.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		path = "app.db"
	}
	d, err := sql.Open("sqlite3", withConnParams(path))
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if err := d.Ping(); err != nil {
		_ = d.Close()
		return nil, errors.Wrap(err, "ping sqlite")
	}
	// WAL is not available for in-memory databases; ignore the error there.
	_, _ = d.Exec(`PRAGMA journal_mode=WAL`)
	if _, err := newMigrator(d, migrationsFS).up(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// withConnParams appends the per-connection pragmas to the DSN so every
// pooled connection gets them, not only the first one.
func withConnParams(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}
