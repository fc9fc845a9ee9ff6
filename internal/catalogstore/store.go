// Package catalogstore is the durable photo/tag/embedding store: a
// single-file embedded relational database with additive migrations,
// upsert-on-path semantics, filtered queries, smart-view counts, duplicate
// grouping, and embedding similarity search.
package catalogstore

import (
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store wraps the catalog database connection pool.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the catalog database at path, applies all
// outstanding migrations, and returns a ready Store. Migration failure is
// fatal: the caller should abort startup rather than run against a
// partially migrated schema.
func Open(path string, maxConns int) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the pool for components that need raw access (the readiness
// handler pings it; the escape hatch matches the teacher's storage layer
// shape).
func (s *Store) DB() *sql.DB {
	return s.db
}
