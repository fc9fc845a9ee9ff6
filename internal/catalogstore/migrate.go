package catalogstore

import (
	"database/sql"
	"fmt"
)

// runMigrations applies every outstanding migration inside a single
// EXCLUSIVE transaction, serializing concurrent process startups against
// the same database file and recording each applied version exactly once
// in schema_migrations.
func runMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys for migrations: %w", err)
	}
	defer func() { _, _ = db.Exec("PRAGMA foreign_keys = ON") }()

	if _, err := db.Exec("BEGIN EXCLUSIVE"); err != nil {
		return fmt.Errorf("acquire exclusive lock for migrations: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = db.Exec("ROLLBACK")
		}
	}()

	applied, err := appliedVersions(db)
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}

	for _, m := range []struct {
		version string
		run     func(*sql.DB) error
	}{
		{"0001", runMigration0001},
		{"0002", runMigration0002},
		{"0003", runMigration0003},
	} {
		if applied[m.version] {
			continue
		}
		if err := m.run(db); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.version, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
			return fmt.Errorf("record migration %s: %w", m.version, err)
		}
	}

	if _, err := db.Exec("COMMIT"); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	committed = true
	return nil
}

// appliedVersions reads already-applied migration versions. The
// schema_migrations table itself may not exist yet on a brand-new database,
// which is not an error — it just means nothing has been applied.
func appliedVersions(db *sql.DB) (map[string]bool, error) {
	applied := map[string]bool{}

	var count int
	err := db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='schema_migrations'`).Scan(&count)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return applied, nil
	}

	rows, err := db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func runMigration0001(db *sql.DB) error {
	_, err := db.Exec(migration0001)
	return err
}

func runMigration0002(db *sql.DB) error {
	_, err := db.Exec(migration0002)
	return err
}

// runMigration0003 adds the cull-tracking columns via additive column
// probing: each ALTER TABLE runs only if the column is not already present,
// since a database that went straight from 0001 to a hand-patched 0003
// (or that has already had this migration partially applied) must not fail
// with "duplicate column name".
func runMigration0003(db *sql.DB) error {
	existing, err := columnSet(db, "photos")
	if err != nil {
		return fmt.Errorf("inspect photos columns: %w", err)
	}

	for _, col := range migration0003Columns {
		if existing[col.name] {
			continue
		}
		if _, err := db.Exec(col.ddl); err != nil {
			return fmt.Errorf("add column %s: %w", col.name, err)
		}
	}

	if _, err := db.Exec(migration0003Indexes); err != nil {
		return fmt.Errorf("create 0003 indexes: %w", err)
	}
	return nil
}

func columnSet(db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
