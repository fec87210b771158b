package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// CreateSchema creates the database schema if it doesn't exist.
func CreateSchema(db *sql.DB) error {
	if err := createSchemaVersionTable(db); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}
	if err := createFilesTable(db); err != nil {
		return fmt.Errorf("creating files table: %w", err)
	}
	if err := createClosuresTable(db); err != nil {
		return fmt.Errorf("creating closures table: %w", err)
	}
	if err := createClassesTable(db); err != nil {
		return fmt.Errorf("creating classes table: %w", err)
	}
	if err := createInvocationsTable(db); err != nil {
		return fmt.Errorf("creating invocations table: %w", err)
	}
	if err := createCrateInfoTable(db); err != nil {
		return fmt.Errorf("creating crate_info table: %w", err)
	}
	return nil
}

func createSchemaVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Insert version if table is empty
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
		return err
	}
	return nil
}

func createFilesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS files (
			path TEXT PRIMARY KEY NOT NULL,
			size INTEGER NOT NULL
		)
	`)
	return err
}

func createClosuresTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS closures (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			extern_name TEXT NOT NULL UNIQUE,
			path TEXT NOT NULL,
			line INTEGER NOT NULL,
			ret_cpp TEXT NOT NULL,
			capture_count INTEGER NOT NULL,
			callback_offset INTEGER NOT NULL,
			body TEXT NOT NULL
		)
	`)
	return err
}

func createClassesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS classes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			cpp TEXT NOT NULL,
			public INTEGER NOT NULL,
			path TEXT NOT NULL,
			line INTEGER NOT NULL,
			UNIQUE(name, cpp, path, line)
		)
	`)
	return err
}

func createInvocationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS invocations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			closure TEXT NOT NULL,
			ident TEXT NOT NULL,
			ret_cpp TEXT NOT NULL,
			args INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_invocations_closure ON invocations(closure)
	`)
	return err
}

func createCrateInfoTable(db *sql.DB) error {
	// Single-row table, id is pinned to 1.
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS crate_info (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			file_hash TEXT NOT NULL,
			callbacks INTEGER NOT NULL,
			snippets TEXT NOT NULL
		)
	`)
	return err
}
