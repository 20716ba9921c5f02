// Package db owns the SQLite connection, schema migrations and maintenance
// operations for the catalog database.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Open opens (creating if necessary) the catalog database at dbPath and
// applies the performance pragmas.
func Open(dbPath string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = memory",
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	return conn, nil
}

// OpenMigrated opens the database and applies any pending migrations.
func OpenMigrated(dbPath string) (*sql.DB, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := InitializeDatabase(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// Optimize runs the SQLite query-planner optimization pass.
func Optimize(conn *sql.DB) error {
	_, err := conn.Exec("PRAGMA optimize")
	return err
}

// Analyze refreshes table statistics.
func Analyze(conn *sql.DB) error {
	_, err := conn.Exec("ANALYZE")
	return err
}

// Vacuum rebuilds the database file, reclaiming free pages.
func Vacuum(conn *sql.DB) error {
	_, err := conn.Exec("VACUUM")
	return err
}

// WALCheckpoint truncates the write-ahead log.
func WALCheckpoint(conn *sql.DB) error {
	_, err := conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}
