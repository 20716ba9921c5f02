package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenMigratedCreatesSchema(t *testing.T) {
	conn, err := OpenMigrated(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Failed to open migrated database: %v", err)
	}
	defer func() { _ = conn.Close() }()

	tables := []string{
		"books_categories",
		"magazines_categories",
		"datasheets_categories",
		"others_categories",
		"publications",
		"migrations",
	}
	for _, table := range tables {
		var name string
		err := conn.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("Expected table %s to exist: %v", table, err)
		}
	}
}

func TestApplyPendingMigrationsIsIdempotent(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = conn.Close() }()

	manager := NewMigrationManager(conn)
	if err := manager.ApplyPendingMigrations(); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}
	if err := manager.ApplyPendingMigrations(); err != nil {
		t.Fatalf("Second apply should be a no-op, got: %v", err)
	}

	status, err := manager.GetMigrationStatus()
	if err != nil {
		t.Fatalf("Failed to get status: %v", err)
	}
	if len(status.Pending) != 0 {
		t.Errorf("Expected no pending migrations, got %d", len(status.Pending))
	}
	if len(status.Applied) != len(status.Available) {
		t.Errorf("Expected all %d migrations applied, got %d", len(status.Available), len(status.Applied))
	}
	for _, migration := range status.Applied {
		if migration.AppliedAt == nil {
			t.Errorf("Expected applied timestamp for migration %d", migration.Version)
		}
	}
}

func TestMigrationManagerFromPath(t *testing.T) {
	dir := t.TempDir()
	migration := "CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT NOT NULL);"
	if err := os.WriteFile(filepath.Join(dir, "001_widgets.sql"), []byte(migration), 0644); err != nil {
		t.Fatalf("Failed to write migration: %v", err)
	}
	// Files that do not follow <version>_<name>.sql are ignored.
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0644); err != nil {
		t.Fatalf("Failed to write stray file: %v", err)
	}

	conn, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = conn.Close() }()

	manager := NewMigrationManagerFromPath(conn, dir)
	if err := manager.ApplyPendingMigrations(); err != nil {
		t.Fatalf("Failed to apply directory migrations: %v", err)
	}

	if _, err := conn.Exec("INSERT INTO widgets (name) VALUES ('gear')"); err != nil {
		t.Errorf("Expected widgets table to exist: %v", err)
	}

	available, err := manager.GetAvailableMigrations()
	if err != nil {
		t.Fatalf("Failed to list migrations: %v", err)
	}
	if len(available) != 1 || available[0].Name != "widgets" {
		t.Errorf("Unexpected migrations %+v", available)
	}
}

func TestMaintenanceHelpers(t *testing.T) {
	conn, err := OpenMigrated(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = conn.Close() }()

	if err := Analyze(conn); err != nil {
		t.Errorf("Analyze failed: %v", err)
	}
	if err := Optimize(conn); err != nil {
		t.Errorf("Optimize failed: %v", err)
	}
	if err := WALCheckpoint(conn); err != nil {
		t.Errorf("WALCheckpoint failed: %v", err)
	}
	if err := Vacuum(conn); err != nil {
		t.Errorf("Vacuum failed: %v", err)
	}
}
