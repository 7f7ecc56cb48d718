package migrations

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	tables := []string{
		"campaigns", "objects", "link_tags", "tag_links", "images", "settings",
		"notes", "labels", "object_labels", "logs", "schema_migrations",
	}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestCheckDBMigrationStatus_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	err := CheckDBMigrationStatus(db)
	if !errors.Is(err, ErrNoVersion) {
		t.Errorf("CheckDBMigrationStatus() error = %v, want ErrNoVersion", err)
	}
}

func TestCheckDBMigrationStatus_AfterMigration(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}
	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after migration returned error: %v", err)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}
	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after double migration returned error: %v", err)
	}
}

func TestLatestVersion(t *testing.T) {
	v, err := LatestVersion()
	if err != nil {
		t.Fatalf("LatestVersion() error = %v", err)
	}
	if v < 1 {
		t.Errorf("LatestVersion() = %d, want >= 1", v)
	}
}

func TestForeignKeyConstraints(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	_, err := db.Exec(`
		INSERT INTO objects (id, campaign_id, name, type, created_at, updated_at)
		VALUES ('o1', 'no-such-campaign', 'Town', 'Place', datetime('now'), datetime('now'))
	`)
	if err == nil {
		t.Error("Expected foreign key constraint violation, but insert succeeded")
	}
}

func TestSchema_ObjectTypeCheck(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO campaigns (id, name, created_at, updated_at) VALUES ('c1', 'C', datetime('now'), datetime('now'))"); err != nil {
		t.Fatalf("Failed to insert campaign: %v", err)
	}

	_, err := db.Exec(`
		INSERT INTO objects (id, campaign_id, name, type, created_at, updated_at)
		VALUES ('o1', 'c1', 'Thing', 'Dragon', datetime('now'), datetime('now'))
	`)
	if err == nil {
		t.Error("Expected check constraint violation for unknown type, but insert succeeded")
	}
}

func TestSchema_SettingNameUniqueAmongLiveRows(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	insert := "INSERT INTO settings (id, setting_name, setting_value, created_at, updated_at, deleted_at) VALUES (?, 'logging', '{}', datetime('now'), datetime('now'), ?)"
	if _, err := db.Exec(insert, "s1", "2024-01-01 00:00:00"); err != nil {
		t.Fatalf("Failed to insert deleted setting: %v", err)
	}
	if _, err := db.Exec(insert, "s2", nil); err != nil {
		t.Fatalf("Failed to insert live setting next to deleted one: %v", err)
	}
	if _, err := db.Exec(insert, "s3", nil); err == nil {
		t.Error("Expected unique constraint violation for second live setting, but insert succeeded")
	}
}

// openTestDB opens an in-memory SQLite database pinned to one connection.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	return db
}
