package database

import (
	"context"
	"embed"
	"testing"
	"time"
)

const testMigrationsDir = "testdata"

//go:embed testdata/*.sql
var testMigrationsFS embed.FS

// useTestMigrations points the package at the testdata migrations for the
// duration of a test.
func useTestMigrations(t *testing.T) {
	t.Helper()

	origFS := MigrationsFS
	origDir := MigrationsDir
	t.Cleanup(func() {
		MigrationsFS = origFS
		MigrationsDir = origDir
	})

	MigrationsFS = testMigrationsFS
	MigrationsDir = testMigrationsDir
}

func TestMigrate(t *testing.T) {
	useTestMigrations(t)
	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	// Table created
	var tableName string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='test_samples'",
	).Scan(&tableName)
	if err != nil {
		t.Fatalf("table test_samples not created: %v", err)
	}

	// Migration recorded
	var count int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations",
	).Scan(&count); err != nil {
		t.Fatalf("querying schema_migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 applied migration, got %d", count)
	}

	// Idempotent
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	useTestMigrations(t)
	db := openTestDB(t)

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}

	// Table dropped
	var tableName string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='test_samples'",
	).Scan(&tableName)
	if err == nil {
		t.Error("table test_samples still exists after rollback")
	}

	// Rolling back with nothing applied is a no-op.
	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() on empty history error = %v", err)
	}
}

func TestMigrate_NoEmbeddedFS(t *testing.T) {
	origFS := MigrationsFS
	t.Cleanup(func() { MigrationsFS = origFS })

	var emptyFS embed.FS
	MigrationsFS = emptyFS

	db := openTestDB(t)
	if err := db.Migrate(context.Background()); err != nil {
		t.Errorf("Migrate() with no embedded FS should be a no-op, got %v", err)
	}
}

func TestParseMigrationName(t *testing.T) {
	tests := []struct {
		base        string
		wantVersion string
		wantDesc    string
		wantOK      bool
	}{
		{"20260301_000000_initial_schema", "20260301_000000", "initial_schema", true},
		{"20260301_000000_add_index", "20260301_000000", "add_index", true},
		{"badname", "", "", false},
		{"only_two", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			version, desc, ok := parseMigrationName(tt.base)
			if ok != tt.wantOK {
				t.Fatalf("parseMigrationName(%q) ok = %v, want %v", tt.base, ok, tt.wantOK)
			}
			if version != tt.wantVersion || desc != tt.wantDesc {
				t.Errorf("parseMigrationName(%q) = (%q, %q), want (%q, %q)",
					tt.base, version, desc, tt.wantVersion, tt.wantDesc)
			}
		})
	}
}
