package storage

import (
	"context"
	"path/filepath"
	"testing"
)

// setupTestStore creates a file-backed SQLite store for testing
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "fitdex.db"),
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })
	return store
}

// TestStoreLifecycle tests database initialization and closure
func TestStoreLifecycle(t *testing.T) {
	store, err := NewSQLiteStore(SQLiteConfig{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate in-memory store: %v", err)
	}

	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestNewSQLiteStoreRequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(SQLiteConfig{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestUninitializedStore(t *testing.T) {
	store, err := NewSQLiteStore(SQLiteConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if _, _, err := store.Get(ctx, "k"); err == nil {
		t.Error("expected Get to fail before Init")
	}
	if err := store.Set(ctx, "k", []byte("v")); err == nil {
		t.Error("expected Set to fail before Init")
	}
	if err := store.Migrate(ctx); err == nil {
		t.Error("expected Migrate to fail before Init")
	}
}

// TestMigrateIsIdempotent runs migrations twice against the same database
func TestMigrateIsIdempotent(t *testing.T) {
	store := setupTestStore(t)

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

func TestSQLiteKeyValue(t *testing.T) {
	store := setupTestStore(t)
	testKeyValueContract(t, store)
}

// TestSQLitePersistsAcrossReopen checks values survive closing the database
func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fitdex.db")
	ctx := context.Background()

	first, err := Open(ctx, Config{Driver: DriverSQLite, SQLite: SQLiteConfig{Path: path}})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := first.Set(ctx, "@favorites", []byte(`[{"name":"Push-up"}]`)); err != nil {
		t.Fatalf("failed to set: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}

	second, err := Open(ctx, Config{Driver: DriverSQLite, SQLite: SQLiteConfig{Path: path}})
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer second.Close()

	value, found, err := second.Get(ctx, "@favorites")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if !found {
		t.Fatal("expected key to survive reopen")
	}
	if string(value) != `[{"name":"Push-up"}]` {
		t.Errorf("unexpected value %s", value)
	}
}
