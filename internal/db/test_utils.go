package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates a file-backed sqlite database in a per-test temp dir.
// A file (rather than :memory:) keeps every pooled connection on the same
// database, which the concurrency tests rely on.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := createTables(db); err != nil {
		t.Fatalf("failed to create tables: %v", err)
	}

	return db
}
