package sqlite

import (
	"context"
	"database/sql"
	"testing"
)

// NewTestDB crea una base SQLite en memoria con las migraciones aplicadas.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := Migrate(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("migrating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
