// Package dbtest provides a throwaway store for package tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/seat-reservation/internal/database"
)

// OpenTest returns a migrated in-memory SQLite store that is closed
// when the test ends.
func OpenTest(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := database.Open(database.Options{Driver: database.DriverSQLite, Name: ":memory:"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
