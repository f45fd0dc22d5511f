package testhelpers

import (
	"context"
	"database/sql"
	"testing"

	"github.com/johnwards/crmimport/internal/database"
)

// NewTestDB returns an in-memory SQLite database configured the same way as
// production. The database is automatically closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// Tenant IDs created by NewMigratedDB.
const (
	TenantA int64 = 1
	TenantB int64 = 2
)

// NewMigratedDB returns a test database with all migrations applied and two
// tenants, TenantA and TenantB.
func NewMigratedDB(t *testing.T) *sql.DB {
	t.Helper()

	db := NewTestDB(t)
	ctx := context.Background()

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, name := range []string{"Tenant A", "Tenant B"} {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO tenants (name, created_at) VALUES (?, '2024-01-01T00:00:00.000Z')`, name,
		); err != nil {
			t.Fatalf("insert tenant %s: %v", name, err)
		}
	}

	return db
}
