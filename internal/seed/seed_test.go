package seed_test

import (
	"context"
	"testing"

	"github.com/johnwards/crmimport/internal/database"
	"github.com/johnwards/crmimport/internal/seed"
	"github.com/johnwards/crmimport/internal/store"
	"github.com/johnwards/crmimport/internal/testhelpers"
)

func TestSeedIsIdempotent(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	ctx := context.Background()

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for range 2 {
		if err := seed.Seed(ctx, db); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("tenants = %d, want 1", count)
	}

	tenant, err := store.NewSQLiteTenantStore(db).Get(ctx, 1)
	if err != nil {
		t.Fatalf("get tenant: %v", err)
	}
	if tenant.Name != seed.DefaultTenantName {
		t.Errorf("name = %q, want %q", tenant.Name, seed.DefaultTenantName)
	}
}

func TestSeedLeavesExistingTenants(t *testing.T) {
	db := testhelpers.NewMigratedDB(t)
	ctx := context.Background()

	if err := seed.Seed(ctx, db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("tenants = %d, want 2", count)
	}
}
