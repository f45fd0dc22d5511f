package seed

import (
	"context"
	"database/sql"
	"fmt"
)

// DefaultTenantName is the name of the tenant created in an empty database.
const DefaultTenantName = "Default"

// Tenants inserts the default tenant if no tenant exists yet, so a fresh
// database can be imported into with tenant 1.
func Tenants(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&count); err != nil {
		return fmt.Errorf("count tenants: %w", err)
	}
	if count > 0 {
		return nil
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO tenants (id, name, created_at) VALUES (1, ?, ?)`,
		DefaultTenantName, "2024-01-01T00:00:00.000Z",
	); err != nil {
		return fmt.Errorf("insert tenant %s: %w", DefaultTenantName, err)
	}
	return nil
}
