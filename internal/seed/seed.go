package seed

import (
	"context"
	"database/sql"
	"fmt"
)

// Seed inserts the standard seed data into a migrated database. It is
// idempotent: existing rows are left untouched.
func Seed(ctx context.Context, db *sql.DB) error {
	if err := Tenants(ctx, db); err != nil {
		return fmt.Errorf("seed tenants: %w", err)
	}
	return nil
}
