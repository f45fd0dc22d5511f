package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/johnwards/crmimport/internal/database"
	"github.com/johnwards/crmimport/internal/domain"
)

// TenantStore defines the interface for tenant persistence.
type TenantStore interface {
	Create(ctx context.Context, name string) (*domain.Tenant, error)
	Get(ctx context.Context, id int64) (*domain.Tenant, error)
}

// SQLiteTenantStore implements TenantStore backed by SQLite.
type SQLiteTenantStore struct {
	db *sql.DB
}

// NewSQLiteTenantStore creates a new SQLiteTenantStore.
func NewSQLiteTenantStore(db *sql.DB) *SQLiteTenantStore {
	return &SQLiteTenantStore{db: db}
}

// Create inserts a new tenant.
func (s *SQLiteTenantStore) Create(ctx context.Context, name string) (*domain.Tenant, error) {
	ts := now()
	res, err := s.db.ExecContext(ctx, `INSERT INTO tenants (name, created_at) VALUES (?, ?)`, name, ts)
	if err != nil {
		return nil, fmt.Errorf("insert tenant: %w", database.Classify(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &domain.Tenant{ID: id, Name: name, CreatedAt: ts}, nil
}

// Get retrieves a tenant by ID.
func (s *SQLiteTenantStore) Get(ctx context.Context, id int64) (*domain.Tenant, error) {
	var t domain.Tenant
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM tenants WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return &t, nil
}
