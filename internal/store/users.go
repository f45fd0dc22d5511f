package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/johnwards/crmimport/internal/database"
	"github.com/johnwards/crmimport/internal/domain"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	Create(ctx context.Context, tenantID int64, email, firstName, lastName string) (*domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, tenantID int64, email string) (*domain.User, error)
	List(ctx context.Context, tenantID int64, limit int, after int64) ([]*domain.User, bool, int64, error)
}

// SQLiteUserStore implements UserStore backed by SQLite.
type SQLiteUserStore struct {
	db *sql.DB
}

// NewSQLiteUserStore creates a new SQLiteUserStore.
func NewSQLiteUserStore(db *sql.DB) *SQLiteUserStore {
	return &SQLiteUserStore{db: db}
}

const userColumns = `id, tenant_id, email, first_name, last_name, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.FirstName, &u.LastName, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new active user in the tenant.
func (s *SQLiteUserStore) Create(ctx context.Context, tenantID int64, email, firstName, lastName string) (*domain.User, error) {
	ts := now()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (tenant_id, email, first_name, last_name, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, TRUE, ?, ?)`,
		tenantID, email, firstName, lastName, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", database.Classify(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return &domain.User{
		ID:        id,
		TenantID:  tenantID,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		IsActive:  true,
		CreatedAt: ts,
		UpdatedAt: ts,
	}, nil
}

// Get retrieves a single user by ID.
func (s *SQLiteUserStore) Get(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByEmail retrieves the user with the given email within a tenant. The
// match is exact.
func (s *SQLiteUserStore) GetByEmail(ctx context.Context, tenantID int64, email string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = ? AND email = ?`, tenantID, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// List returns a page of a tenant's users ordered by ID.
//
//nolint:gocritic // named results provide clarity for multiple return values
func (s *SQLiteUserStore) List(ctx context.Context, tenantID int64, limit int, after int64) ([]*domain.User, bool, int64, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = ? AND id > ? ORDER BY id ASC LIMIT ?`,
		tenantID, after, limit+1,
	)
	if err != nil {
		return nil, false, 0, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, false, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, false, 0, fmt.Errorf("rows iteration: %w", err)
	}

	hasMore := false
	var nextAfter int64
	if len(users) > limit {
		hasMore = true
		nextAfter = users[limit-1].ID
		users = users[:limit]
	}

	return users, hasMore, nextAfter, nil
}
