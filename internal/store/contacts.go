package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/johnwards/crmimport/internal/database"
	"github.com/johnwards/crmimport/internal/domain"
)

// ContactStore defines the interface for contact persistence.
type ContactStore interface {
	Get(ctx context.Context, tenantID, id int64) (*domain.Contact, error)
	GetByImportID(ctx context.Context, tenantID int64, importID string) (*domain.Contact, error)
	FindByName(ctx context.Context, tenantID int64, firstName, lastName string) (*domain.Contact, error)
	Save(ctx context.Context, c *domain.Contact) error
	Count(ctx context.Context, tenantID int64) (int, error)
}

// SQLiteContactStore implements ContactStore backed by SQLite.
type SQLiteContactStore struct {
	db *sql.DB
}

// NewSQLiteContactStore creates a new SQLiteContactStore.
func NewSQLiteContactStore(db *sql.DB) *SQLiteContactStore {
	return &SQLiteContactStore{db: db}
}

const contactColumns = `id, tenant_id, import_id, first_name, preposition, last_name, gender, title, status,
	picture, description, salutation, assigned_to_id, created_at, updated_at`

func scanContact(row interface{ Scan(...any) error }) (*domain.Contact, error) {
	var c domain.Contact
	var importID, firstName, preposition, lastName, title, status, picture, description, salutation sql.NullString
	var assignedTo sql.NullInt64

	err := row.Scan(&c.ID, &c.TenantID, &importID, &firstName, &preposition, &lastName, &c.Gender, &title, &status,
		&picture, &description, &salutation, &assignedTo, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.ImportID = stringPtr(importID)
	c.FirstName = stringPtr(firstName)
	c.Preposition = stringPtr(preposition)
	c.LastName = stringPtr(lastName)
	c.Title = stringPtr(title)
	c.Status = stringPtr(status)
	c.Picture = stringPtr(picture)
	c.Description = stringPtr(description)
	c.Salutation = stringPtr(salutation)
	c.AssignedToID = int64Ptr(assignedTo)
	return &c, nil
}

// Get retrieves a contact by ID within a tenant.
func (s *SQLiteContactStore) Get(ctx context.Context, tenantID, id int64) (*domain.Contact, error) {
	c, err := scanContact(s.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE tenant_id = ? AND id = ?`, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

// GetByImportID retrieves the contact carrying the external import identifier.
func (s *SQLiteContactStore) GetByImportID(ctx context.Context, tenantID int64, importID string) (*domain.Contact, error) {
	c, err := scanContact(s.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE tenant_id = ? AND import_id = ?`, tenantID, importID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get contact by import id: %w", err)
	}
	return c, nil
}

// FindByName returns the single contact with exactly this first and last
// name. It returns ErrMultipleResults when the name is ambiguous.
func (s *SQLiteContactStore) FindByName(ctx context.Context, tenantID int64, firstName, lastName string) (*domain.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts
		 WHERE tenant_id = ? AND first_name = ? AND last_name = ? ORDER BY id ASC LIMIT 2`,
		tenantID, firstName, lastName)
	if err != nil {
		return nil, fmt.Errorf("find contact by name: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var found []*domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		found = append(found, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return found[0], nil
	default:
		return nil, ErrMultipleResults
	}
}

// Save inserts the contact when it has no ID yet and updates it otherwise.
// Constraint failures are reported as ErrDataConstraint.
func (s *SQLiteContactStore) Save(ctx context.Context, c *domain.Contact) error {
	ts := now()
	args := []any{
		nullString(c.ImportID), nullString(c.FirstName), nullString(c.Preposition), nullString(c.LastName),
		int(c.Gender), nullString(c.Title), nullString(c.Status), nullString(c.Picture), nullString(c.Description),
		nullString(c.Salutation), nullInt64(c.AssignedToID),
	}

	if c.ID == 0 {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO contacts (tenant_id, import_id, first_name, preposition, last_name, gender, title, status,
				picture, description, salutation, assigned_to_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			append(append([]any{c.TenantID}, args...), ts, ts)...,
		)
		if err != nil {
			return fmt.Errorf("insert contact: %w", database.Classify(err))
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		c.ID = id
		c.CreatedAt = ts
		c.UpdatedAt = ts
		return nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET import_id = ?, first_name = ?, preposition = ?, last_name = ?, gender = ?, title = ?,
			status = ?, picture = ?, description = ?, salutation = ?, assigned_to_id = ?, updated_at = ?
		 WHERE id = ? AND tenant_id = ?`,
		append(args, ts, c.ID, c.TenantID)...,
	)
	if err != nil {
		return fmt.Errorf("update contact: %w", database.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	c.UpdatedAt = ts
	return nil
}

// Count returns the number of contacts in a tenant.
func (s *SQLiteContactStore) Count(ctx context.Context, tenantID int64) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts WHERE tenant_id = ?`, tenantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}
