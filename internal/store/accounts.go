package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/johnwards/crmimport/internal/database"
	"github.com/johnwards/crmimport/internal/domain"
)

// AccountStore defines the interface for account persistence.
type AccountStore interface {
	Get(ctx context.Context, tenantID, id int64) (*domain.Account, error)
	GetByImportID(ctx context.Context, tenantID int64, importID string) (*domain.Account, error)
	FindByName(ctx context.Context, tenantID int64, name string) (*domain.Account, error)
	Save(ctx context.Context, a *domain.Account) error
	Count(ctx context.Context, tenantID int64) (int, error)
}

// SQLiteAccountStore implements AccountStore backed by SQLite.
type SQLiteAccountStore struct {
	db *sql.DB
}

// NewSQLiteAccountStore creates a new SQLiteAccountStore.
func NewSQLiteAccountStore(db *sql.DB) *SQLiteAccountStore {
	return &SQLiteAccountStore{db: db}
}

const accountColumns = `id, tenant_id, import_id, customer_id, name, flatname, status, company_size, logo,
	description, legalentity, taxnumber, bankaccountnumber, cocnumber, iban, bic, assigned_to_id,
	created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*domain.Account, error) {
	var a domain.Account
	var importID, customerID, flatName, status, companySize, logo, description sql.NullString
	var legalEntity, taxNumber, bankAccount, coc, iban, bic sql.NullString
	var assignedTo sql.NullInt64

	err := row.Scan(&a.ID, &a.TenantID, &importID, &customerID, &a.Name, &flatName, &status, &companySize, &logo,
		&description, &legalEntity, &taxNumber, &bankAccount, &coc, &iban, &bic, &assignedTo,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.ImportID = stringPtr(importID)
	a.CustomerID = stringPtr(customerID)
	a.FlatName = stringPtr(flatName)
	a.Status = stringPtr(status)
	a.CompanySize = stringPtr(companySize)
	a.Logo = stringPtr(logo)
	a.Description = stringPtr(description)
	a.LegalEntity = stringPtr(legalEntity)
	a.TaxNumber = stringPtr(taxNumber)
	a.BankAccountNumber = stringPtr(bankAccount)
	a.CocNumber = stringPtr(coc)
	a.IBAN = stringPtr(iban)
	a.BIC = stringPtr(bic)
	a.AssignedToID = int64Ptr(assignedTo)
	return &a, nil
}

// Get retrieves an account by ID within a tenant.
func (s *SQLiteAccountStore) Get(ctx context.Context, tenantID, id int64) (*domain.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE tenant_id = ? AND id = ?`, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// GetByImportID retrieves the account carrying the external import identifier.
func (s *SQLiteAccountStore) GetByImportID(ctx context.Context, tenantID int64, importID string) (*domain.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE tenant_id = ? AND import_id = ?`, tenantID, importID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get account by import id: %w", err)
	}
	return a, nil
}

// FindByName returns the oldest account with exactly this name.
func (s *SQLiteAccountStore) FindByName(ctx context.Context, tenantID int64, name string) (*domain.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE tenant_id = ? AND name = ? ORDER BY id ASC LIMIT 1`,
		tenantID, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account by name: %w", err)
	}
	return a, nil
}

// Save inserts the account when it has no ID yet and updates it otherwise.
// Constraint failures are reported as ErrDataConstraint.
func (s *SQLiteAccountStore) Save(ctx context.Context, a *domain.Account) error {
	ts := now()
	args := []any{
		nullString(a.ImportID), nullString(a.CustomerID), a.Name, nullString(a.FlatName), nullString(a.Status),
		nullString(a.CompanySize), nullString(a.Logo), nullString(a.Description), nullString(a.LegalEntity),
		nullString(a.TaxNumber), nullString(a.BankAccountNumber), nullString(a.CocNumber), nullString(a.IBAN),
		nullString(a.BIC), nullInt64(a.AssignedToID),
	}

	if a.ID == 0 {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO accounts (tenant_id, import_id, customer_id, name, flatname, status, company_size, logo,
				description, legalentity, taxnumber, bankaccountnumber, cocnumber, iban, bic, assigned_to_id,
				created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			append(append([]any{a.TenantID}, args...), ts, ts)...,
		)
		if err != nil {
			return fmt.Errorf("insert account: %w", database.Classify(err))
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		a.ID = id
		a.CreatedAt = ts
		a.UpdatedAt = ts
		return nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET import_id = ?, customer_id = ?, name = ?, flatname = ?, status = ?, company_size = ?,
			logo = ?, description = ?, legalentity = ?, taxnumber = ?, bankaccountnumber = ?, cocnumber = ?,
			iban = ?, bic = ?, assigned_to_id = ?, updated_at = ?
		 WHERE id = ? AND tenant_id = ?`,
		append(args, ts, a.ID, a.TenantID)...,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", database.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	a.UpdatedAt = ts
	return nil
}

// Count returns the number of accounts in a tenant.
func (s *SQLiteAccountStore) Count(ctx context.Context, tenantID int64) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE tenant_id = ?`, tenantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}
