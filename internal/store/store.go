package store

import (
	"database/sql"
	"errors"

	"github.com/johnwards/crmimport/internal/database"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrMultipleResults is returned by lookups that expect at most one match.
	ErrMultipleResults = errors.New("multiple records returned")

	// ErrDataConstraint is returned when a value does not fit its column.
	ErrDataConstraint = database.ErrConstraint
)

// Store holds all sub-stores used by the application.
type Store struct {
	DB       *sql.DB
	Tenants  TenantStore
	Users    UserStore
	Accounts AccountStore
	Contacts ContactStore
	Related  RelatedStore
	Imports  ImportStore
}

// New creates a Store with all sub-stores initialized.
func New(db *sql.DB) *Store {
	return &Store{
		DB:       db,
		Tenants:  NewSQLiteTenantStore(db),
		Users:    NewSQLiteUserStore(db),
		Accounts: NewSQLiteAccountStore(db),
		Contacts: NewSQLiteContactStore(db),
		Related:  NewSQLiteRelatedStore(db),
		Imports:  NewSQLiteImportStore(db),
	}
}
