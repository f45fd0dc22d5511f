package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/johnwards/crmimport/internal/database"
	"github.com/johnwards/crmimport/internal/domain"
)

// AddressPatch holds the fields overwritten when an existing address is
// matched on (street, city). Nil pointers leave the stored value alone.
type AddressPatch struct {
	Type         string
	StreetNumber *int
	Complement   string
	PostalCode   string
	Country      *string
}

// RelatedStore persists the records that hang off an account or contact.
// Lookups are always scoped to a single owner.
type RelatedStore interface {
	FindAddress(ctx context.Context, owner domain.Owner, street, city string) (*domain.Address, error)
	CreateAddress(ctx context.Context, owner domain.Owner, a *domain.Address) error
	UpdateAddresses(ctx context.Context, owner domain.Owner, street, city string, patch AddressPatch) (int64, error)
	Addresses(ctx context.Context, owner domain.Owner) ([]*domain.Address, error)

	EmailExists(ctx context.Context, owner domain.Owner, e domain.EmailAddress) (bool, error)
	CreateEmail(ctx context.Context, owner domain.Owner, e *domain.EmailAddress) error
	EmailAddresses(ctx context.Context, owner domain.Owner) ([]*domain.EmailAddress, error)

	PhoneExists(ctx context.Context, owner domain.Owner, p domain.PhoneNumber) (bool, error)
	CreatePhone(ctx context.Context, owner domain.Owner, p *domain.PhoneNumber) error
	PhoneNumbers(ctx context.Context, owner domain.Owner) ([]*domain.PhoneNumber, error)

	SocialExists(ctx context.Context, owner domain.Owner, name, username string) (bool, error)
	CreateSocial(ctx context.Context, owner domain.Owner, sm *domain.SocialMedia) error
	SocialMedia(ctx context.Context, owner domain.Owner) ([]*domain.SocialMedia, error)

	FindWebsite(ctx context.Context, w domain.Website) (*domain.Website, error)
	CreateWebsite(ctx context.Context, w *domain.Website) error
	Websites(ctx context.Context, tenantID, accountID int64) ([]*domain.Website, error)
}

// SQLiteRelatedStore implements RelatedStore backed by SQLite.
type SQLiteRelatedStore struct {
	db *sql.DB
}

// NewSQLiteRelatedStore creates a new SQLiteRelatedStore.
func NewSQLiteRelatedStore(db *sql.DB) *SQLiteRelatedStore {
	return &SQLiteRelatedStore{db: db}
}

func (s *SQLiteRelatedStore) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (`+query+`)`, args...).Scan(&n); err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLiteRelatedStore) insert(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, database.Classify(err)
	}
	return res.LastInsertId()
}

const addressColumns = `id, tenant_id, type, street, street_number, complement, postal_code, city, country`

func scanAddress(row interface{ Scan(...any) error }) (*domain.Address, error) {
	var a domain.Address
	var number sql.NullInt64
	if err := row.Scan(&a.ID, &a.TenantID, &a.Type, &a.Street, &number, &a.Complement, &a.PostalCode, &a.City, &a.Country); err != nil {
		return nil, err
	}
	a.StreetNumber = intPtr(number)
	return &a, nil
}

// FindAddress returns the first address of owner with this street and city.
func (s *SQLiteRelatedStore) FindAddress(ctx context.Context, owner domain.Owner, street, city string) (*domain.Address, error) {
	a, err := scanAddress(s.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses
		 WHERE owner_type = ? AND owner_id = ? AND street = ? AND city = ? ORDER BY id ASC LIMIT 1`,
		owner.Kind, owner.ID, street, city))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find address: %w", err)
	}
	return a, nil
}

// CreateAddress attaches a new address to owner.
func (s *SQLiteRelatedStore) CreateAddress(ctx context.Context, owner domain.Owner, a *domain.Address) error {
	a.TenantID = owner.TenantID
	id, err := s.insert(ctx,
		`INSERT INTO addresses (tenant_id, owner_type, owner_id, type, street, street_number, complement, postal_code, city, country)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		owner.TenantID, owner.Kind, owner.ID, a.Type, a.Street, nullInt(a.StreetNumber), a.Complement, a.PostalCode, a.City, a.Country,
	)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	a.ID = id
	return nil
}

// UpdateAddresses overwrites every address of owner matching (street, city)
// with patch and returns the number of rows changed.
func (s *SQLiteRelatedStore) UpdateAddresses(ctx context.Context, owner domain.Owner, street, city string, patch AddressPatch) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE addresses SET type = ?, street_number = COALESCE(?, street_number), complement = ?,
			postal_code = ?, country = COALESCE(?, country)
		 WHERE owner_type = ? AND owner_id = ? AND street = ? AND city = ?`,
		patch.Type, nullInt(patch.StreetNumber), patch.Complement, patch.PostalCode, nullString(patch.Country),
		owner.Kind, owner.ID, street, city,
	)
	if err != nil {
		return 0, fmt.Errorf("update address: %w", database.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Addresses lists the addresses of owner in insertion order.
func (s *SQLiteRelatedStore) Addresses(ctx context.Context, owner domain.Owner) ([]*domain.Address, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE owner_type = ? AND owner_id = ? ORDER BY id ASC`,
		owner.Kind, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// EmailExists reports whether owner already has an email address equal to e
// in every field.
func (s *SQLiteRelatedStore) EmailExists(ctx context.Context, owner domain.Owner, e domain.EmailAddress) (bool, error) {
	ok, err := s.exists(ctx,
		`SELECT 1 FROM email_addresses
		 WHERE owner_type = ? AND owner_id = ? AND tenant_id = ? AND email_address = ? AND is_primary = ?`,
		owner.Kind, owner.ID, owner.TenantID, e.EmailAddress, e.IsPrimary)
	if err != nil {
		return false, fmt.Errorf("check email address: %w", err)
	}
	return ok, nil
}

// CreateEmail attaches a new email address to owner.
func (s *SQLiteRelatedStore) CreateEmail(ctx context.Context, owner domain.Owner, e *domain.EmailAddress) error {
	e.TenantID = owner.TenantID
	id, err := s.insert(ctx,
		`INSERT INTO email_addresses (tenant_id, owner_type, owner_id, email_address, is_primary) VALUES (?, ?, ?, ?, ?)`,
		owner.TenantID, owner.Kind, owner.ID, e.EmailAddress, e.IsPrimary)
	if err != nil {
		return fmt.Errorf("insert email address: %w", err)
	}
	e.ID = id
	return nil
}

// EmailAddresses lists the email addresses of owner in insertion order.
func (s *SQLiteRelatedStore) EmailAddresses(ctx context.Context, owner domain.Owner) ([]*domain.EmailAddress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, email_address, is_primary FROM email_addresses
		 WHERE owner_type = ? AND owner_id = ? ORDER BY id ASC`,
		owner.Kind, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list email addresses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.EmailAddress
	for rows.Next() {
		var e domain.EmailAddress
		if err := rows.Scan(&e.ID, &e.TenantID, &e.EmailAddress, &e.IsPrimary); err != nil {
			return nil, fmt.Errorf("scan email address: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// PhoneExists reports whether owner already has a phone number equal to p
// in every field. A nil OtherType only matches a stored NULL.
func (s *SQLiteRelatedStore) PhoneExists(ctx context.Context, owner domain.Owner, p domain.PhoneNumber) (bool, error) {
	ok, err := s.exists(ctx,
		`SELECT 1 FROM phone_numbers
		 WHERE owner_type = ? AND owner_id = ? AND tenant_id = ? AND type = ? AND other_type IS ? AND raw_input = ?`,
		owner.Kind, owner.ID, owner.TenantID, p.Type, nullString(p.OtherType), p.RawInput)
	if err != nil {
		return false, fmt.Errorf("check phone number: %w", err)
	}
	return ok, nil
}

// CreatePhone attaches a new phone number to owner.
func (s *SQLiteRelatedStore) CreatePhone(ctx context.Context, owner domain.Owner, p *domain.PhoneNumber) error {
	p.TenantID = owner.TenantID
	id, err := s.insert(ctx,
		`INSERT INTO phone_numbers (tenant_id, owner_type, owner_id, type, other_type, raw_input) VALUES (?, ?, ?, ?, ?, ?)`,
		owner.TenantID, owner.Kind, owner.ID, p.Type, nullString(p.OtherType), p.RawInput)
	if err != nil {
		return fmt.Errorf("insert phone number: %w", err)
	}
	p.ID = id
	return nil
}

// PhoneNumbers lists the phone numbers of owner in insertion order.
func (s *SQLiteRelatedStore) PhoneNumbers(ctx context.Context, owner domain.Owner) ([]*domain.PhoneNumber, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, type, other_type, raw_input FROM phone_numbers
		 WHERE owner_type = ? AND owner_id = ? ORDER BY id ASC`,
		owner.Kind, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list phone numbers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.PhoneNumber
	for rows.Next() {
		var p domain.PhoneNumber
		var otherType sql.NullString
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Type, &otherType, &p.RawInput); err != nil {
			return nil, fmt.Errorf("scan phone number: %w", err)
		}
		p.OtherType = stringPtr(otherType)
		out = append(out, &p)
	}
	return out, rows.Err()
}

// SocialExists reports whether owner already has this profile.
func (s *SQLiteRelatedStore) SocialExists(ctx context.Context, owner domain.Owner, name, username string) (bool, error) {
	ok, err := s.exists(ctx,
		`SELECT 1 FROM social_media WHERE owner_type = ? AND owner_id = ? AND name = ? AND username = ?`,
		owner.Kind, owner.ID, name, username)
	if err != nil {
		return false, fmt.Errorf("check social media: %w", err)
	}
	return ok, nil
}

// CreateSocial attaches a new social media profile to owner.
func (s *SQLiteRelatedStore) CreateSocial(ctx context.Context, owner domain.Owner, sm *domain.SocialMedia) error {
	sm.TenantID = owner.TenantID
	id, err := s.insert(ctx,
		`INSERT INTO social_media (tenant_id, owner_type, owner_id, name, username) VALUES (?, ?, ?, ?, ?)`,
		owner.TenantID, owner.Kind, owner.ID, sm.Name, sm.Username)
	if err != nil {
		return fmt.Errorf("insert social media: %w", err)
	}
	sm.ID = id
	return nil
}

// SocialMedia lists the social media profiles of owner in insertion order.
func (s *SQLiteRelatedStore) SocialMedia(ctx context.Context, owner domain.Owner) ([]*domain.SocialMedia, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, name, username FROM social_media
		 WHERE owner_type = ? AND owner_id = ? ORDER BY id ASC`,
		owner.Kind, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list social media: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.SocialMedia
	for rows.Next() {
		var sm domain.SocialMedia
		if err := rows.Scan(&sm.ID, &sm.TenantID, &sm.Name, &sm.Username); err != nil {
			return nil, fmt.Errorf("scan social media: %w", err)
		}
		out = append(out, &sm)
	}
	return out, rows.Err()
}

// FindWebsite returns the website matching w on tenant, account, URL and
// primary flag.
func (s *SQLiteRelatedStore) FindWebsite(ctx context.Context, w domain.Website) (*domain.Website, error) {
	var found domain.Website
	err := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, account_id, website, is_primary FROM websites
		 WHERE tenant_id = ? AND account_id = ? AND website = ? AND is_primary = ? ORDER BY id ASC LIMIT 1`,
		w.TenantID, w.AccountID, w.Website, w.IsPrimary,
	).Scan(&found.ID, &found.TenantID, &found.AccountID, &found.Website, &found.IsPrimary)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find website: %w", err)
	}
	return &found, nil
}

// CreateWebsite inserts a website for w.AccountID.
func (s *SQLiteRelatedStore) CreateWebsite(ctx context.Context, w *domain.Website) error {
	id, err := s.insert(ctx,
		`INSERT INTO websites (tenant_id, account_id, website, is_primary) VALUES (?, ?, ?, ?)`,
		w.TenantID, w.AccountID, w.Website, w.IsPrimary)
	if err != nil {
		return fmt.Errorf("insert website: %w", err)
	}
	w.ID = id
	return nil
}

// Websites lists the websites of an account in insertion order.
func (s *SQLiteRelatedStore) Websites(ctx context.Context, tenantID, accountID int64) ([]*domain.Website, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, account_id, website, is_primary FROM websites
		 WHERE tenant_id = ? AND account_id = ? ORDER BY id ASC`,
		tenantID, accountID)
	if err != nil {
		return nil, fmt.Errorf("list websites: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Website
	for rows.Next() {
		var w domain.Website
		if err := rows.Scan(&w.ID, &w.TenantID, &w.AccountID, &w.Website, &w.IsPrimary); err != nil {
			return nil, fmt.Errorf("scan website: %w", err)
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}
