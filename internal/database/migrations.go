package database

// migrations is an ordered list of SQL migration groups. Each entry is a slice
// of SQL statements that are executed together in a single transaction. The
// version number is the 1-based index into this slice.
var migrations = [][]string{
	// Migration 1: tenants, users and the CRM entities
	{
		`CREATE TABLE tenants (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL CHECK (length(name) <= 255),
			created_at TEXT NOT NULL
		)`,

		`CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id INTEGER NOT NULL,
			email TEXT NOT NULL CHECK (length(email) <= 255),
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE (tenant_id, email),
			FOREIGN KEY (tenant_id) REFERENCES tenants(id)
		)`,

		`CREATE TABLE accounts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id INTEGER NOT NULL,
			import_id TEXT CHECK (import_id IS NULL OR length(import_id) <= 100),
			customer_id TEXT CHECK (customer_id IS NULL OR length(customer_id) <= 32),
			name TEXT NOT NULL CHECK (length(name) <= 255),
			flatname TEXT CHECK (flatname IS NULL OR length(flatname) <= 255),
			status TEXT,
			company_size TEXT CHECK (company_size IS NULL OR length(company_size) <= 15),
			logo TEXT,
			description TEXT,
			legalentity TEXT CHECK (legalentity IS NULL OR length(legalentity) <= 20),
			taxnumber TEXT CHECK (taxnumber IS NULL OR length(taxnumber) <= 20),
			bankaccountnumber TEXT CHECK (bankaccountnumber IS NULL OR length(bankaccountnumber) <= 20),
			cocnumber TEXT CHECK (cocnumber IS NULL OR length(cocnumber) <= 10),
			iban TEXT CHECK (iban IS NULL OR length(iban) <= 40),
			bic TEXT CHECK (bic IS NULL OR length(bic) <= 20),
			assigned_to_id INTEGER,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (tenant_id) REFERENCES tenants(id),
			FOREIGN KEY (assigned_to_id) REFERENCES users(id)
		)`,
		`CREATE UNIQUE INDEX idx_accounts_import_id ON accounts(tenant_id, import_id) WHERE import_id IS NOT NULL`,
		`CREATE INDEX idx_accounts_name ON accounts(tenant_id, name)`,

		`CREATE TABLE contacts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id INTEGER NOT NULL,
			import_id TEXT CHECK (import_id IS NULL OR length(import_id) <= 100),
			first_name TEXT CHECK (first_name IS NULL OR length(first_name) <= 255),
			preposition TEXT CHECK (preposition IS NULL OR length(preposition) <= 100),
			last_name TEXT CHECK (last_name IS NULL OR length(last_name) <= 255),
			gender INTEGER NOT NULL DEFAULT 0,
			title TEXT CHECK (title IS NULL OR length(title) <= 20),
			status TEXT,
			picture TEXT,
			description TEXT,
			salutation TEXT,
			assigned_to_id INTEGER,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (tenant_id) REFERENCES tenants(id),
			FOREIGN KEY (assigned_to_id) REFERENCES users(id)
		)`,
		`CREATE UNIQUE INDEX idx_contacts_import_id ON contacts(tenant_id, import_id) WHERE import_id IS NOT NULL`,
		`CREATE INDEX idx_contacts_name ON contacts(tenant_id, first_name, last_name)`,
	},

	// Migration 2: related records. Each row has exactly one owner.
	{
		`CREATE TABLE addresses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id INTEGER NOT NULL,
			owner_type TEXT NOT NULL CHECK (owner_type IN ('account', 'contact')),
			owner_id INTEGER NOT NULL,
			type TEXT NOT NULL CHECK (type IN ('visiting', 'shipping', 'home')),
			street TEXT NOT NULL DEFAULT '' CHECK (length(street) <= 255),
			street_number INTEGER CHECK (street_number IS NULL OR street_number BETWEEN -32768 AND 32767),
			complement TEXT NOT NULL DEFAULT '' CHECK (length(complement) <= 255),
			postal_code TEXT NOT NULL DEFAULT '' CHECK (length(postal_code) <= 10),
			city TEXT NOT NULL DEFAULT '' CHECK (length(city) <= 100),
			country TEXT NOT NULL DEFAULT '' CHECK (length(country) <= 2),
			FOREIGN KEY (tenant_id) REFERENCES tenants(id)
		)`,
		`CREATE INDEX idx_addresses_owner ON addresses(owner_type, owner_id, street, city)`,

		`CREATE TABLE email_addresses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id INTEGER NOT NULL,
			owner_type TEXT NOT NULL CHECK (owner_type IN ('account', 'contact')),
			owner_id INTEGER NOT NULL,
			email_address TEXT NOT NULL CHECK (length(email_address) <= 255),
			is_primary BOOLEAN NOT NULL DEFAULT FALSE,
			FOREIGN KEY (tenant_id) REFERENCES tenants(id)
		)`,
		`CREATE INDEX idx_email_addresses_owner ON email_addresses(owner_type, owner_id)`,

		`CREATE TABLE phone_numbers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id INTEGER NOT NULL,
			owner_type TEXT NOT NULL CHECK (owner_type IN ('account', 'contact')),
			owner_id INTEGER NOT NULL,
			type TEXT NOT NULL CHECK (type IN ('work', 'mobile', 'other')),
			other_type TEXT CHECK (other_type IS NULL OR other_type IN ('fax', 'home')),
			raw_input TEXT NOT NULL CHECK (length(raw_input) <= 40),
			FOREIGN KEY (tenant_id) REFERENCES tenants(id)
		)`,
		`CREATE INDEX idx_phone_numbers_owner ON phone_numbers(owner_type, owner_id)`,

		`CREATE TABLE social_media (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id INTEGER NOT NULL,
			owner_type TEXT NOT NULL CHECK (owner_type IN ('account', 'contact')),
			owner_id INTEGER NOT NULL,
			name TEXT NOT NULL CHECK (name IN ('twitter', 'linkedin')),
			username TEXT NOT NULL CHECK (length(username) <= 100),
			FOREIGN KEY (tenant_id) REFERENCES tenants(id)
		)`,
		`CREATE INDEX idx_social_media_owner ON social_media(owner_type, owner_id, name, username)`,

		`CREATE TABLE websites (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id INTEGER NOT NULL,
			account_id INTEGER NOT NULL,
			website TEXT NOT NULL CHECK (length(website) <= 255),
			is_primary BOOLEAN NOT NULL DEFAULT FALSE,
			FOREIGN KEY (tenant_id) REFERENCES tenants(id),
			FOREIGN KEY (account_id) REFERENCES accounts(id)
		)`,
		`CREATE INDEX idx_websites_account ON websites(account_id, website)`,
	},

	// Migration 3: import run ledger
	{
		`CREATE TABLE imports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			tenant_id INTEGER NOT NULL,
			model TEXT NOT NULL,
			file_name TEXT NOT NULL,
			state TEXT NOT NULL DEFAULT 'STARTED',
			metadata TEXT DEFAULT '{}',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE TABLE import_errors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			import_id INTEGER NOT NULL,
			error_type TEXT NOT NULL,
			error_message TEXT,
			invalid_value TEXT,
			line_number INTEGER,
			created_at TEXT NOT NULL,
			FOREIGN KEY (import_id) REFERENCES imports(id)
		)`,
		`CREATE INDEX idx_import_errors_import ON import_errors(import_id)`,
	},
}
