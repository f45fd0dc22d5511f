package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Import run states.
const (
	ImportStarted    = "STARTED"
	ImportProcessing = "PROCESSING"
	ImportDone       = "DONE"
	ImportFailed     = "FAILED"
	ImportCanceled   = "CANCELED"
)

// Import is the ledger entry of one import run.
type Import struct {
	ID        int64           `json:"id"`
	RunID     string          `json:"runId"`
	TenantID  int64           `json:"tenantId"`
	Model     string          `json:"model"`
	FileName  string          `json:"fileName"`
	State     string          `json:"state"`
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

// ImportError is a row that was skipped or failed during an import run.
type ImportError struct {
	ID           int64  `json:"id"`
	ImportID     int64  `json:"-"`
	ErrorType    string `json:"errorType"`
	ErrorMessage string `json:"message"`
	InvalidValue string `json:"invalidValue,omitempty"`
	LineNumber   int    `json:"lineNumber,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

// ImportStore defines the interface for the import run ledger.
type ImportStore interface {
	Create(ctx context.Context, runID string, tenantID int64, model, fileName string) (*Import, error)
	Get(ctx context.Context, id int64) (*Import, error)
	List(ctx context.Context, limit int, after int64) ([]*Import, bool, int64, error)
	UpdateState(ctx context.Context, id int64, state string, metadata json.RawMessage) error
	AddError(ctx context.Context, importID int64, errType, errMsg, invalidValue string, lineNumber int) error
	GetErrors(ctx context.Context, importID int64) ([]*ImportError, error)
}

// SQLiteImportStore implements ImportStore backed by SQLite.
type SQLiteImportStore struct {
	db *sql.DB
}

// NewSQLiteImportStore creates a new SQLiteImportStore.
func NewSQLiteImportStore(db *sql.DB) *SQLiteImportStore {
	return &SQLiteImportStore{db: db}
}

const importColumns = `id, run_id, tenant_id, model, file_name, state, metadata, created_at, updated_at`

func scanImport(row interface{ Scan(...any) error }) (*Import, error) {
	var imp Import
	var metaJSON sql.NullString
	if err := row.Scan(&imp.ID, &imp.RunID, &imp.TenantID, &imp.Model, &imp.FileName, &imp.State, &metaJSON,
		&imp.CreatedAt, &imp.UpdatedAt); err != nil {
		return nil, err
	}
	if metaJSON.Valid {
		imp.Metadata = json.RawMessage(metaJSON.String)
	} else {
		imp.Metadata = json.RawMessage(`{}`)
	}
	return &imp, nil
}

// Create inserts a new import record in the STARTED state.
func (s *SQLiteImportStore) Create(ctx context.Context, runID string, tenantID int64, model, fileName string) (*Import, error) {
	ts := now()
	metadata := json.RawMessage(`{}`)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO imports (run_id, tenant_id, model, file_name, state, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, tenantID, model, fileName, ImportStarted, string(metadata), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert import: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return &Import{
		ID:        id,
		RunID:     runID,
		TenantID:  tenantID,
		Model:     model,
		FileName:  fileName,
		State:     ImportStarted,
		Metadata:  metadata,
		CreatedAt: ts,
		UpdatedAt: ts,
	}, nil
}

// Get retrieves an import by ID.
func (s *SQLiteImportStore) Get(ctx context.Context, id int64) (*Import, error) {
	imp, err := scanImport(s.db.QueryRowContext(ctx, `SELECT `+importColumns+` FROM imports WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get import: %w", err)
	}
	return imp, nil
}

// List returns a paginated list of imports, oldest first.
//
//nolint:gocritic // named results provide clarity for multiple return values
func (s *SQLiteImportStore) List(ctx context.Context, limit int, after int64) ([]*Import, bool, int64, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+importColumns+` FROM imports WHERE id > ? ORDER BY id ASC LIMIT ?`, after, limit+1)
	if err != nil {
		return nil, false, 0, fmt.Errorf("list imports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var imports []*Import
	for rows.Next() {
		imp, err := scanImport(rows)
		if err != nil {
			return nil, false, 0, fmt.Errorf("scan import: %w", err)
		}
		imports = append(imports, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, false, 0, fmt.Errorf("rows iteration: %w", err)
	}

	hasMore := false
	var nextAfter int64
	if len(imports) > limit {
		hasMore = true
		nextAfter = imports[limit-1].ID
		imports = imports[:limit]
	}

	return imports, hasMore, nextAfter, nil
}

// UpdateState changes the state of an import and replaces its metadata.
func (s *SQLiteImportStore) UpdateState(ctx context.Context, id int64, state string, metadata json.RawMessage) error {
	ts := now()
	metaStr := "{}"
	if metadata != nil {
		metaStr = string(metadata)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE imports SET state = ?, metadata = ?, updated_at = ? WHERE id = ?`,
		state, metaStr, ts, id,
	)
	if err != nil {
		return fmt.Errorf("update import state: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddError records a skipped or failed row.
func (s *SQLiteImportStore) AddError(ctx context.Context, importID int64, errType, errMsg, invalidValue string, lineNumber int) error {
	ts := now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_errors (import_id, error_type, error_message, invalid_value, line_number, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		importID, errType, errMsg, invalidValue, lineNumber, ts,
	)
	if err != nil {
		return fmt.Errorf("add import error: %w", err)
	}
	return nil
}

// GetErrors returns all errors for an import in the order they were recorded.
func (s *SQLiteImportStore) GetErrors(ctx context.Context, importID int64) ([]*ImportError, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, error_type, error_message, invalid_value, line_number, created_at
		 FROM import_errors WHERE import_id = ? ORDER BY id ASC`,
		importID,
	)
	if err != nil {
		return nil, fmt.Errorf("get import errors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var errs []*ImportError
	for rows.Next() {
		var ie ImportError
		var msg, invalidValue sql.NullString
		var line sql.NullInt64
		if err := rows.Scan(&ie.ID, &ie.ErrorType, &msg, &invalidValue, &line, &ie.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan import error: %w", err)
		}
		ie.ImportID = importID
		ie.ErrorMessage = msg.String
		ie.InvalidValue = invalidValue.String
		ie.LineNumber = int(line.Int64)
		errs = append(errs, &ie)
	}
	return errs, rows.Err()
}
