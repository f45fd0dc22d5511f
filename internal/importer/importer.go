// Package importer loads Sugar CRM CSV exports into the CRM store. Rows are
// processed one at a time: mapped onto an account or contact, matched
// against existing records, and completed with their related records.
package importer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/google/uuid"

	"github.com/johnwards/crmimport/internal/config"
	"github.com/johnwards/crmimport/internal/metrics"
	"github.com/johnwards/crmimport/internal/store"
)

// Model is the kind of entity a CSV file holds.
type Model string

const (
	ModelAccounts Model = "accounts"
	ModelContacts Model = "contacts"
)

var (
	// ErrUnknownModel is returned for a model name other than account(s) or contact(s).
	ErrUnknownModel = errors.New("unknown model")

	// ErrUnknownTenant is returned when the target tenant does not exist.
	ErrUnknownTenant = errors.New("unknown tenant")
)

// ParseModel accepts the singular and plural model names.
func ParseModel(s string) (Model, error) {
	switch s {
	case "account", "accounts":
		return ModelAccounts, nil
	case "contact", "contacts":
		return ModelContacts, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownModel, s)
}

// Request describes one import run.
type Request struct {
	Model    Model
	TenantID int64
	Source   io.Reader
	FileName string
	Encoding Encoding
	// Sugar enables the filtering rules for Sugar CRM exports.
	Sugar bool
	Users config.UserMapping
}

// Result summarizes an import run. It is also stored as the metadata of
// the run's ledger entry.
type Result struct {
	RunID    string `json:"runId"`
	ImportID int64  `json:"importId"`
	Rows     int    `json:"rows"`
	Created  int    `json:"created"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
	Filtered int    `json:"filtered"`
	Failed   int    `json:"failed"`
}

type outcome string

const (
	outcomeCreated  outcome = "created"
	outcomeUpdated  outcome = "updated"
	outcomeSkipped  outcome = "skipped"
	outcomeFiltered outcome = "filtered"
	outcomeFailed   outcome = "failed"
)

func (r *Result) count(o outcome) {
	switch o {
	case outcomeCreated:
		r.Created++
	case outcomeUpdated:
		r.Updated++
	case outcomeSkipped:
		r.Skipped++
	case outcomeFiltered:
		r.Filtered++
	case outcomeFailed:
		r.Failed++
	}
}

// Importer runs CSV imports against a store.
type Importer struct {
	store   *store.Store
	logger  *slog.Logger
	metrics *metrics.ImportMetrics
	gc      bool
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(imp *Importer) { imp.logger = l }
}

// WithMetrics sets the metrics the importer reports to.
func WithMetrics(m *metrics.ImportMetrics) Option {
	return func(imp *Importer) { imp.metrics = m }
}

// WithGC controls the forced garbage collection after every row. It is on
// by default to keep memory flat on very large files.
func WithGC(enabled bool) Option {
	return func(imp *Importer) { imp.gc = enabled }
}

// New creates an Importer writing to s.
func New(s *store.Store, opts ...Option) *Importer {
	imp := &Importer{store: s, logger: slog.Default(), gc: true}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// runState is the state shared by all rows of one run.
type runState struct {
	ledgerID int64
	tenantID int64
	model    Model
	sugar    bool
	users    config.UserMapping
	// assignee names already warned about
	warned map[string]struct{}
	log    *slog.Logger
	result *Result
}

// Run imports every row of req.Source. Row level problems are logged,
// recorded on the run's ledger entry and counted; they never stop the run.
// The returned error is non-nil only when the run itself could not
// complete, in which case the partial Result is returned alongside it.
func (imp *Importer) Run(ctx context.Context, req Request) (*Result, error) {
	switch req.Model {
	case ModelAccounts, ModelContacts:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, req.Model)
	}

	if _, err := imp.store.Tenants.Get(ctx, req.TenantID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrUnknownTenant, req.TenantID)
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}

	reader, err := NewReader(req.Source, req.Encoding)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	ledger, err := imp.store.Imports.Create(ctx, runID, req.TenantID, string(req.Model), req.FileName)
	if err != nil {
		return nil, fmt.Errorf("create import: %w", err)
	}

	result := &Result{RunID: runID, ImportID: ledger.ID}
	run := &runState{
		ledgerID: ledger.ID,
		tenantID: req.TenantID,
		model:    req.Model,
		sugar:    req.Sugar,
		users:    req.Users,
		warned:   make(map[string]struct{}),
		log:      imp.logger.With("run_id", runID, "model", string(req.Model), "tenant_id", req.TenantID),
		result:   result,
	}

	if err := imp.store.Imports.UpdateState(ctx, ledger.ID, store.ImportProcessing, nil); err != nil {
		return nil, fmt.Errorf("update import state: %w", err)
	}

	run.log.Info("importing "+string(req.Model)+" started", "file", req.FileName)
	runErr := imp.process(ctx, run, reader)

	state := store.ImportDone
	switch {
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		state = store.ImportCanceled
	case runErr != nil:
		state = store.ImportFailed
	}

	meta, err := json.Marshal(result)
	if err != nil {
		return result, fmt.Errorf("marshal import result: %w", err)
	}
	// The final state is written even when ctx is already canceled.
	if err := imp.store.Imports.UpdateState(context.WithoutCancel(ctx), ledger.ID, state, meta); err != nil {
		return result, errors.Join(runErr, fmt.Errorf("update import state: %w", err))
	}

	if runErr != nil {
		run.log.Error("importing "+string(req.Model)+" stopped", "state", state, "rows", result.Rows, "error", runErr)
		return result, runErr
	}

	run.log.Info("importing "+string(req.Model)+" finished",
		"rows", result.Rows,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"filtered", result.Filtered,
		"failed", result.Failed,
	)
	return result, nil
}

func (imp *Importer) process(ctx context.Context, run *runState, reader *Reader) error {
	for row, err := range reader.Rows() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return err
			}
			run.result.Rows++
			imp.record(ctx, run, row.Line, outcomeSkipped, &rowError{
				kind:  errInvalidRow,
				level: slog.LevelWarn,
				msg:   "malformed csv record",
				err:   err,
			})
			continue
		}

		run.result.Rows++
		var o outcome
		switch run.model {
		case ModelAccounts:
			o, err = imp.importAccount(ctx, run, row)
		case ModelContacts:
			o, err = imp.importContact(ctx, run, row)
		}
		imp.record(ctx, run, row.Line, o, err)

		if imp.gc {
			runtime.GC()
		}
	}
	return nil
}

// record counts the outcome of a row and, for a row that was skipped or
// failed, logs it and adds it to the ledger.
func (imp *Importer) record(ctx context.Context, run *runState, line int, o outcome, err error) {
	if err != nil {
		var re *rowError
		if !errors.As(err, &re) {
			re = &rowError{kind: errRowFailed, level: slog.LevelError, msg: "row failed", err: err}
			o = outcomeFailed
		}

		attrs := []any{"line", line}
		if re.value != "" {
			attrs = append(attrs, "value", re.value)
		}
		if re.err != nil {
			attrs = append(attrs, "error", re.err)
		}
		run.log.Log(ctx, re.level, re.msg, attrs...)

		if lerr := imp.store.Imports.AddError(ctx, run.ledgerID, re.kind, re.Error(), re.value, line); lerr != nil {
			run.log.Error("record import error", "line", line, "error", lerr)
		}
	}

	run.result.count(o)
	imp.metrics.Row(string(run.model), string(o))
}

// Ledger error types.
const (
	errInvalidRow     = "INVALID_ROW"
	errMissingName    = "MISSING_NAME"
	errAmbiguousMatch = "AMBIGUOUS_MATCH"
	errDataError      = "DATA_ERROR"
	errRowFailed      = "ROW_FAILED"
)

// rowError is a recovered problem that makes the importer skip the rest of
// a row.
type rowError struct {
	kind  string
	level slog.Level
	msg   string
	value string
	err   error
}

func (e *rowError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *rowError) Unwrap() error { return e.err }

func skipRow(kind string, level slog.Level, msg, value string) (outcome, error) {
	return outcomeSkipped, &rowError{kind: kind, level: level, msg: msg, value: value}
}
