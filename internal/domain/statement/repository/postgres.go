// Package repository persists statement runs and their consolidated rows.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/consolidator"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/normalizer"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Run is the persisted record of one pipeline execution.
type Run struct {
	ID            uuid.UUID       `json:"id"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    time.Time       `json:"finished_at"`
	Inputs        []string        `json:"inputs"`
	Documents     int             `json:"documents"`
	Diagnostics   int             `json:"diagnostics"`
	Factor        decimal.Decimal `json:"reconciliation_factor"`
	FactorApplied bool            `json:"factor_applied"`
	Summary       []byte          `json:"-"`
}

// DB is the subset of a pgx pool the repository needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RunRepository stores runs and their datasets.
type RunRepository interface {
	SaveRun(ctx context.Context, run Run, ds consolidator.Datasets) error
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

// PostgresRunRepository implements RunRepository using PostgreSQL.
type PostgresRunRepository struct {
	db DB
}

// NewPostgresRunRepository creates a PostgreSQL-backed run repository.
func NewPostgresRunRepository(db DB) *PostgresRunRepository {
	return &PostgresRunRepository{db: db}
}

var (
	categoryTable = pgx.Identifier{"statement_category_rows"}
	rubricTable   = pgx.Identifier{"statement_rubric_rows"}
	workTable     = pgx.Identifier{"statement_work_rows"}

	sectionColumns = []string{
		"run_id", "position", "source", "name",
		"distribution", "credit_release", "pending_release",
		"parameter_release", "adjustments", "total", "reference_date",
	}
	rubricColumns = append(append([]string(nil), sectionColumns...), "sub_period", "model")
	workColumns   = []string{"run_id", "position", "source", "code", "name", "rateio", "reference_date"}
)

// SaveRun inserts the run and bulk-copies its rows in one transaction.
func (r *PostgresRunRepository) SaveRun(ctx context.Context, run Run, ds consolidator.Datasets) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	query := `
		INSERT INTO statement_runs (
			id, started_at, finished_at, inputs, documents, diagnostics,
			reconciliation_factor, factor_applied, summary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.Exec(ctx, query,
		run.ID, run.StartedAt, run.FinishedAt, run.Inputs, run.Documents, run.Diagnostics,
		numeric(run.Factor), run.FactorApplied, summaryJSON(run.Summary),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	categoryRows := make([][]any, len(ds.Categories))
	for i, c := range ds.Categories {
		categoryRows[i] = append([]any{run.ID, i, c.Source, c.Name}, amounts(c.Amounts.Slice())...)
		categoryRows[i] = append(categoryRows[i], date(c.Date))
	}
	if err = copyRows(ctx, tx, categoryTable, sectionColumns, categoryRows); err != nil {
		return err
	}

	rubricRows := make([][]any, len(ds.Rubrics))
	for i, rb := range ds.Rubrics {
		rubricRows[i] = append([]any{run.ID, i, rb.Source, rb.Name}, amounts(rb.Amounts.Slice())...)
		rubricRows[i] = append(rubricRows[i], date(rb.Date), rb.SubPeriod, rb.Model)
	}
	if err = copyRows(ctx, tx, rubricTable, rubricColumns, rubricRows); err != nil {
		return err
	}

	workRows := make([][]any, len(ds.Works))
	for i, w := range ds.Works {
		workRows[i] = []any{run.ID, i, w.Source, w.Code, w.Name, numeric(w.Rateio), date(w.Date)}
	}
	if err = copyRows(ctx, tx, workTable, workColumns, workRows); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

func copyRows(ctx context.Context, tx pgx.Tx, table pgx.Identifier, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	n, err := tx.CopyFrom(ctx, table, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy into %s: %w", table.Sanitize(), err)
	}
	if int(n) != len(rows) {
		return fmt.Errorf("copy into %s wrote %d of %d rows", table.Sanitize(), n, len(rows))
	}
	return nil
}

// GetRun retrieves a run by ID.
func (r *PostgresRunRepository) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	query := `
		SELECT id, started_at, finished_at, inputs, documents, diagnostics,
			reconciliation_factor::text, factor_applied, summary
		FROM statement_runs WHERE id = $1
	`

	run, err := scanRun(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first.
func (r *PostgresRunRepository) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, started_at, finished_at, inputs, documents, diagnostics,
			reconciliation_factor::text, factor_applied, summary
		FROM statement_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.Row) (*Run, error) {
	var (
		run    Run
		factor string
	)
	err := row.Scan(
		&run.ID, &run.StartedAt, &run.FinishedAt, &run.Inputs, &run.Documents,
		&run.Diagnostics, &factor, &run.FactorApplied, &run.Summary,
	)
	if err != nil {
		return nil, err
	}
	run.Factor, err = decimal.NewFromString(factor)
	if err != nil {
		return nil, fmt.Errorf("invalid reconciliation factor %q: %w", factor, err)
	}
	return &run, nil
}

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func amounts(values []decimal.Decimal) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = numeric(v)
	}
	return out
}

func date(d time.Time) pgtype.Date {
	if normalizer.IsNoDate(d) {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d, Valid: true}
}

func summaryJSON(b []byte) []byte {
	if len(b) == 0 {
		return []byte("{}")
	}
	return b
}
