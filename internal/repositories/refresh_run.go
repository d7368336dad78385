package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytmusicd/internal/models"
	"github.com/desertthunder/ytmusicd/internal/shared"
)

const refreshRunColumns = `id, sequence, kind, started_at, duration_ms, outcome, detail, error, created_at, deleted_at`

// RefreshRunRepository implements models.Repository[*models.RefreshRun].
type RefreshRunRepository struct {
	db *sql.DB
}

// NewRefreshRunRepository creates a new RefreshRunRepository with the given database connection
func NewRefreshRunRepository(db *sql.DB) *RefreshRunRepository {
	return &RefreshRunRepository{db: db}
}

// Create inserts a run with a generated ID and sequence.
func (r *RefreshRunRepository) Create(ctx context.Context, run *models.RefreshRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(ctx, r.db, "refresh_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO refresh_runs (id, sequence, kind, started_at, duration_ms, outcome, detail, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		id,
		sequence,
		string(run.Kind()),
		run.StartedAt(),
		run.Duration().Milliseconds(),
		string(run.Outcome()),
		run.Detail(),
		run.ErrorMessage(),
		run.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert refresh run: %w", err)
	}

	run.SetID(id)
	run.SetSequence(sequence)
	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs.
func (r *RefreshRunRepository) Get(ctx context.Context, id string) (*models.RefreshRun, error) {
	query := `SELECT ` + refreshRunColumns + ` FROM refresh_runs WHERE id = ? AND deleted_at IS NULL`

	run, err := scanRefreshRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: refresh run %s", shared.ErrNotFound, id)
	}
	return run, err
}

// Delete soft-deletes a run by ID.
func (r *RefreshRunRepository) Delete(ctx context.Context, id string) error {
	return softDelete(ctx, r.db, "refresh_runs", id)
}

// List returns runs newest first.
//
// Supported criteria: "kind" (string or [models.RefreshKind]), "outcome" (string) and "limit" (int).
func (r *RefreshRunRepository) List(ctx context.Context, criteria map[string]any) ([]*models.RefreshRun, error) {
	query := `SELECT ` + refreshRunColumns + ` FROM refresh_runs WHERE deleted_at IS NULL`
	args := []any{}

	switch kind := criteria["kind"].(type) {
	case models.RefreshKind:
		if kind != "" {
			query += " AND kind = ?"
			args = append(args, string(kind))
		}
	case string:
		if kind != "" {
			query += " AND kind = ?"
			args = append(args, kind)
		}
	}

	if outcome, ok := criteria["outcome"].(string); ok && outcome != "" {
		query += " AND outcome = ?"
		args = append(args, outcome)
	}

	query += " ORDER BY sequence DESC LIMIT ?"
	args = append(args, listLimit(criteria))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query refresh runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.RefreshRun
	for rows.Next() {
		run, err := scanRefreshRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

func scanRefreshRun(row scanner) (*models.RefreshRun, error) {
	var (
		id         string
		sequence   int
		kind       string
		startedAt  time.Time
		durationMS int64
		outcome    string
		detail     string
		errMsg     string
		createdAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &kind, &startedAt, &durationMS, &outcome, &detail, &errMsg, &createdAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan refresh run: %w", err)
	}

	run := models.NewRefreshRun(
		models.RefreshKind(kind),
		startedAt,
		time.Duration(durationMS)*time.Millisecond,
		models.RefreshOutcome(outcome),
		detail,
		nil,
	)
	run.SetID(id)
	run.SetSequence(sequence)
	run.SetError(errMsg)
	run.SetCreatedAt(createdAt)
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}
