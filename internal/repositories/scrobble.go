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

const scrobbleColumns = `id, sequence, video_id, cpn, status_code, tracking_url, error, created_at, deleted_at`

// ScrobbleRepository implements models.Repository[*models.Scrobble].
type ScrobbleRepository struct {
	db *sql.DB
}

// NewScrobbleRepository creates a new ScrobbleRepository with the given database connection
func NewScrobbleRepository(db *sql.DB) *ScrobbleRepository {
	return &ScrobbleRepository{db: db}
}

// Create inserts a scrobble with a generated ID and sequence.
func (r *ScrobbleRepository) Create(ctx context.Context, s *models.Scrobble) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(ctx, r.db, "scrobbles")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO scrobbles (id, sequence, video_id, cpn, status_code, tracking_url, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		id,
		sequence,
		s.VideoID(),
		s.CPN(),
		s.StatusCode(),
		s.TrackingURL(),
		s.ErrorMessage(),
		s.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert scrobble: %w", err)
	}

	s.SetID(id)
	s.SetSequence(sequence)
	return nil
}

// Get retrieves a scrobble by ID, excluding soft-deleted rows.
func (r *ScrobbleRepository) Get(ctx context.Context, id string) (*models.Scrobble, error) {
	query := `SELECT ` + scrobbleColumns + ` FROM scrobbles WHERE id = ? AND deleted_at IS NULL`

	s, err := scanScrobble(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: scrobble %s", shared.ErrNotFound, id)
	}
	return s, err
}

// Delete soft-deletes a scrobble by ID.
func (r *ScrobbleRepository) Delete(ctx context.Context, id string) error {
	return softDelete(ctx, r.db, "scrobbles", id)
}

// List returns scrobbles newest first.
//
// Supported criteria: "video_id" (string), "failed" (bool) and "limit" (int).
func (r *ScrobbleRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Scrobble, error) {
	query := `SELECT ` + scrobbleColumns + ` FROM scrobbles WHERE deleted_at IS NULL`
	args := []any{}

	if videoID, ok := criteria["video_id"].(string); ok && videoID != "" {
		query += " AND video_id = ?"
		args = append(args, videoID)
	}

	if failed, ok := criteria["failed"].(bool); ok && failed {
		query += " AND (error != '' OR status_code < 200 OR status_code >= 300)"
	}

	query += " ORDER BY sequence DESC LIMIT ?"
	args = append(args, listLimit(criteria))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scrobbles: %w", err)
	}
	defer rows.Close()

	var scrobbles []*models.Scrobble
	for rows.Next() {
		s, err := scanScrobble(rows)
		if err != nil {
			return nil, err
		}
		scrobbles = append(scrobbles, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return scrobbles, nil
}

func scanScrobble(row scanner) (*models.Scrobble, error) {
	var (
		id          string
		sequence    int
		videoID     string
		cpn         string
		statusCode  int
		trackingURL string
		errMsg      string
		createdAt   time.Time
		deletedAt   sql.NullTime
	)

	err := row.Scan(&id, &sequence, &videoID, &cpn, &statusCode, &trackingURL, &errMsg, &createdAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan scrobble: %w", err)
	}

	s := models.NewScrobble(videoID, cpn, statusCode, trackingURL, nil)
	s.SetID(id)
	s.SetSequence(sequence)
	s.SetError(errMsg)
	s.SetCreatedAt(createdAt)
	if deletedAt.Valid {
		s.SetDeletedAt(&deletedAt.Time)
	}

	return s, nil
}
