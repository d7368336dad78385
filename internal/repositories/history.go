package repositories

import (
	"context"
	"database/sql"

	"github.com/desertthunder/ytmusicd/internal/models"
)

var (
	_ models.Repository[*models.RefreshRun] = (*RefreshRunRepository)(nil)
	_ models.Repository[*models.Scrobble]   = (*ScrobbleRepository)(nil)
)

// HistoryAdapter writes task results to the refresh run and scrobble tables.
type HistoryAdapter struct {
	runs      *RefreshRunRepository
	scrobbles *ScrobbleRepository
}

// NewHistoryAdapter creates an adapter over db. Migrations must already be applied.
func NewHistoryAdapter(db *sql.DB) *HistoryAdapter {
	return &HistoryAdapter{
		runs:      NewRefreshRunRepository(db),
		scrobbles: NewScrobbleRepository(db),
	}
}

func (h *HistoryAdapter) RecordRefresh(ctx context.Context, run *models.RefreshRun) error {
	return h.runs.Create(ctx, run)
}

func (h *HistoryAdapter) RecordScrobble(ctx context.Context, s *models.Scrobble) error {
	return h.scrobbles.Create(ctx, s)
}

// Runs lists refresh runs newest first. An empty kind lists both kinds.
func (h *HistoryAdapter) Runs(ctx context.Context, kind models.RefreshKind, limit int) ([]*models.RefreshRun, error) {
	return h.runs.List(ctx, map[string]any{"kind": kind, "limit": limit})
}

// Scrobbles lists reports newest first. An empty videoID lists all videos.
func (h *HistoryAdapter) Scrobbles(ctx context.Context, videoID string, limit int) ([]*models.Scrobble, error) {
	return h.scrobbles.List(ctx, map[string]any{"video_id": videoID, "limit": limit})
}
