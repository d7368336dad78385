package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytmusicd/internal/formatter"
	"github.com/desertthunder/ytmusicd/internal/models"
	"github.com/desertthunder/ytmusicd/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList prints recent refresh runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	var kind models.RefreshKind
	if s := cmd.String("kind"); s != "" {
		k, err := models.ParseRefreshKind(s)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		kind = k
	}

	history, closeDB, err := r.openHistory()
	if err != nil {
		return err
	}
	defer closeDB()

	runs, err := history.Runs(ctx, kind, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to list refresh runs: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}
	if len(runs) == 0 {
		return r.writePlain("No refresh runs recorded.\n")
	}
	return r.writePlain("%s\n", formatter.RunsTable(runs))
}

// HistoryScrobbles prints recent playback reports, optionally for one video.
func (r *Runner) HistoryScrobbles(ctx context.Context, cmd *cli.Command) error {
	history, closeDB, err := r.openHistory()
	if err != nil {
		return err
	}
	defer closeDB()

	scrobbles, err := history.Scrobbles(ctx, cmd.String("video"), int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to list scrobbles: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(scrobbles, true)
	}
	if len(scrobbles) == 0 {
		return r.writePlain("No playback reports recorded.\n")
	}
	return r.writePlain("%s\n", formatter.ScrobblesTable(scrobbles))
}
