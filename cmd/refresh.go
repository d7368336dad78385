package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytmusicd/internal/formatter"
	"github.com/desertthunder/ytmusicd/internal/shared"
	"github.com/desertthunder/ytmusicd/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// RefreshPlayer fetches the player URL once and updates the cipher.
func (r *Runner) RefreshPlayer(ctx context.Context, cmd *cli.Command) error {
	c, err := r.build(ctx, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	res := c.player.RunOnce(ctx)
	r.writeResult(res)
	if res.Err != nil {
		return res.Err
	}
	r.writePlain("Signature timestamp: %d\n", c.cipher.SignatureTimestamp())
	return nil
}

// RefreshCatalog loads the auto playlist sections once.
func (r *Runner) RefreshCatalog(ctx context.Context, cmd *cli.Command) error {
	c, err := r.build(ctx, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	res := c.catalog.RunOnce(ctx)
	if cmd.Bool("json") && res.Err == nil {
		return r.writeJSON(c.catalog.Catalog(), true)
	}
	r.writeResult(res)
	if res.Err != nil {
		return res.Err
	}
	r.writePlain("%s\n", formatter.Summary(c.catalog.Catalog()))
	return nil
}

// RefreshAll runs both refreshers concurrently and fails if either failed.
func (r *Runner) RefreshAll(ctx context.Context, cmd *cli.Command) error {
	c, err := r.build(ctx, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	var player, catalog tasks.RefreshResult
	var g errgroup.Group
	g.Go(func() error {
		player = c.player.RunOnce(ctx)
		return player.Err
	})
	g.Go(func() error {
		catalog = c.catalog.RunOnce(ctx)
		return catalog.Err
	})
	err = g.Wait()

	r.writeResult(player)
	r.writeResult(catalog)
	return err
}

func (r *Runner) writeResult(res tasks.RefreshResult) {
	if res.Err != nil {
		r.writePlain("✗ %s refresh failed after %.2fs: %v\n", res.Kind, res.Duration.Seconds(), res.Err)
		return
	}
	r.writePlain("✓ %s %s in %.2fs", res.Kind, res.Outcome, res.Duration.Seconds())
	if res.Detail != "" {
		r.writePlain(" (%s)", res.Detail)
	}
	r.writePlain("\n")
}

// Scrobble refreshes the player for a signature timestamp, then reports videoId once.
func (r *Runner) Scrobble(ctx context.Context, cmd *cli.Command) error {
	videoID := cmd.StringArg("videoId")
	if videoID == "" {
		return fmt.Errorf("%w: videoId argument is required", shared.ErrMissingArgument)
	}

	c, err := r.build(ctx, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	if res := c.player.RunOnce(ctx); res.Err != nil {
		r.logger.Warn("reporting without a signature timestamp", "error", res.Err)
	}

	result, err := c.scrobbler.RunOnce(ctx, videoID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}
	r.writePlain("✓ Reported %s (cpn %s)\n", result.VideoID, result.CPN)
	r.writePlain("Tracking status: %d\n", result.StatusCode)
	return nil
}
