package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytmusicd/internal/shared"
	"github.com/desertthunder/ytmusicd/internal/tasks"
	"github.com/desertthunder/ytmusicd/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive catalog browser. The player and catalog schedules keep running underneath it.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Logs go to a file so they do not break the TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	events := make(chan tasks.RefreshEvent, 16)
	c, err := r.build(ctx, events)
	if err != nil {
		return err
	}
	defer c.Close()

	cfg := tasks.BackendConfigFrom(r.config)
	cfg.RefreshOnStart = false
	cfg.Scrobble = false

	backend, err := tasks.NewBackend(cfg, c.player, c.catalog, nil, r.logger)
	if err != nil {
		return err
	}
	if err := backend.Start(ctx); err != nil {
		return fmt.Errorf("failed to start backend: %w", err)
	}

	p := tea.NewProgram(ui.NewModel(ctx, c.catalog, events), tea.WithContext(ctx))
	_, runErr := p.Run()
	if runErr != nil {
		runErr = fmt.Errorf("error running TUI: %w", runErr)
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return errors.Join(runErr, backend.Stop(stopCtx))
}
