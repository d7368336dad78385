package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/ytmusicd/internal/server"
	"github.com/desertthunder/ytmusicd/internal/shared"
	"github.com/desertthunder/ytmusicd/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Serve starts the backend and the HTTP API, and stops both on SIGINT or SIGTERM.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := r.build(ctx, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	backend, err := tasks.NewBackend(tasks.BackendConfigFrom(r.config), c.player, c.catalog, c.scrobbler, r.logger)
	if err != nil {
		return err
	}
	if err := backend.Start(ctx); err != nil {
		return fmt.Errorf("failed to start backend: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if !cmd.Bool("no-http") {
		addr := cmd.String("addr")
		if addr == "" {
			addr = r.config.Server.Addr()
		}

		var history server.History
		if c.history != nil {
			history = c.history
		}
		srv := server.NewHTTPServer(addr, server.NewHandler(backend, history, r.logger))

		g.Go(func() error {
			r.logger.Info("http server listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%w: http server: %v", shared.ErrServiceUnavailable, err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		r.logger.Info("shutting down")
		return nil
	})

	serveErr := g.Wait()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return errors.Join(serveErr, backend.Stop(stopCtx))
}
