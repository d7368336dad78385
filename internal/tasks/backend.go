package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmusicd/internal/models"
	"github.com/desertthunder/ytmusicd/internal/shared"
)

// BackendConfig holds the orchestration settings.
type BackendConfig struct {
	CatalogInterval time.Duration // Zero disables the catalog cycle
	PlayerInterval  time.Duration // Must be positive
	RefreshOnStart  bool          // Run both refreshers once in the background on Start
	Scrobble        bool          // Enable playback reports
	Workers         int           // Scrobble workers
	QueueSize       int           // Scrobble queue capacity
	Ticker          TickerFunc    // Clock source, nil for real time
}

// BackendConfigFrom maps the loaded configuration onto a [BackendConfig].
func BackendConfigFrom(cfg *shared.Config) BackendConfig {
	return BackendConfig{
		CatalogInterval: cfg.Refresh.CatalogInterval(),
		PlayerInterval:  cfg.Refresh.PlayerInterval(),
		RefreshOnStart:  cfg.Refresh.OnStart,
		Scrobble:        cfg.Scrobble.Enabled,
		Workers:         cfg.Scrobble.Workers,
		QueueSize:       cfg.Scrobble.QueueSize,
	}
}

// Backend owns the two refresh schedules and the scrobble dispatcher.
//
// Start and Stop are idempotent and may be repeated: stopped -> running -> stopped.
type Backend struct {
	cfg       BackendConfig
	player    *PlayerRefresher
	catalog   *CatalogRefresher
	scrobbler *ScrobbleReporter
	logger    *log.Logger

	mu          sync.Mutex
	running     bool
	playerTask  *RepeatingTask
	catalogTask *RepeatingTask
	dispatcher  *Dispatcher
	initial     sync.WaitGroup
}

// NewBackend validates cfg and wires the components. scrobbler may be nil when reports are disabled.
func NewBackend(cfg BackendConfig, player *PlayerRefresher, catalog *CatalogRefresher, scrobbler *ScrobbleReporter, logger *log.Logger) (*Backend, error) {
	if cfg.PlayerInterval <= 0 {
		return nil, fmt.Errorf("%w: player refresh interval must be positive, got %s", shared.ErrInvalidConfig, cfg.PlayerInterval)
	}
	if cfg.CatalogInterval < 0 {
		return nil, fmt.Errorf("%w: catalog refresh interval cannot be negative, got %s", shared.ErrInvalidConfig, cfg.CatalogInterval)
	}
	if player == nil || catalog == nil {
		return nil, fmt.Errorf("%w: player and catalog refreshers are required", shared.ErrInvalidArgument)
	}
	if cfg.Scrobble && scrobbler == nil {
		return nil, fmt.Errorf("%w: scrobbling enabled without a reporter", shared.ErrInvalidArgument)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Backend{
		cfg:       cfg,
		player:    player,
		catalog:   catalog,
		scrobbler: scrobbler,
		logger:    shared.WithLogger(logger, "component", "backend"),
	}, nil
}

// Start launches the player schedule, the catalog schedule when its interval is non-zero, and the
// scrobble workers.
func (b *Backend) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return nil
	}

	playerTask, err := NewRepeatingTask("player", b.cfg.PlayerInterval, b.player.Tick, b.logger, b.cfg.Ticker)
	if err != nil {
		return err
	}

	var catalogTask *RepeatingTask
	if b.cfg.CatalogInterval > 0 {
		catalogTask, err = NewRepeatingTask("catalog", b.cfg.CatalogInterval, b.catalog.Tick, b.logger, b.cfg.Ticker)
		if err != nil {
			return err
		}
	}

	if b.cfg.Scrobble {
		b.dispatcher = NewDispatcher(b.scrobbler.Handle, b.cfg.Workers, b.cfg.QueueSize, b.logger)
		b.dispatcher.Start(ctx)
	}

	if b.cfg.RefreshOnStart {
		b.refreshNow(ctx, catalogTask != nil)
	}

	if catalogTask != nil {
		catalogTask.Start(ctx)
	} else {
		b.logger.Info("auto playlist refresh disabled")
	}
	playerTask.Start(ctx)

	b.playerTask, b.catalogTask = playerTask, catalogTask
	b.running = true
	b.logger.Info("backend started", "player_interval", b.cfg.PlayerInterval, "catalog_interval", b.cfg.CatalogInterval, "scrobble", b.cfg.Scrobble)
	return nil
}

func (b *Backend) refreshNow(ctx context.Context, withCatalog bool) {
	runCtx := context.WithoutCancel(ctx)
	b.initial.Add(1)
	go func() {
		defer b.initial.Done()
		b.player.Tick(runCtx)
		if withCatalog {
			b.catalog.Tick(runCtx)
		}
	}()
}

// Stop cancels both schedules and drains the scrobble queue. In-flight refreshes may complete; no
// further invocations start after Stop returns. ctx bounds the wait.
func (b *Backend) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	playerTask, catalogTask, dispatcher := b.playerTask, b.catalogTask, b.dispatcher
	b.playerTask, b.catalogTask, b.dispatcher = nil, nil, nil
	b.running = false
	b.mu.Unlock()

	var errs []error
	for _, task := range []*RepeatingTask{catalogTask, playerTask} {
		if task == nil {
			continue
		}
		task.Cancel()
		if err := task.Wait(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if dispatcher != nil {
		if err := dispatcher.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	done := make(chan struct{})
	go func() {
		b.initial.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("%w: waiting for initial refresh: %v", shared.ErrTimeout, ctx.Err()))
	}

	b.logger.Info("backend stopped")
	return errors.Join(errs...)
}

// Running reports whether the backend is started.
func (b *Backend) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Catalog returns the current catalog snapshot.
func (b *Backend) Catalog() *models.Catalog {
	return b.catalog.Catalog()
}

// Endpoint returns the current player endpoint.
func (b *Backend) Endpoint() string {
	return b.player.Endpoint()
}

// OnTrackStart queues a playback report for videoID without waiting for it. Failures are logged only.
func (b *Backend) OnTrackStart(videoID string) {
	b.mu.Lock()
	dispatcher := b.dispatcher
	b.mu.Unlock()

	if dispatcher == nil {
		b.logger.Debug("scrobble skipped, backend not reporting", "video_id", videoID)
		return
	}

	if err := dispatcher.Submit(videoID); err != nil {
		b.logger.Warn("scrobble not queued", "video_id", videoID, "error", err)
	}
}
