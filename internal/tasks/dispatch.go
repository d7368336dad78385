package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmusicd/internal/shared"
)

// Dispatcher runs playback reports on a fixed set of workers fed by a bounded queue.
//
// [Dispatcher.Submit] never blocks: a full queue drops the job.
type Dispatcher struct {
	handle  func(ctx context.Context, videoID string)
	jobs    chan string
	workers int
	logger  *log.Logger

	mu      sync.RWMutex
	started bool
	closed  bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Non-positive sizes fall back to one.
func NewDispatcher(handle func(ctx context.Context, videoID string), workers, queueSize int, logger *log.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Dispatcher{
		handle:  handle,
		jobs:    make(chan string, queueSize),
		workers: workers,
		logger:  shared.WithLogger(logger, "component", "dispatcher"),
	}
}

// Start launches the worker goroutines. Handlers receive a context detached from ctx's cancellation.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	jobCtx := context.WithoutCancel(ctx)
	for range d.workers {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for videoID := range d.jobs {
				d.run(jobCtx, videoID)
			}
		}()
	}
}

func (d *Dispatcher) run(ctx context.Context, videoID string) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("scrobble handler panicked", "video_id", videoID, "panic", r)
		}
	}()
	d.handle(ctx, videoID)
}

// Submit queues videoID without blocking.
func (d *Dispatcher) Submit(videoID string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return fmt.Errorf("%w: dispatcher stopped", shared.ErrBackendStopped)
	}

	select {
	case d.jobs <- videoID:
		return nil
	default:
		return fmt.Errorf("%w: dropping scrobble for %s", shared.ErrQueueFull, videoID)
	}
}

// Pending returns the number of queued jobs.
func (d *Dispatcher) Pending() int { return len(d.jobs) }

// Stop closes the queue and waits for queued jobs to finish, or for ctx to end.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for scrobble workers: %v", shared.ErrTimeout, ctx.Err())
	}
}
