package tasks

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmusicd/internal/shared"
)

// Ticker is the clock source a [RepeatingTask] waits on.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a [Ticker] firing every d.
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop() { t.t.Stop() }

// NewTimeTicker wraps [time.NewTicker].
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// RepeatingTask runs an action every interval on its own goroutine until cancelled.
//
// The first invocation happens one full interval after [RepeatingTask.Start]. Cancel stops future
// invocations; an invocation already running completes. A panicking action is logged and the schedule
// continues.
type RepeatingTask struct {
	name      string
	interval  time.Duration
	action    func(ctx context.Context)
	logger    *log.Logger
	newTicker TickerFunc

	startOnce  sync.Once
	cancelOnce sync.Once
	started    atomic.Bool
	done       chan struct{}
	exited     chan struct{}
	runs       atomic.Int64
}

// NewRepeatingTask creates a task. interval must be positive and newTicker may be nil.
func NewRepeatingTask(name string, interval time.Duration, action func(ctx context.Context), logger *log.Logger, newTicker TickerFunc) (*RepeatingTask, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %s interval must be positive, got %s", shared.ErrInvalidArgument, name, interval)
	}
	if action == nil {
		return nil, fmt.Errorf("%w: %s action is nil", shared.ErrInvalidArgument, name)
	}
	if newTicker == nil {
		newTicker = NewTimeTicker
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &RepeatingTask{
		name:      name,
		interval:  interval,
		action:    action,
		logger:    shared.WithLogger(logger, "task", name),
		newTicker: newTicker,
		done:      make(chan struct{}),
		exited:    make(chan struct{}),
	}, nil
}

// Name returns the task name used in logs.
func (t *RepeatingTask) Name() string { return t.name }

// Interval returns the configured interval.
func (t *RepeatingTask) Interval() time.Duration { return t.interval }

// Runs returns how many times the action has been invoked.
func (t *RepeatingTask) Runs() int64 { return t.runs.Load() }

// Start launches the schedule. Calls after the first are no-ops.
//
// Actions receive a context detached from ctx's cancellation, so stopping the task never aborts an
// invocation midway. Cancelling ctx stops the schedule like [RepeatingTask.Cancel].
func (t *RepeatingTask) Start(ctx context.Context) {
	t.startOnce.Do(func() {
		t.started.Store(true)
		ticker := t.newTicker(t.interval)
		go t.loop(ctx, ticker)
		t.logger.Debug("task started", "interval", t.interval)
	})
}

func (t *RepeatingTask) loop(ctx context.Context, ticker Ticker) {
	defer close(t.exited)
	defer ticker.Stop()

	actionCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-t.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C():
			select {
			case <-t.done:
				return
			default:
			}
			t.invoke(actionCtx)
		}
	}
}

func (t *RepeatingTask) invoke(ctx context.Context) {
	t.runs.Add(1)
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("task action panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	t.action(ctx)
}

// Cancel stops future invocations. Safe to call from any goroutine, any number of times.
func (t *RepeatingTask) Cancel() {
	t.cancelOnce.Do(func() {
		close(t.done)
		t.logger.Debug("task cancelled", "runs", t.runs.Load())
	})
}

// Wait blocks until the schedule goroutine has exited or ctx is done. It returns immediately for a
// task that was never started.
func (t *RepeatingTask) Wait(ctx context.Context) error {
	if !t.started.Load() {
		return nil
	}
	select {
	case <-t.exited:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for task %s: %v", shared.ErrTimeout, t.name, ctx.Err())
	}
}
