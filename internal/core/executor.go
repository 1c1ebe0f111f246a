package core

// executor.go implements the bounded worker pool used for background uploads.
//
// A fixed number of workers read from a buffered queue. Submit never blocks:
// when the queue is full it fails with ErrQueueSaturated, so callers decide
// whether to retry or report an error. Jobs run to completion once started
// and are never cancelled. A failing or panicking job is recorded on its
// TaskHandle and never takes the pool down.

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

const (
	// DefaultWorkers is the fixed number of workers.
	DefaultWorkers = 4

	// DefaultQueueCapacity is the number of jobs that may wait for a worker.
	DefaultQueueCapacity = 100

	// DefaultWorkerPrefix prefixes worker names in logs.
	DefaultWorkerPrefix = "CarThread-"
)

// ExecutorConfig is fixed at construction.
type ExecutorConfig struct {
	Workers       int
	QueueCapacity int
	NamePrefix    string
}

// ExecutorObserver receives executor lifecycle events.
// Implementations must be safe for concurrent use and must not block.
type ExecutorObserver interface {
	TaskQueued()
	TaskRejected(reason error)
	TaskStarted(wait time.Duration)
	TaskFinished(elapsed time.Duration, err error)
}

type nopExecutorObserver struct{}

func (nopExecutorObserver) TaskQueued() {}
func (nopExecutorObserver) TaskRejected(error) {}
func (nopExecutorObserver) TaskStarted(time.Duration) {}
func (nopExecutorObserver) TaskFinished(time.Duration, error) {}

type task struct {
	id         string
	enqueuedAt time.Time
	run        func(ctx context.Context) error
}

// Executor is a fixed-size worker pool with a bounded queue.
// It is safe for concurrent submission from many goroutines.
type Executor struct {
	cfg      ExecutorConfig
	queue    chan *task
	observer ExecutorObserver
	rootCtx  context.Context

	// mu guards closed and makes Submit/Shutdown agree on the queue state.
	mu     sync.RWMutex
	closed bool

	activeMu sync.RWMutex
	active   int

	wg      sync.WaitGroup
	drained chan struct{}
}

// ExecutorOption customizes an Executor.
type ExecutorOption func(*Executor)

// WithExecutorObserver installs an observer for metrics.
func WithExecutorObserver(o ExecutorObserver) ExecutorOption {
	return func(e *Executor) {
		if o != nil {
			e.observer = o
		}
	}
}

// NewExecutor starts cfg.Workers workers. Non-positive values fall back to
// the defaults. Jobs receive a context derived from ctx, which carries the
// worker name (see WorkerName).
func NewExecutor(ctx context.Context, cfg ExecutorConfig, opts ...ExecutorOption) *Executor {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.NamePrefix == "" {
		cfg.NamePrefix = DefaultWorkerPrefix
	}
	if ctx == nil {
		ctx = context.Background()
	}

	e := &Executor{
		cfg:      cfg,
		queue:    make(chan *task, cfg.QueueCapacity),
		observer: nopExecutorObserver{},
		rootCtx:  ctx,
		drained:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	slog.Debug("starting executor",
		"workers", cfg.Workers,
		"queue_capacity", cfg.QueueCapacity,
		"name_prefix", cfg.NamePrefix,
	)

	e.wg.Add(cfg.Workers)
	for i := 1; i <= cfg.Workers; i++ {
		go e.worker(fmt.Sprintf("%s%d", cfg.NamePrefix, i))
	}
	go func() {
		e.wg.Wait()
		close(e.drained)
	}()

	return e
}

// Submit enqueues fn and returns a handle resolved with its result.
//
// Submit never blocks. It returns ErrQueueSaturated when the queue is full
// and ErrExecutorClosed after Shutdown. An error returned by fn, or a panic
// inside it, is recorded on the handle.
func Submit[T any](e *Executor, fn func(ctx context.Context) (T, error)) (*TaskHandle[T], error) {
	h := newTaskHandle[T]()
	t := &task{
		id:         h.id,
		enqueuedAt: time.Now(),
		run: func(ctx context.Context) error {
			v, err := runRecovered(ctx, fn)
			h.complete(v, err)
			return err
		},
	}

	if err := e.enqueue(t); err != nil {
		return nil, err
	}
	return h, nil
}

func (e *Executor) enqueue(t *task) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		e.observer.TaskRejected(ErrExecutorClosed)
		return ErrExecutorClosed
	}

	select {
	case e.queue <- t:
		e.observer.TaskQueued()
		return nil
	default:
		e.observer.TaskRejected(ErrQueueSaturated)
		slog.Warn("executor queue saturated",
			"task_id", t.id,
			"queue_capacity", e.cfg.QueueCapacity,
		)
		return ErrQueueSaturated
	}
}

func (e *Executor) worker(name string) {
	defer e.wg.Done()

	logger := slog.Default().With("worker", name)
	ctx := withWorkerName(e.rootCtx, name)

	for t := range e.queue {
		wait := time.Since(t.enqueuedAt)
		e.setActive(1)
		e.observer.TaskStarted(wait)
		logger.Debug("task started", "task_id", t.id, "wait_ms", wait.Milliseconds())

		start := time.Now()
		err := t.run(withTaskID(ctx, t.id))
		elapsed := time.Since(start)

		e.observer.TaskFinished(elapsed, err)
		e.setActive(-1)

		if err != nil {
			logger.Error("task failed", "task_id", t.id, "elapsed_ms", elapsed.Milliseconds(), "error", err)
		} else {
			logger.Debug("task finished", "task_id", t.id, "elapsed_ms", elapsed.Milliseconds())
		}
	}
}

func (e *Executor) setActive(delta int) {
	e.activeMu.Lock()
	e.active += delta
	e.activeMu.Unlock()
}

// runRecovered calls fn and converts a panic into *TaskPanicError.
func runRecovered[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (v T, err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			var zero T
			v = zero
			err = &TaskPanicError{Value: rvr, Stack: debug.Stack()}
		}
	}()
	return fn(ctx)
}

// Shutdown stops accepting work and waits for queued and running jobs to
// finish. It returns ctx.Err() if ctx ends first; workers keep draining in
// that case. Calling Shutdown more than once is safe.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.queue)
	}
	e.mu.Unlock()

	select {
	case <-e.drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExecutorStatus is a snapshot of the executor's state.
type ExecutorStatus struct {
	Workers       int  `json:"workers"`
	Active        int  `json:"active"`
	Queued        int  `json:"queued"`
	QueueCapacity int  `json:"queue_capacity"`
	Closed        bool `json:"closed"`
}

// Status returns the current executor state for monitoring.
func (e *Executor) Status() ExecutorStatus {
	e.activeMu.RLock()
	active := e.active
	e.activeMu.RUnlock()

	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()

	return ExecutorStatus{
		Workers:       e.cfg.Workers,
		Active:        active,
		Queued:        len(e.queue),
		QueueCapacity: cap(e.queue),
		Closed:        closed,
	}
}
