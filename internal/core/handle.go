package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskHandle is a future for a job's result. It is resolved exactly once,
// either with a value or with an error, and is safe for concurrent use.
type TaskHandle[T any] struct {
	id   string
	done chan struct{}
	once sync.Once

	value T
	err   error
}

func newTaskHandle[T any]() *TaskHandle[T] {
	return &TaskHandle[T]{
		id:   uuid.New().String(),
		done: make(chan struct{}),
	}
}

// Completed returns a handle already resolved with v.
// Use it when a result is known before any dispatch is needed.
func Completed[T any](v T) *TaskHandle[T] {
	h := newTaskHandle[T]()
	h.complete(v, nil)
	return h
}

// Failed returns a handle already resolved with err.
func Failed[T any](err error) *TaskHandle[T] {
	h := newTaskHandle[T]()
	var zero T
	h.complete(zero, err)
	return h
}

// ID returns the unique task identifier used in logs.
func (h *TaskHandle[T]) ID() string {
	return h.id
}

// Done returns a channel that is closed when the task completes.
func (h *TaskHandle[T]) Done() <-chan struct{} {
	return h.done
}

// IsDone reports whether the task has completed, without blocking.
func (h *TaskHandle[T]) IsDone() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// TryResult returns the result without blocking.
// Returns ErrTaskPending if the task has not completed.
func (h *TaskHandle[T]) TryResult() (T, error) {
	if !h.IsDone() {
		var zero T
		return zero, ErrTaskPending
	}
	return h.value, h.err
}

// Wait blocks until the task completes or ctx is done.
// A completed task always returns its result, even with ctx already done.
// A ctx error does not affect the task, which keeps running.
func (h *TaskHandle[T]) Wait(ctx context.Context) (T, error) {
	if h.IsDone() {
		return h.value, h.err
	}
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		if h.IsDone() {
			return h.value, h.err
		}
		var zero T
		return zero, ctx.Err()
	}
}

// WaitTimeout blocks for at most d. Returns ErrWaitTimeout when d elapses first.
func (h *TaskHandle[T]) WaitTimeout(d time.Duration) (T, error) {
	if h.IsDone() {
		return h.value, h.err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-h.done:
		return h.value, h.err
	case <-timer.C:
		if h.IsDone() {
			return h.value, h.err
		}
		var zero T
		return zero, ErrWaitTimeout
	}
}

// complete resolves the handle. Later calls are ignored.
func (h *TaskHandle[T]) complete(v T, err error) {
	h.once.Do(func() {
		h.value = v
		h.err = err
		close(h.done)
	})
}
