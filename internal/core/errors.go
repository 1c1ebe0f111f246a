package core

import (
	"errors"
	"fmt"
)

var (
	// ErrQueueSaturated is returned by Submit when every worker is busy and
	// the pending queue is at capacity. Nothing was enqueued.
	ErrQueueSaturated = errors.New("task queue saturated")

	// ErrExecutorClosed is returned by Submit after Shutdown has started.
	ErrExecutorClosed = errors.New("executor is shut down")

	// ErrWaitTimeout is returned by TaskHandle.WaitTimeout when the task
	// did not complete in time. The task itself keeps running.
	ErrWaitTimeout = errors.New("timed out waiting for task")

	// ErrTaskPending is returned by TaskHandle.TryResult before completion.
	ErrTaskPending = errors.New("task has not completed")
)

// CSVReadError reports an I/O failure while reading the upload stream.
type CSVReadError struct {
	Line int // 1-based line being read when the failure occurred
	Err  error
}

func (e *CSVReadError) Error() string {
	return fmt.Sprintf("read csv at line %d: %v", e.Line, e.Err)
}

func (e *CSVReadError) Unwrap() error {
	return e.Err
}

// MalformedRowError reports a line with fewer fields than the schema needs.
type MalformedRowError struct {
	Line   int // 1-based
	Fields int // fields found on the line
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row at line %d: expected %d fields, got %d", e.Line, vehicleFields, e.Fields)
}

// PersistenceError wraps a failure reported by the VehicleStore.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// UploadError is the umbrella error returned by Service operations.
// Op names the failed stage: "parse", "persist", "list" or "submit".
type UploadError struct {
	Op  string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Op, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// TaskPanicError is attached to a TaskHandle when its job panicked.
type TaskPanicError struct {
	Value any
	Stack []byte
}

func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}
