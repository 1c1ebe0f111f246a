package core

import "context"

type contextKey string

const (
	ctxKeyWorker contextKey = "executor_worker"
	ctxKeyTaskID contextKey = "executor_task_id"
)

func withWorkerName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ctxKeyWorker, name)
}

func withTaskID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyTaskID, id)
}

// WorkerName returns the name of the executor worker running ctx's job,
// or "" when called outside the executor.
func WorkerName(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyWorker).(string); ok {
		return v
	}
	return ""
}

// TaskID returns the handle ID of the job running with ctx, or "" when
// called outside the executor.
func TaskID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyTaskID).(string); ok {
		return v
	}
	return ""
}

// jobLogAttrs returns the worker and task_id log attributes for ctx.
func jobLogAttrs(ctx context.Context) []any {
	return []any{"worker", WorkerName(ctx), "task_id", TaskID(ctx)}
}
