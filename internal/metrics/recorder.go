// Package metrics exposes executor and upload metrics in Prometheus format.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/carupload/internal/core"
)

const namespace = "carupload"

// Recorder implements core.ExecutorObserver and core.UploadObserver on a
// private registry.
type Recorder struct {
	registry *prometheus.Registry

	// Executor Metrics
	tasksQueued   prometheus.Counter
	tasksRejected *prometheus.CounterVec
	tasksFinished *prometheus.CounterVec
	queueWait     prometheus.Histogram
	taskDuration  prometheus.Histogram

	// Upload Metrics
	uploads         *prometheus.CounterVec
	vehiclesSaved   *prometheus.CounterVec
	uploadDurations *prometheus.HistogramVec
}

var (
	_ core.ExecutorObserver = (*Recorder)(nil)
	_ core.UploadObserver   = (*Recorder)(nil)
)

// NewRecorder creates a Recorder with Go runtime and process collectors registered.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Recorder{
		registry: registry,
		tasksQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executor_tasks_queued_total",
			Help:      "Total number of tasks accepted by the executor.",
		}),
		tasksRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executor_tasks_rejected_total",
			Help:      "Total number of tasks rejected by the executor, by reason.",
		}, []string{"reason"}),
		tasksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executor_tasks_finished_total",
			Help:      "Total number of tasks run to completion, by outcome.",
		}, []string{"outcome"}),
		queueWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "executor_queue_wait_seconds",
			Help:      "Time tasks spent queued before a worker picked them up.",
			Buckets:   prometheus.DefBuckets,
		}),
		taskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "executor_task_duration_seconds",
			Help:      "Time workers spent running tasks.",
			Buckets:   prometheus.DefBuckets,
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Total number of CSV uploads processed, by mode and outcome.",
		}, []string{"mode", "outcome"}),
		vehiclesSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vehicles_saved_total",
			Help:      "Total number of vehicle records persisted, by mode.",
		}, []string{"mode"}),
		uploadDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Duration of parse-and-persist for one upload.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
	}

	registry.MustRegister(
		r.tasksQueued,
		r.tasksRejected,
		r.tasksFinished,
		r.queueWait,
		r.taskDuration,
		r.uploads,
		r.vehiclesSaved,
		r.uploadDurations,
	)

	return r
}

// Registry returns the Prometheus registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WatchExecutor registers gauges that sample the executor state on each scrape.
// Call it once, after the executor exists.
func (r *Recorder) WatchExecutor(status func() core.ExecutorStatus) {
	r.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "executor_active_workers",
			Help:      "Number of workers currently running a task.",
		}, func() float64 { return float64(status().Active) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "executor_queued_tasks",
			Help:      "Number of tasks waiting for a worker.",
		}, func() float64 { return float64(status().Queued) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "executor_queue_capacity",
			Help:      "Maximum number of tasks that may wait for a worker.",
		}, func() float64 { return float64(status().QueueCapacity) }),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// TaskQueued implements core.ExecutorObserver.
func (r *Recorder) TaskQueued() {
	r.tasksQueued.Inc()
}

// TaskRejected implements core.ExecutorObserver.
func (r *Recorder) TaskRejected(reason error) {
	r.tasksRejected.WithLabelValues(rejectReason(reason)).Inc()
}

// TaskStarted implements core.ExecutorObserver.
func (r *Recorder) TaskStarted(wait time.Duration) {
	r.queueWait.Observe(wait.Seconds())
}

// TaskFinished implements core.ExecutorObserver.
func (r *Recorder) TaskFinished(elapsed time.Duration, err error) {
	r.taskDuration.Observe(elapsed.Seconds())
	r.tasksFinished.WithLabelValues(taskOutcome(err)).Inc()
}

// UploadFinished implements core.UploadObserver.
func (r *Recorder) UploadFinished(mode core.UploadMode, vehicles int, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.uploads.WithLabelValues(string(mode), outcome).Inc()
	r.uploadDurations.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
	if err == nil {
		r.vehiclesSaved.WithLabelValues(string(mode)).Add(float64(vehicles))
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, core.ErrQueueSaturated):
		return "saturated"
	case errors.Is(err, core.ErrExecutorClosed):
		return "closed"
	default:
		return "other"
	}
}

func taskOutcome(err error) string {
	var panicErr *core.TaskPanicError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &panicErr):
		return "panic"
	default:
		return "error"
	}
}
