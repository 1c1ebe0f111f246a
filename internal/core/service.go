package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/JonMunkholm/carupload/internal/logging"
)

// UploadObserver is notified when an upload finishes, successfully or not.
type UploadObserver interface {
	UploadFinished(mode UploadMode, vehicles int, elapsed time.Duration, err error)
}

type nopUploadObserver struct{}

func (nopUploadObserver) UploadFinished(UploadMode, int, time.Duration, error) {}

// Service orchestrates parsing and persisting vehicle uploads.
type Service struct {
	store    VehicleStore
	executor *Executor
	observer UploadObserver
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithUploadObserver installs an observer for upload metrics.
func WithUploadObserver(o UploadObserver) ServiceOption {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewService creates a Service backed by store, dispatching background work
// to executor.
func NewService(store VehicleStore, executor *Executor, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("vehicle store cannot be nil")
	}
	if executor == nil {
		return nil, errors.New("executor cannot be nil")
	}

	s := &Service{
		store:    store,
		executor: executor,
		observer: nopUploadObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SaveSync parses r and persists the vehicles on the calling goroutine.
// It returns the stored vehicles with identifiers assigned. Any failure is
// returned as *UploadError.
func (s *Service) SaveSync(ctx context.Context, r io.Reader) ([]Vehicle, error) {
	return s.save(ctx, logging.FromContext(ctx), ModeSync, r)
}

// SaveAsync submits parse and persist of r to the executor and returns at
// once. The returned handle resolves with the stored vehicles, or with an
// *UploadError. The job does not use ctx for cancellation, so r must stay
// readable after the caller returns.
//
// If the executor rejects the job, SaveAsync returns an *UploadError
// wrapping ErrQueueSaturated or ErrExecutorClosed.
func (s *Service) SaveAsync(ctx context.Context, r io.Reader) (*TaskHandle[[]Vehicle], error) {
	logger := logging.FromContext(ctx)

	h, err := Submit(s.executor, func(jobCtx context.Context) ([]Vehicle, error) {
		return s.save(jobCtx, logger.With(jobLogAttrs(jobCtx)...), ModeAsync, r)
	})
	if err != nil {
		logger.Warn("async upload rejected", "error", err)
		return nil, &UploadError{Op: "submit", Err: err}
	}

	logger.Info("async upload queued", "task_id", h.ID())
	return h, nil
}

// ListAll submits a job that returns every stored vehicle.
func (s *Service) ListAll(ctx context.Context) (*TaskHandle[[]Vehicle], error) {
	logger := logging.FromContext(ctx)

	h, err := Submit(s.executor, func(jobCtx context.Context) ([]Vehicle, error) {
		logger.Info("request to get a list of vehicles", jobLogAttrs(jobCtx)...)

		vehicles, err := s.store.FindAll(jobCtx)
		if err != nil {
			return nil, &UploadError{Op: "list", Err: &PersistenceError{Op: "find_all", Err: err}}
		}
		return vehicles, nil
	})
	if err != nil {
		return nil, &UploadError{Op: "submit", Err: err}
	}
	return h, nil
}

// ExecutorStatus returns the executor snapshot for monitoring.
func (s *Service) ExecutorStatus() ExecutorStatus {
	return s.executor.Status()
}

// Shutdown stops the executor, waiting for queued uploads to finish.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.executor.Shutdown(ctx)
}

func (s *Service) save(ctx context.Context, logger *slog.Logger, mode UploadMode, r io.Reader) (saved []Vehicle, err error) {
	start := time.Now()
	defer func() {
		s.observer.UploadFinished(mode, len(saved), time.Since(start), err)
	}()

	vehicles, err := ParseVehicles(r)
	if err != nil {
		logger.Error("failed to parse csv file", "mode", mode, "error", err)
		return nil, &UploadError{Op: "parse", Err: err}
	}

	logger.Info("saving vehicles", "mode", mode, "count", len(vehicles))

	saved, err = s.store.SaveAll(ctx, vehicles)
	if err != nil {
		logger.Error("failed to persist vehicles", "mode", mode, "count", len(vehicles), "error", err)
		return nil, &UploadError{Op: "persist", Err: &PersistenceError{Op: "save_all", Err: err}}
	}

	logger.Info("upload finished",
		"mode", mode,
		"count", len(saved),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return saved, nil
}
