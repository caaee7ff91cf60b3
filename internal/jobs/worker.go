package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jackzampolin/folio/internal/pageerr"
)

// Worker floors. Primary workers never take reserved maintenance work.
const (
	PrimaryFloor   Priority = PriorityThumbnail
	SecondaryFloor Priority = 0
)

// WorkerConfig configures a single worker.
type WorkerConfig struct {
	ID      int
	Primary bool
	// MinPriority overrides the floor implied by Primary when non-nil.
	MinPriority *Priority
	// Timeout bounds each job unless the job sets its own.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Worker pulls jobs at or above its floor and runs them one at a time.
type Worker struct {
	id      int
	primary bool
	floor   Priority
	timeout time.Duration
	sched   *Scheduler
	results chan<- Result
	logger  *slog.Logger

	busy      atomic.Bool
	processed atomic.Uint64
}

// NewWorker binds a worker to a scheduler. results may be nil.
func NewWorker(sched *Scheduler, results chan<- Result, cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	floor := SecondaryFloor
	if cfg.Primary {
		floor = PrimaryFloor
	}
	if cfg.MinPriority != nil {
		floor = *cfg.MinPriority
	}
	kind := "secondary"
	if cfg.Primary {
		kind = "primary"
	}
	return &Worker{
		id:      cfg.ID,
		primary: cfg.Primary,
		floor:   floor,
		timeout: cfg.Timeout,
		sched:   sched,
		results: results,
		logger:  logger.With("worker", cfg.ID, "kind", kind, "floor", int(floor)),
	}
}

// Floor is the minimum priority this worker accepts.
func (w *Worker) Floor() Priority { return w.floor }

// Run loops until ctx is done or the scheduler closes.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Debug("worker started")
	defer w.logger.Debug("worker stopped")

	for {
		h, ok := w.sched.Dequeue(ctx, w.floor)
		if !ok {
			return
		}
		w.busy.Store(true)
		w.execute(h)
		w.busy.Store(false)
		w.processed.Add(1)
	}
}

func (w *Worker) execute(h *Handle) {
	start := time.Now()
	ctx := h.ctx
	timeout := h.job.Timeout
	if timeout <= 0 {
		timeout = w.timeout
	}
	var cancel context.CancelFunc = func() {}
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	result, err := w.call(ctx, h)
	if err != nil && ctx.Err() != nil && h.ctx.Err() == nil {
		// Our deadline fired, not the job's cancellation signal.
		if !errors.Is(err, pageerr.ErrTimeout) {
			err = fmt.Errorf("%s: %w", h.job.Key, pageerr.FromContext(context.DeadlineExceeded))
		}
	}
	cancel()

	status := w.sched.Complete(h, result, err)
	elapsed := time.Since(start)

	switch status {
	case StatusFailed:
		w.logger.Debug("job failed", "key", h.job.Key, "error", err, "elapsed", elapsed)
	case StatusCancelled:
		w.logger.Debug("job cancelled", "key", h.job.Key, "elapsed", elapsed)
	default:
		w.logger.Debug("job completed", "key", h.job.Key, "elapsed", elapsed)
	}

	if w.results == nil {
		return
	}
	_, finalErr := h.Result()
	select {
	case w.results <- Result{
		ID:       h.id,
		Key:      h.job.Key,
		Category: h.job.Category,
		Priority: h.job.Priority,
		Status:   status,
		Worker:   w.id,
		Duration: elapsed,
		Err:      finalErr,
	}:
	default:
		// Nobody is draining results; drop rather than stall the worker.
	}
}

// call runs the executor and turns a panic into a failure.
func (w *Worker) call(ctx context.Context, h *Handle) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("job panicked", "key", h.job.Key, "panic", r)
			err = fmt.Errorf("job %s panicked: %v", h.job.Key, r)
		}
	}()
	return h.job.Execute(ctx)
}

// WorkerStatus is a point-in-time view of one worker.
type WorkerStatus struct {
	ID        int    `json:"id"`
	Primary   bool   `json:"primary"`
	Floor     int    `json:"floor"`
	Busy      bool   `json:"busy"`
	Processed uint64 `json:"processed"`
}

// Status returns the worker's current status.
func (w *Worker) Status() WorkerStatus {
	return WorkerStatus{
		ID:        w.id,
		Primary:   w.primary,
		Floor:     int(w.floor),
		Busy:      w.busy.Load(),
		Processed: w.processed.Load(),
	}
}
