package jobs

import (
	"context"
	"time"

	"github.com/jackzampolin/folio/internal/pageerr"
)

// Handle is the caller's view of one submission: its cancellation signal
// and a future for its result. A Handle resolves exactly once.
type Handle struct {
	id    string
	job   Job
	seq   uint64
	sched *Scheduler

	// ctx is the cancellation signal handed to the executor.
	ctx    context.Context
	cancel context.CancelFunc

	// guarded by sched.mu
	index     int
	status    Status
	submitted time.Time
	started   time.Time

	done   chan struct{}
	result any
	err    error
}

// ID is a unique id for this submission.
func (h *Handle) ID() string { return h.id }

// Key is the dedup key.
func (h *Handle) Key() string { return h.job.Key }

// Seq is the submission sequence number.
func (h *Handle) Seq() uint64 { return h.seq }

// Priority is the priority the job was submitted at.
func (h *Handle) Priority() Priority { return h.job.Priority }

// Category is the job category.
func (h *Handle) Category() Category { return h.job.Category }

// Status returns the current lifecycle state.
func (h *Handle) Status() Status {
	h.sched.mu.Lock()
	defer h.sched.mu.Unlock()
	return h.status
}

// Cancelled reports whether the cancellation signal is set.
func (h *Handle) Cancelled() bool { return h.ctx.Err() != nil }

// Context is done once the job is cancelled.
func (h *Handle) Context() context.Context { return h.ctx }

// Done is closed when the job reaches a terminal state.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Cancel cancels this submission if it is still queued or running.
func (h *Handle) Cancel() bool { return h.sched.cancelHandle(h) }

// Wait blocks until the job resolves or ctx is done.
func (h *Handle) Wait(ctx context.Context) (any, error) {
	select {
	case <-h.done:
		return h.result, h.err
	case <-ctx.Done():
		return nil, pageerr.FromContext(ctx.Err())
	}
}

// Result returns the outcome. Only meaningful after Done is closed.
func (h *Handle) Result() (any, error) {
	select {
	case <-h.done:
		return h.result, h.err
	default:
		return nil, nil
	}
}

// resolve is called exactly once, without sched.mu held for waiters.
func (h *Handle) resolve(result any, err error) {
	h.result = result
	h.err = err
	close(h.done)
	h.cancel()
}
