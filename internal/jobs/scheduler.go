package jobs

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/folio/internal/pageerr"
)

var (
	// ErrInvalidJob is returned for a job without a key or executor.
	ErrInvalidJob = errors.New("invalid job")

	// ErrSchedulerClosed is returned when submitting after Close.
	ErrSchedulerClosed = errors.New("scheduler closed")
)

// Scheduler is a priority queue of cancellable jobs plus the table of
// active jobs per key. Both live behind one mutex.
type Scheduler struct {
	mu     sync.Mutex
	queue  jobHeap
	active map[string]*Handle
	seq    uint64
	// wake is closed and replaced on every enqueue so every waiting worker
	// re-checks the queue against its own floor.
	wake   chan struct{}
	closed bool

	base context.Context
	stop context.CancelFunc

	completed uint64
	failed    uint64
	cancelled uint64

	logger *slog.Logger
}

// SchedulerConfig configures a new scheduler.
type SchedulerConfig struct {
	Logger *slog.Logger
}

// NewScheduler creates an empty scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	base, stop := context.WithCancel(context.Background())
	s := &Scheduler{
		queue:  make(jobHeap, 0),
		active: make(map[string]*Handle),
		wake:   make(chan struct{}),
		base:   base,
		stop:   stop,
		logger: logger.With("component", "scheduler"),
	}
	heap.Init(&s.queue)
	return s
}

// Enqueue submits one job. An active job with the same key is cancelled
// before the new one is queued.
func (s *Scheduler) Enqueue(job Job) (*Handle, error) {
	if err := job.validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSchedulerClosed
	}
	h, superseded := s.enqueueLocked(job)
	s.broadcastLocked()
	s.mu.Unlock()

	s.resolveCancelled(superseded)
	return h, nil
}

// EnqueueBatch submits jobs under a single lock acquisition. Handles are
// returned in submission order, and equal-priority jobs keep that order.
func (s *Scheduler) EnqueueBatch(jobs []Job) ([]*Handle, error) {
	for _, job := range jobs {
		if err := job.validate(); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSchedulerClosed
	}
	handles := make([]*Handle, 0, len(jobs))
	var superseded []*Handle
	for _, job := range jobs {
		h, prev := s.enqueueLocked(job)
		handles = append(handles, h)
		superseded = append(superseded, prev...)
	}
	s.broadcastLocked()
	s.mu.Unlock()

	s.resolveCancelled(superseded)
	return handles, nil
}

// enqueueLocked cancels any active job for the key, then queues job.
// Returns handles that were dequeued by the cancellation and still need
// resolving outside the lock.
func (s *Scheduler) enqueueLocked(job Job) (*Handle, []*Handle) {
	var superseded []*Handle
	if prev, ok := s.active[job.Key]; ok {
		if s.cancelLocked(prev) {
			superseded = append(superseded, prev)
		}
		s.logger.Debug("job superseded", "key", job.Key, "prev_seq", prev.seq)
	}

	s.seq++
	ctx, cancel := context.WithCancel(s.base)
	h := &Handle{
		id:        uuid.New().String(),
		job:       job,
		seq:       s.seq,
		sched:     s,
		ctx:       ctx,
		cancel:    cancel,
		status:    StatusQueued,
		submitted: time.Now(),
		done:      make(chan struct{}),
	}
	heap.Push(&s.queue, h)
	s.active[job.Key] = h
	return h, superseded
}

// cancelLocked sets the cancellation signal and drops h from the active
// table. A queued handle is removed from the queue and reported true so
// the caller resolves it; a running handle is resolved by its worker.
func (s *Scheduler) cancelLocked(h *Handle) bool {
	if h.status.IsTerminal() {
		return false
	}
	h.cancel()
	if s.active[h.job.Key] == h {
		delete(s.active, h.job.Key)
	}
	if h.status != StatusQueued {
		return false
	}
	if h.index >= 0 {
		heap.Remove(&s.queue, h.index)
	}
	h.status = StatusCancelled
	s.cancelled++
	return true
}

func (s *Scheduler) resolveCancelled(handles []*Handle) {
	for _, h := range handles {
		h.resolve(nil, fmt.Errorf("%w: %s", pageerr.ErrCancelled, h.job.Key))
	}
}

func (s *Scheduler) broadcastLocked() {
	close(s.wake)
	s.wake = make(chan struct{})
}

// Dequeue pops the highest priority job at or above minPriority. It blocks
// until one is available, ctx is done, or the scheduler is closed.
func (s *Scheduler) Dequeue(ctx context.Context, minPriority Priority) (*Handle, bool) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, false
		}
		if head := s.queue.peek(); head != nil && head.job.Priority >= minPriority {
			h := heap.Pop(&s.queue).(*Handle)
			h.status = StatusRunning
			h.started = time.Now()
			s.mu.Unlock()
			return h, true
		}
		wake := s.wake
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, false
		case <-wake:
			// Something was queued; loop to check it against our floor
		}
	}
}

// TryDequeue is Dequeue without blocking.
func (s *Scheduler) TryDequeue(minPriority Priority) (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if head := s.queue.peek(); head != nil && head.job.Priority >= minPriority {
		h := heap.Pop(&s.queue).(*Handle)
		h.status = StatusRunning
		h.started = time.Now()
		return h, true
	}
	return nil, false
}

// Complete records the outcome of a running job and resolves its handle.
// A job whose signal was set is reported cancelled whatever it returned.
func (s *Scheduler) Complete(h *Handle, result any, err error) Status {
	s.mu.Lock()
	if h.status.IsTerminal() {
		s.mu.Unlock()
		return h.status
	}
	if s.active[h.job.Key] == h {
		delete(s.active, h.job.Key)
	}
	switch {
	case h.ctx.Err() != nil:
		h.status = StatusCancelled
		result = nil
		if !pageerr.IsCancelled(err) {
			err = fmt.Errorf("%w: %s", pageerr.ErrCancelled, h.job.Key)
		}
		s.cancelled++
	case err != nil:
		h.status = StatusFailed
		s.failed++
	default:
		h.status = StatusCompleted
		s.completed++
	}
	status := h.status
	s.mu.Unlock()

	h.resolve(result, err)
	return status
}

// Cancel cancels the active job for key.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	h, ok := s.active[key]
	var queued bool
	if ok {
		queued = s.cancelLocked(h)
	}
	s.mu.Unlock()

	if queued {
		s.resolveCancelled([]*Handle{h})
	}
	return ok
}

func (s *Scheduler) cancelHandle(h *Handle) bool {
	s.mu.Lock()
	if h.status.IsTerminal() {
		s.mu.Unlock()
		return false
	}
	queued := s.cancelLocked(h)
	s.mu.Unlock()

	if queued {
		s.resolveCancelled([]*Handle{h})
	}
	return true
}

// CancelByPrefix cancels every active job whose key starts with prefix.
// Returns how many were cancelled.
func (s *Scheduler) CancelByPrefix(prefix string) int {
	return s.cancelWhere(func(key string) bool { return strings.HasPrefix(key, prefix) })
}

// CancelAll cancels every active job.
func (s *Scheduler) CancelAll() int {
	return s.cancelWhere(func(string) bool { return true })
}

func (s *Scheduler) cancelWhere(match func(key string) bool) int {
	s.mu.Lock()
	var queued []*Handle
	n := 0
	for key, h := range s.active {
		if !match(key) {
			continue
		}
		n++
		if s.cancelLocked(h) {
			queued = append(queued, h)
		}
	}
	s.mu.Unlock()

	s.resolveCancelled(queued)
	if n > 0 {
		s.logger.Debug("jobs cancelled", "count", n)
	}
	return n
}

// Active returns the queued or running handle for key.
func (s *Scheduler) Active(key string) (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.active[key]
	return h, ok
}

// HasJob reports whether key has a queued or running job.
func (s *Scheduler) HasJob(key string) bool {
	_, ok := s.Active(key)
	return ok
}

// Close cancels everything and wakes all waiting workers.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	var queued []*Handle
	for _, h := range s.active {
		if s.cancelLocked(h) {
			queued = append(queued, h)
		}
	}
	s.closed = true
	s.stop()
	close(s.wake)
	s.mu.Unlock()

	s.resolveCancelled(queued)
}

// SchedulerStats is a point-in-time snapshot.
type SchedulerStats struct {
	Queue     QueueStats `json:"queue"`
	Active    int        `json:"active"`
	Running   int        `json:"running"`
	Sequence  uint64     `json:"sequence"`
	Completed uint64     `json:"completed"`
	Failed    uint64     `json:"failed"`
	Cancelled uint64     `json:"cancelled"`
}

// Stats returns queue and lifecycle counters.
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	running := 0
	for _, h := range s.active {
		if h.status == StatusRunning {
			running++
		}
	}
	return SchedulerStats{
		Queue:     s.queue.stats(),
		Active:    len(s.active),
		Running:   running,
		Sequence:  s.seq,
		Completed: s.completed,
		Failed:    s.failed,
		Cancelled: s.cancelled,
	}
}
