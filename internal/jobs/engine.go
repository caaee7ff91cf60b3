package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Engine owns a scheduler and its workers.
type Engine struct {
	sched   *Scheduler
	workers []*Worker
	results chan Result
	logger  *slog.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Config configures an Engine.
type Config struct {
	Logger *slog.Logger
	// PrimaryWorkers serve priority >= PrimaryFloor (default 2).
	PrimaryWorkers int
	// SecondaryWorkers serve any priority (default 2, negative for none).
	SecondaryWorkers int
	// JobTimeout bounds each job unless the job sets its own (default 30s).
	JobTimeout time.Duration
	// ResultBuffer sizes the results channel (default 256).
	ResultBuffer int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		PrimaryWorkers:   2,
		SecondaryWorkers: 2,
		JobTimeout:       30 * time.Second,
		ResultBuffer:     256,
	}
}

// NewEngine builds an engine. Call Start to launch the workers.
func NewEngine(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.PrimaryWorkers <= 0 {
		cfg.PrimaryWorkers = def.PrimaryWorkers
	}
	if cfg.SecondaryWorkers < 0 {
		cfg.SecondaryWorkers = 0
	} else if cfg.SecondaryWorkers == 0 {
		cfg.SecondaryWorkers = def.SecondaryWorkers
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = def.JobTimeout
	}
	if cfg.ResultBuffer <= 0 {
		cfg.ResultBuffer = def.ResultBuffer
	}

	e := &Engine{
		sched:   NewScheduler(SchedulerConfig{Logger: logger}),
		results: make(chan Result, cfg.ResultBuffer),
		logger:  logger.With("component", "job_engine"),
	}
	id := 0
	for i := 0; i < cfg.PrimaryWorkers; i++ {
		e.workers = append(e.workers, NewWorker(e.sched, e.results, WorkerConfig{
			ID: id, Primary: true, Timeout: cfg.JobTimeout, Logger: logger,
		}))
		id++
	}
	for i := 0; i < cfg.SecondaryWorkers; i++ {
		e.workers = append(e.workers, NewWorker(e.sched, e.results, WorkerConfig{
			ID: id, Primary: false, Timeout: cfg.JobTimeout, Logger: logger,
		}))
		id++
	}
	return e
}

// Start launches the workers. It returns immediately.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true

	ctx, e.cancel = context.WithCancel(ctx)
	for _, w := range e.workers {
		e.wg.Add(1)
		go func(w *Worker) {
			defer e.wg.Done()
			w.Run(ctx)
		}(w)
	}
	e.logger.Info("job engine started", "workers", len(e.workers))
}

// Submit queues one job, superseding any active job with the same key.
func (e *Engine) Submit(job Job) (*Handle, error) {
	return e.sched.Enqueue(job)
}

// SubmitBatch queues jobs atomically.
func (e *Engine) SubmitBatch(jobs []Job) ([]*Handle, error) {
	if len(jobs) == 0 {
		return nil, nil
	}
	return e.sched.EnqueueBatch(jobs)
}

// Cancel cancels the active job for key.
func (e *Engine) Cancel(key string) bool { return e.sched.Cancel(key) }

// CancelPrefix cancels every active job whose key starts with prefix.
func (e *Engine) CancelPrefix(prefix string) int { return e.sched.CancelByPrefix(prefix) }

// CancelBook cancels all work for a book.
func (e *Engine) CancelBook(book string) int {
	n := 0
	for _, prefix := range BookPrefixes(book) {
		n += e.sched.CancelByPrefix(prefix)
	}
	if n > 0 {
		e.logger.Debug("book jobs cancelled", "book", book, "count", n)
	}
	return n
}

// Active returns the in-flight handle for key.
func (e *Engine) Active(key string) (*Handle, bool) { return e.sched.Active(key) }

// HasJob reports whether key has a queued or running job.
func (e *Engine) HasJob(key string) bool { return e.sched.HasJob(key) }

// Results delivers one Result per finished job. It is never closed.
// Results are dropped when the buffer is full.
func (e *Engine) Results() <-chan Result { return e.results }

// Scheduler exposes the underlying scheduler.
func (e *Engine) Scheduler() *Scheduler { return e.sched }

// EngineStats summarizes the engine.
type EngineStats struct {
	Scheduler SchedulerStats `json:"scheduler"`
	Workers   []WorkerStatus `json:"workers"`
}

// Stats returns scheduler and worker status.
func (e *Engine) Stats() EngineStats {
	stats := EngineStats{Scheduler: e.sched.Stats()}
	for _, w := range e.workers {
		stats.Workers = append(stats.Workers, w.Status())
	}
	return stats
}

// Shutdown cancels all work and waits for workers to exit or ctx to end.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.sched.Close()

	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		e.logger.Info("job engine stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
