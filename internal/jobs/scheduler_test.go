package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackzampolin/folio/internal/pageerr"
)

func noop(context.Context) (any, error) { return nil, nil }

// mustEnqueue is a test helper that fails the test if Enqueue fails
func mustEnqueue(t *testing.T, s *Scheduler, job Job) *Handle {
	t.Helper()
	h, err := s.Enqueue(job)
	if err != nil {
		t.Fatalf("Enqueue(%s) failed: %v", job.Key, err)
	}
	return h
}

func TestScheduler_PriorityOrder(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	defer s.Close()

	prios := []Priority{PriorityPreload, PriorityThumbnail, PriorityUrgent, 3, PriorityCurrentPage}
	for i, p := range prios {
		mustEnqueue(t, s, Job{Key: fmt.Sprintf("k%d", i), Priority: p, Execute: noop})
	}

	last := Priority(1 << 30)
	for range prios {
		h, ok := s.TryDequeue(0)
		if !ok {
			t.Fatal("queue drained early")
		}
		if h.Priority() > last {
			t.Errorf("dequeued %v after %v", h.Priority(), last)
		}
		last = h.Priority()
	}
	if _, ok := s.TryDequeue(0); ok {
		t.Error("expected empty queue")
	}
}

func TestScheduler_FIFOWithinPriority(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	defer s.Close()

	handles, err := s.EnqueueBatch([]Job{
		{Key: "first", Priority: PriorityPreload, Execute: noop},
		{Key: "second", Priority: PriorityPreload, Execute: noop},
		{Key: "third", Priority: PriorityPreload, Execute: noop},
	})
	if err != nil {
		t.Fatalf("EnqueueBatch: %v", err)
	}
	if len(handles) != 3 {
		t.Fatalf("got %d handles, want 3", len(handles))
	}

	for _, want := range []string{"first", "second", "third"} {
		h, _ := s.TryDequeue(0)
		if h.Key() != want {
			t.Errorf("expected %q, got %q", want, h.Key())
		}
	}
}

func TestScheduler_HighPriorityJumpsQueue(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	defer s.Close()

	for i := 0; i < 20; i++ {
		mustEnqueue(t, s, Job{Key: fmt.Sprintf("preload-%d", i), Priority: PriorityPreload, Execute: noop})
	}
	mustEnqueue(t, s, Job{Key: "current", Priority: PriorityCurrentPage, Execute: noop})

	h, _ := s.TryDequeue(0)
	if h.Key() != "current" {
		t.Errorf("expected current page first, got %q", h.Key())
	}
}

func TestScheduler_DedupReplace(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	defer s.Close()

	first := mustEnqueue(t, s, Job{Key: "page:b:1", Priority: PriorityPreload, Execute: noop})
	second := mustEnqueue(t, s, Job{Key: "page:b:1", Priority: PriorityCurrentPage, Execute: noop})

	if !first.Cancelled() {
		t.Error("first job should be cancelled")
	}
	select {
	case <-first.Done():
	default:
		t.Fatal("queued superseded job should resolve immediately")
	}
	if _, err := first.Result(); !errors.Is(err, pageerr.ErrCancelled) {
		t.Errorf("first err = %v, want ErrCancelled", err)
	}
	if first.Status() != StatusCancelled {
		t.Errorf("first status = %s", first.Status())
	}

	if got := s.Stats().Queue.Total; got != 1 {
		t.Errorf("queue size = %d, want 1", got)
	}
	active, ok := s.Active("page:b:1")
	if !ok || active != second {
		t.Error("second job should be the active one")
	}

	h, _ := s.TryDequeue(0)
	if h != second || h.Priority() != PriorityCurrentPage {
		t.Error("dequeued job should be the replacement at its new priority")
	}
}

func TestScheduler_DedupCancelsRunning(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	defer s.Close()

	first := mustEnqueue(t, s, Job{Key: "k", Priority: PriorityPreload, Execute: noop})
	running, _ := s.TryDequeue(0)
	if running != first {
		t.Fatal("expected first job running")
	}

	second := mustEnqueue(t, s, Job{Key: "k", Priority: PriorityPreload, Execute: noop})
	if !first.Cancelled() {
		t.Fatal("running job should see its cancellation signal")
	}

	// the stale completion must not evict the replacement from the table
	if status := s.Complete(first, "stale", nil); status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", status)
	}
	if v, err := first.Result(); v != nil || !errors.Is(err, pageerr.ErrCancelled) {
		t.Errorf("result = %v %v", v, err)
	}
	if h, ok := s.Active("k"); !ok || h != second {
		t.Error("replacement should still be active")
	}
}

func TestScheduler_DequeueRespectsFloor(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	defer s.Close()

	mustEnqueue(t, s, Job{Key: "maint", Priority: 5, Execute: noop})

	if _, ok := s.TryDequeue(PrimaryFloor); ok {
		t.Fatal("primary floor must not take maintenance work")
	}
	if h, ok := s.TryDequeue(SecondaryFloor); !ok || h.Key() != "maint" {
		t.Fatal("secondary floor should take maintenance work")
	}
}

func TestScheduler_DequeueBlocksUntilEnqueue(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	defer s.Close()

	got := make(chan *Handle, 1)
	go func() {
		h, _ := s.Dequeue(context.Background(), 0)
		got <- h
	}()

	select {
	case <-got:
		t.Fatal("Dequeue returned on an empty queue")
	case <-time.After(20 * time.Millisecond):
	}

	mustEnqueue(t, s, Job{Key: "late", Priority: PriorityPreload, Execute: noop})
	select {
	case h := <-got:
		if h == nil || h.Key() != "late" {
			t.Errorf("unexpected handle %v", h)
		}
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not wake")
	}
}

func TestScheduler_DequeueContextCancel(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() {
		_, ok := s.Dequeue(ctx, 0)
		done <- ok
	}()
	cancel()

	select {
	case ok := <-done:
		if ok {
			t.Error("expected no job")
		}
	case <-time.After(time.Second):
		t.Fatal("Dequeue ignored ctx")
	}
}

func TestScheduler_CancelByPrefix(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	defer s.Close()

	a := mustEnqueue(t, s, Job{Key: PageKey("/books/a", 1), Priority: PriorityPreload, Execute: noop})
	b := mustEnqueue(t, s, Job{Key: PageKey("/books/a", 2), Priority: PriorityPreload, Execute: noop})
	other := mustEnqueue(t, s, Job{Key: PageKey("/books/ab", 1), Priority: PriorityPreload, Execute: noop})

	if n := s.CancelByPrefix("page:/books/a:"); n != 2 {
		t.Errorf("cancelled %d, want 2", n)
	}
	if !a.Cancelled() || !b.Cancelled() {
		t.Error("book a jobs should be cancelled")
	}
	if other.Cancelled() {
		t.Error("book ab must not match book a's prefix")
	}
	if got := s.Stats().Queue.Total; got != 1 {
		t.Errorf("queue size = %d, want 1", got)
	}
}

func TestScheduler_InvalidAndClosed(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	if _, err := s.Enqueue(Job{Key: "", Execute: noop}); !errors.Is(err, ErrInvalidJob) {
		t.Errorf("err = %v, want ErrInvalidJob", err)
	}
	if _, err := s.Enqueue(Job{Key: "k"}); !errors.Is(err, ErrInvalidJob) {
		t.Errorf("err = %v, want ErrInvalidJob", err)
	}

	queued := mustEnqueue(t, s, Job{Key: "k", Priority: PriorityPreload, Execute: noop})
	s.Close()
	if !queued.Cancelled() {
		t.Error("Close should cancel queued jobs")
	}
	if _, err := s.Enqueue(Job{Key: "k", Execute: noop}); !errors.Is(err, ErrSchedulerClosed) {
		t.Errorf("err = %v, want ErrSchedulerClosed", err)
	}
	if _, ok := s.Dequeue(context.Background(), 0); ok {
		t.Error("closed scheduler should not hand out work")
	}
}
