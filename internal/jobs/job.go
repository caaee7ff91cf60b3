// Package jobs schedules cancellable page-loading work by priority.
//
// A Scheduler holds one priority queue plus a table of active jobs keyed
// for dedup. Workers pull from it in a loop. The Engine owns both and is
// what the rest of the program talks to.
package jobs

import (
	"context"
	"fmt"
	"time"
)

// Priority orders work. Higher values are served first.
type Priority int

// Defined priorities. 0-9 is reserved for background maintenance, which
// only secondary workers drain.
const (
	PriorityThumbnail   Priority = 10
	PriorityPreload     Priority = 50
	PriorityCurrentPage Priority = 90
	PriorityUrgent      Priority = 100
)

// MaintenanceCeiling is the highest priority in the reserved background range.
const MaintenanceCeiling Priority = 9

func (p Priority) String() string {
	switch p {
	case PriorityThumbnail:
		return "thumbnail"
	case PriorityPreload:
		return "preload"
	case PriorityCurrentPage:
		return "current_page"
	case PriorityUrgent:
		return "urgent"
	}
	if p >= 0 && p <= MaintenanceCeiling {
		return fmt.Sprintf("maintenance(%d)", int(p))
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// Category groups jobs by what they produce.
type Category string

const (
	CategoryPageContent Category = "page_content"
	CategoryThumbnail   Category = "thumbnail"
	CategoryArchiveScan Category = "archive_scan"
)

// Status is the lifecycle state of one submission.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Executor does the work. It must watch ctx at every I/O or decode
// boundary and return early once ctx is done.
type Executor func(ctx context.Context) (any, error)

// Job is one schedulable unit. At most one job per Key is active at a time.
type Job struct {
	Key      string
	Priority Priority
	Category Category
	// Timeout overrides the worker default when positive.
	Timeout time.Duration
	Execute Executor
}

func (j Job) validate() error {
	if j.Key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidJob)
	}
	if j.Execute == nil {
		return fmt.Errorf("%w: nil executor for %s", ErrInvalidJob, j.Key)
	}
	return nil
}

// Result reports one finished submission on the engine results channel.
type Result struct {
	ID       string        `json:"id"`
	Key      string        `json:"key"`
	Category Category      `json:"category"`
	Priority Priority      `json:"priority"`
	Status   Status        `json:"status"`
	Worker   int           `json:"worker"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// PageKey is the dedup key for loading one page of a book.
func PageKey(book string, index int) string {
	return fmt.Sprintf("page:%s:%d", book, index)
}

// ThumbKey is the dedup key for one page thumbnail at a given longest edge.
func ThumbKey(book string, index, edge int) string {
	return fmt.Sprintf("thumb:%s:%d@%d", book, index, edge)
}

// PagePrefix matches every page load of book.
func PagePrefix(book string) string { return "page:" + book + ":" }

// ThumbPrefix matches every thumbnail of book.
func ThumbPrefix(book string) string { return "thumb:" + book + ":" }

// BookPrefixes returns every key prefix that belongs to book.
func BookPrefixes(book string) []string {
	return []string{PagePrefix(book), ThumbPrefix(book), ScanKey(book)}
}

// ScanKey is the dedup key for a background scan of a book.
func ScanKey(book string) string {
	return "scan:" + book + ":"
}
