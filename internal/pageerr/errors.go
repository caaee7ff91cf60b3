// Package pageerr defines the error kinds surfaced by page loading.
//
// Every error produced by the loading pipeline wraps exactly one of the
// sentinel errors below, so callers branch with errors.Is rather than by
// inspecting messages.
package pageerr

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a page index does not exist in the book.
	ErrNotFound = errors.New("page not found")

	// ErrArchive is returned when the container (archive, directory, pdf) could not be read.
	ErrArchive = errors.New("archive error")

	// ErrDecode is returned when page bytes are not a decodable image.
	ErrDecode = errors.New("decode error")

	// ErrCancelled is returned when a load was superseded or cancelled.
	// It is never shown to a user: something newer is already on its way.
	ErrCancelled = errors.New("cancelled")

	// ErrMemoryPressure is advisory and travels as an event, not a call error.
	ErrMemoryPressure = errors.New("memory pressure")

	// ErrTimeout is returned when a load exceeds its per-job deadline.
	ErrTimeout = errors.New("timeout")
)

// Stable codes used on the wire.
const (
	CodeNotFound       = "NOT_FOUND"
	CodeArchive        = "ARCHIVE_ERROR"
	CodeDecode         = "DECODE_ERROR"
	CodeCancelled      = "CANCELLED"
	CodeMemoryPressure = "MEMORY_PRESSURE"
	CodeTimeout        = "TIMEOUT"
	CodeInternal       = "INTERNAL"
)

// NotFound reports a missing page index.
func NotFound(index int) error {
	return fmt.Errorf("%w: index %d", ErrNotFound, index)
}

// Archive wraps a reader failure.
func Archive(msg string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrArchive, msg)
	}
	return fmt.Errorf("%w: %s: %w", ErrArchive, msg, err)
}

// Decode wraps a decoder failure.
func Decode(msg string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrDecode, msg)
	}
	return fmt.Errorf("%w: %s: %w", ErrDecode, msg, err)
}

// FromContext maps a context error onto the matching kind.
// DeadlineExceeded becomes Timeout, everything else Cancelled.
func FromContext(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}

// IsTransient reports whether err is worth retrying. Only timeouts are.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCancelled reports whether err means the request was superseded.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// Code returns the stable code for err.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCancelled):
		return CodeCancelled
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrArchive):
		return CodeArchive
	case errors.Is(err, ErrDecode):
		return CodeDecode
	case errors.Is(err, ErrMemoryPressure):
		return CodeMemoryPressure
	default:
		return CodeInternal
	}
}

// Info is the serializable form of an error returned to clients.
type Info struct {
	Code      string `json:"code" yaml:"code"`
	Message   string `json:"message" yaml:"message"`
	Retryable bool   `json:"retryable" yaml:"retryable"`
}

// ToInfo converts err to its wire form.
func ToInfo(err error) Info {
	if err == nil {
		return Info{}
	}
	return Info{
		Code:      Code(err),
		Message:   err.Error(),
		Retryable: IsTransient(err),
	}
}
