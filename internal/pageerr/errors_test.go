package pageerr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		code     string
	}{
		{"not found", NotFound(4), ErrNotFound, CodeNotFound},
		{"archive", Archive("bad zip", errors.New("eof")), ErrArchive, CodeArchive},
		{"archive no cause", Archive("bad zip", nil), ErrArchive, CodeArchive},
		{"decode", Decode("not an image", nil), ErrDecode, CodeDecode},
		{"timeout", FromContext(context.DeadlineExceeded), ErrTimeout, CodeTimeout},
		{"cancelled", FromContext(context.Canceled), ErrCancelled, CodeCancelled},
		{"wrapped", fmt.Errorf("load page 3: %w", NotFound(3)), ErrNotFound, CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.sentinel)
			}
			if got := Code(tt.err); got != tt.code {
				t.Errorf("Code() = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(FromContext(context.DeadlineExceeded)) {
		t.Error("timeout should be transient")
	}
	for _, err := range []error{NotFound(1), Archive("x", nil), Decode("x", nil), FromContext(context.Canceled)} {
		if IsTransient(err) {
			t.Errorf("%v should not be transient", err)
		}
	}
}

func TestToInfo(t *testing.T) {
	info := ToInfo(FromContext(context.DeadlineExceeded))
	if info.Code != CodeTimeout || !info.Retryable {
		t.Errorf("unexpected info: %+v", info)
	}
	if got := ToInfo(errors.New("boom")).Code; got != CodeInternal {
		t.Errorf("Code = %q, want %q", got, CodeInternal)
	}
	if got := ToInfo(nil); got != (Info{}) {
		t.Errorf("ToInfo(nil) = %+v", got)
	}
}
