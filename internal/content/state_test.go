package content

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackzampolin/folio/internal/frame"
)

func TestStateStore_RoundTrip(t *testing.T) {
	store := NewStateStore(filepath.Join(t.TempDir(), "state", "last.yaml"))

	ctx := frame.DefaultContext()
	ctx.PageMode = frame.DoublePage
	ctx.StretchMode = frame.StretchFill
	in := State{Path: "/books/a.cbz", Position: frame.Position{Index: 7, Part: 1}, Context: ctx}
	if err := store.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.Path != in.Path || out.Position != in.Position || out.Context != in.Context {
		t.Errorf("loaded %+v, want %+v", out, in)
	}
	if out.SavedAt.IsZero() {
		t.Error("saved_at not set")
	}
}

func TestStateStore_Missing(t *testing.T) {
	store := NewStateStore(filepath.Join(t.TempDir(), "none.yaml"))
	if _, err := store.Load(); !errors.Is(err, ErrNoState) {
		t.Errorf("err = %v, want ErrNoState", err)
	}
}

func TestStateStore_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing path", "position: {index: 1}\ncontext: {}\n"},
		{"negative index", "path: /a\nposition: {index: -1}\ncontext: {}\n"},
		{"bad part", "path: /a\nposition: {index: 0, part: 2}\ncontext: {}\n"},
		{"bad page mode", "path: /a\nposition: {index: 0}\ncontext: {page_mode: triple, divide_page_rate: 1}\n"},
		{"zero rate", "path: /a\nposition: {index: 0}\ncontext: {divide_page_rate: 0}\n"},
		{"not yaml", "path: [unterminated\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "last.yaml")
			if err := os.WriteFile(p, []byte(tt.doc), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := NewStateStore(p).Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrNoState) || strings.TrimSpace(err.Error()) == "" {
				t.Errorf("err = %v", err)
			}
		})
	}
}
