package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/folio/internal/frame"
)

// ErrNoState is returned by Load when nothing has been saved yet.
var ErrNoState = errors.New("no saved state")

// State is the resumable reading state.
type State struct {
	Path     string         `json:"path" yaml:"path"`
	Position frame.Position `json:"position" yaml:"position"`
	Context  frame.Context  `json:"context" yaml:"context"`
	SavedAt  time.Time      `json:"saved_at" yaml:"saved_at"`
}

const stateSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["path", "position", "context"],
  "properties": {
    "path": {"type": "string", "minLength": 1},
    "position": {
      "type": "object",
      "required": ["index"],
      "properties": {
        "index": {"type": "integer", "minimum": 0},
        "part": {"type": "integer", "minimum": 0, "maximum": 1}
      }
    },
    "context": {
      "type": "object",
      "properties": {
        "page_mode": {"enum": ["single", "double"]},
        "read_order": {"enum": ["ltr", "rtl"]},
        "divide_page_rate": {"type": "number", "exclusiveMinimum": 0},
        "auto_rotate": {"enum": ["none", "left", "right", "auto"]},
        "stretch_mode": {"enum": ["none", "uniform", "uniform_to_fill", "uniform_to_vertical", "uniform_to_horizontal", "fill"]},
        "wide_page_stretch": {"enum": ["none", "uniform_height", "uniform_width"]}
      }
    }
  }
}`

var (
	stateSchemaOnce sync.Once
	stateSchemaC    *jsonschema.Schema
	stateSchemaErr  error
)

func compiledStateSchema() (*jsonschema.Schema, error) {
	stateSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("state.json", strings.NewReader(stateSchema)); err != nil {
			stateSchemaErr = err
			return
		}
		stateSchemaC, stateSchemaErr = c.Compile("state.json")
	})
	return stateSchemaC, stateSchemaErr
}

// StateStore persists State as YAML in one file.
type StateStore struct {
	mu   sync.Mutex
	path string
}

// NewStateStore stores state at path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Path returns the state file location.
func (s *StateStore) Path() string { return s.path }

// Save writes st atomically.
func (s *StateStore) Save(st State) error {
	if st.SavedAt.IsZero() {
		st.SavedAt = time.Now().UTC()
	}
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Load reads and validates the saved state.
func (s *StateStore) Load() (State, error) {
	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	s.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return State{}, ErrNoState
	}
	if err != nil {
		return State{}, fmt.Errorf("failed to read state: %w", err)
	}
	if err := validateState(data); err != nil {
		return State{}, err
	}

	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("failed to decode state: %w", err)
	}
	if err := st.Context.Validate(); err != nil {
		return State{}, fmt.Errorf("invalid saved context: %w", err)
	}
	return st, nil
}

// validateState checks raw YAML against the state schema.
func validateState(data []byte) error {
	schema, err := compiledStateSchema()
	if err != nil {
		return fmt.Errorf("state schema: %w", err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse state: %w", err)
	}
	// round trip through JSON so the validator sees JSON types
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to convert state: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("failed to convert state: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("invalid state: %w", err)
	}
	return nil
}

// Snapshot captures the reading state of the open book.
func (m *Manager) Snapshot() (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.book == nil {
		return State{}, ErrNoBook
	}
	return m.snapshotLocked(), nil
}

func (m *Manager) snapshotLocked() State {
	return State{
		Path:     m.book.Path,
		Position: m.position,
		Context:  m.layout,
		SavedAt:  time.Now().UTC(),
	}
}

// StateStore returns where snapshots are kept, or nil.
func (m *Manager) StateStore() *StateStore { return m.cfg.State }

// SaveState writes the current snapshot to the configured store.
func (m *Manager) SaveState() error {
	if m.cfg.State == nil {
		return nil
	}
	st, err := m.Snapshot()
	if err != nil {
		return err
	}
	return m.cfg.State.Save(st)
}

// Restore reopens st's book when it is not already open, applies its
// layout and returns to its position.
func (m *Manager) Restore(ctx context.Context, st State) (FrameInfo, error) {
	if !m.currentBook(st.Path) {
		if _, err := m.OpenBook(ctx, st.Path); err != nil {
			return FrameInfo{}, err
		}
	}
	if _, err := m.SetContext(st.Context); err != nil {
		return FrameInfo{}, err
	}
	info, err := m.GotoPosition(st.Position)
	if err != nil {
		m.logger.Warn("saved position no longer exists", "book", st.Path, "position", st.Position, "error", err)
		return m.FirstFrame()
	}
	return info, nil
}
