package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store persists state between runs.
type Store interface {
	// Load returns the persisted state, or an empty state when none exists.
	Load(ctx context.Context) (*State, error)
	// Save persists s.
	Save(ctx context.Context, s *State) error
}

// Decode parses a Singer state document. Both the bare document and a
// STATE message's value are accepted.
func Decode(data []byte) (*State, error) {
	s := New()
	if len(data) == 0 {
		return s, nil
	}

	var envelope struct {
		Type  string              `json:"type"`
		Value jsoniter.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Type == "STATE" && len(envelope.Value) > 0 {
		data = envelope.Value
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if s.Bookmarks == nil {
		s.Bookmarks = map[string]Bookmark{}
	}
	return s, nil
}

// FileStore keeps state in a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the state file location.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the state file. A missing file yields an empty state.
func (f *FileStore) Load(ctx context.Context) (*State, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		stateErrors.WithLabelValues("file", "load").Inc()
		return nil, fmt.Errorf("read state file: %w", err)
	}
	s, err := Decode(data)
	if err != nil {
		stateErrors.WithLabelValues("file", "load").Inc()
		return nil, err
	}
	return s, nil
}

// Save writes the state file atomically via rename.
func (f *FileStore) Save(ctx context.Context, s *State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		stateErrors.WithLabelValues("file", "save").Inc()
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".state-*.json")
	if err != nil {
		stateErrors.WithLabelValues("file", "save").Inc()
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		stateErrors.WithLabelValues("file", "save").Inc()
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		stateErrors.WithLabelValues("file", "save").Inc()
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		stateErrors.WithLabelValues("file", "save").Inc()
		return fmt.Errorf("replace state file: %w", err)
	}

	stateSaves.WithLabelValues("file").Inc()
	stateSize.WithLabelValues("file").Set(float64(len(data)))
	return nil
}

// MemoryStore keeps state in memory; used when no state file is configured.
type MemoryStore struct {
	state *State
}

// NewMemoryStore creates a store seeded with initial (may be nil).
func NewMemoryStore(initial *State) *MemoryStore {
	return &MemoryStore{state: initial.Clone()}
}

// Load returns a copy of the held state.
func (m *MemoryStore) Load(ctx context.Context) (*State, error) {
	return m.state.Clone(), nil
}

// Save replaces the held state with a copy of s.
func (m *MemoryStore) Save(ctx context.Context, s *State) error {
	m.state = s.Clone()
	stateSaves.WithLabelValues("memory").Inc()
	return nil
}
