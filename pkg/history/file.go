package history

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileStore persists history state as a YAML document on disk.
// A missing file loads as empty state, so first runs need no setup.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed history store at the given path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the history state from disk
func (s *FileStore) Load(ctx context.Context) (State, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return State{Cumulative: map[string]int{}, LastWeekly: map[string]string{}}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("failed to read history file: %w", err)
	}

	var state State
	if err := yaml.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("failed to parse history file: %w", err)
	}
	if state.Cumulative == nil {
		state.Cumulative = map[string]int{}
	}
	if state.LastWeekly == nil {
		state.LastWeekly = map[string]string{}
	}
	return state, nil
}

// Save writes the history state to disk, replacing the previous document
func (s *FileStore) Save(ctx context.Context, state State) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal history state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}
