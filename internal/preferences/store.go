// Package preferences persists the few client settings that must survive restarts.
package preferences

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

type document struct {
	UseMockData *bool `yaml:"use_mock_data,omitempty"`
}

// FileStore keeps preferences in a YAML file. It is safe for concurrent use.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: filepath.Clean(path)}
}

// UseMockData reports the persisted mode. A missing file or key means remote mode.
func (s *FileStore) UseMockData() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return false, err
	}
	if doc.UseMockData == nil {
		return false, nil
	}
	return *doc.UseMockData, nil
}

// SetUseMockData persists the mode, replacing the file atomically.
func (s *FileStore) SetUseMockData(use bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.UseMockData = &use

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create preferences dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace preferences: %w", err)
	}
	return nil
}

func (s *FileStore) read() (*document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse preferences %s: %w", s.path, err)
	}
	return &doc, nil
}

// MemoryStore is an in-process store for tests and ephemeral runs.
type MemoryStore struct {
	mu  sync.Mutex
	use *bool
}

func (m *MemoryStore) UseMockData() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.use != nil && *m.use, nil
}

func (m *MemoryStore) SetUseMockData(use bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.use = &use
	return nil
}
