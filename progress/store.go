package progress

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store loads and saves the whole progress record.
type Store interface {
	Load() (Record, error)
	Save(Record) error
}

// FileStore keeps the record as a YAML document on disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load() (Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Empty(), fmt.Errorf("%w: %s", ErrNoProgress, s.path)
	}
	if err != nil {
		return Empty(), fmt.Errorf("unable to read progress: %w", err)
	}
	var r Record
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Empty(), fmt.Errorf("unable to decode progress %s: %w", s.path, err)
	}
	r.normalize()
	return r, nil
}

// Save replaces the file with r. The record is written to a temporary file in
// the same directory and renamed over the old one so readers never see half of it.
func (s *FileStore) Save(r Record) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("unable to encode progress: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("unable to create progress dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+"-*")
	if err != nil {
		return fmt.Errorf("unable to create progress file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to write progress: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to sync progress: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to close progress: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("unable to replace progress: %w", err)
	}
	return nil
}

// MemoryStore keeps the record in memory. It's used by tests and ephemeral runs.
type MemoryStore struct {
	mu    sync.Mutex
	rec   *Record
	saves int
	// Err, when set, is returned by every Save.
	Err error
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load() (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return Empty(), ErrNoProgress
	}
	return m.rec.Clone(), nil
}

func (m *MemoryStore) Save(r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	c := r.Clone()
	m.rec = &c
	m.saves++
	return nil
}

// Saves returns how many times the record was saved.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
