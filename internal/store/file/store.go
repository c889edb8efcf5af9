// internal/store/file/store.go
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
	"github.com/shrimpsizemoose/kardemumma/internal/store"
)

// FileStore keeps the document as pretty-printed JSON on disk. A single mutex
// serializes Apply, and saves go through a temp file + rename so a crashed
// write never leaves a torn document behind.
type FileStore struct {
	mu   sync.Mutex
	path string
	data []byte // last committed snapshot
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		data = []byte(store.EmptyDocument)
		if err := writeAtomic(path, data); err != nil {
			return nil, fmt.Errorf("failed to seed document: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	s := &FileStore{path: path, data: data}
	if _, err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Close() error {
	return nil
}

// ApplyMigrations is a no-op: the JSON backend has no schema.
func (s *FileStore) ApplyMigrations(dir string) error {
	return nil
}

// Load decodes a fresh copy of the last committed snapshot, so callers can
// never reach the store's own state through it.
func (s *FileStore) Load() (*models.Database, error) {
	s.mu.Lock()
	data := s.data
	s.mu.Unlock()

	var db models.Database
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &db, nil
}

func (s *FileStore) Apply(mutate func(*models.Database) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var db models.Database
	if err := json.Unmarshal(s.data, &db); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}

	if err := mutate(&db); err != nil {
		return err
	}

	db.Version++
	data, err := json.MarshalIndent(&db, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	s.data = data

	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
