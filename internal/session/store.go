package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/TrasheeZZ/dir-browse-serve/pkg/models"
)

// Store persists the single serialized session record. Load returns
// (nil, nil) when nothing has been saved.
type Store interface {
	Load() ([]byte, error)
	Save(data []byte) error
	Clear() error
}

// FileStore keeps the record in <dir>/file-index-user.json.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir. The directory is created on
// first Save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns the record file location.
func (f *FileStore) Path() string {
	return filepath.Join(f.dir, models.SessionKey+".json")
}

// Load implements Store.
func (f *FileStore) Load() ([]byte, error) {
	data, err := os.ReadFile(f.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	return data, nil
}

// Save implements Store. The record is written atomically (temp file then
// rename) and readable only by the owner.
func (f *FileStore) Save(data []byte) error {
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := f.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, f.Path()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename session: %w", err)
	}
	return nil
}

// Clear implements Store.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// MemoryStore keeps the record in memory.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

// Load implements Store.
func (m *MemoryStore) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}

// Save implements Store.
func (m *MemoryStore) Save(data []byte) error {
	m.mu.Lock()
	m.data = append([]byte(nil), data...)
	m.mu.Unlock()
	return nil
}

// Clear implements Store.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.data = nil
	m.mu.Unlock()
	return nil
}
