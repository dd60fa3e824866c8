// Package repository holds the in-memory item collection behind the file
// index. The collection is ordered by insertion; listings preserve that order.
package repository

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TrasheeZZ/dir-browse-serve/internal/metrics"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/models"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/tree"
)

var (
	// ErrNotFound is returned when no item has the requested id.
	ErrNotFound = errors.New("item not found")
	// ErrFolderNotFound is returned when adding under a path that is
	// neither the root nor a folder.
	ErrFolderNotFound = errors.New("folder not found")
)

// Repository is an ordered, in-memory item collection. Every mutation
// replaces the backing slice, so slices handed out earlier stay valid.
type Repository struct {
	mu    sync.RWMutex
	items []models.Item
	seed  []models.Item
}

// New creates a repository holding a copy of seed. Reset restores it.
func New(seed []models.Item) *Repository {
	r := &Repository{
		seed: append([]models.Item(nil), seed...),
	}
	r.items = append([]models.Item(nil), seed...)
	metrics.SetItems(len(r.items))
	return r
}

// List returns the direct children of path.
func (r *Repository) List(path string) []models.Item {
	r.mu.RLock()
	items := r.items
	r.mu.RUnlock()
	return tree.ChildrenOf(items, path)
}

// Get looks an item up by id.
func (r *Repository) Get(id string) (models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if item.ID == id {
			return item, nil
		}
	}
	return models.Item{}, ErrNotFound
}

// Add appends items to the end of the collection. parent must be the root
// or a folder at the time of the append, otherwise ErrFolderNotFound is
// returned and nothing is added. Paths are not checked for uniqueness.
func (r *Repository) Add(parent string, items ...models.Item) error {
	r.mu.Lock()
	if !r.isFolder(parent) {
		r.mu.Unlock()
		return ErrFolderNotFound
	}
	if len(items) == 0 {
		r.mu.Unlock()
		return nil
	}
	next := make([]models.Item, 0, len(r.items)+len(items))
	next = append(next, r.items...)
	next = append(next, items...)
	r.items = next
	n := len(next)
	r.mu.Unlock()
	metrics.SetItems(n)
	return nil
}

// isFolder must be called with r.mu held.
func (r *Repository) isFolder(path string) bool {
	if path == "/" || path == "" {
		return true
	}
	for _, item := range r.items {
		if item.Path == path {
			return item.IsDir()
		}
	}
	return false
}

// Remove deletes the item with the given id and returns it. Children of a
// removed folder are left in place and remain listable by path.
func (r *Repository) Remove(id string) (models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, item := range r.items {
		if item.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Item{}, ErrNotFound
	}

	removed := r.items[idx]
	next := make([]models.Item, 0, len(r.items)-1)
	next = append(next, r.items[:idx]...)
	next = append(next, r.items[idx+1:]...)
	r.items = next
	metrics.SetItems(len(next))
	return removed, nil
}

// Reset restores the seed collection.
func (r *Repository) Reset() {
	r.mu.Lock()
	r.items = append([]models.Item(nil), r.seed...)
	n := len(r.items)
	r.mu.Unlock()
	metrics.SetItems(n)
}

// Len returns the number of items.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// NewFile builds a file item placed under parent.
func NewFile(parent, name string, size int64, modified time.Time) models.Item {
	return models.Item{
		ID:           uuid.NewString(),
		Name:         name,
		Kind:         models.KindFile,
		Size:         size,
		LastModified: modified,
		Path:         tree.ChildPath(parent, name),
		Extension:    tree.Extension(name),
	}
}

// NewFolder builds a folder item placed under parent.
func NewFolder(parent, name string, modified time.Time) models.Item {
	return models.Item{
		ID:           uuid.NewString(),
		Name:         name,
		Kind:         models.KindFolder,
		LastModified: modified,
		Path:         tree.ChildPath(parent, name),
	}
}
