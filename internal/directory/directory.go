// Package directory is the admin-managed list of user accounts.
//
// It is seeded independently of the login credential table and the two are
// not synchronized: accounts added here cannot log in.
package directory

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/TrasheeZZ/dir-browse-serve/internal/metrics"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/models"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrMissingFields = errors.New("username and password required")
	ErrInvalidRole   = errors.New("invalid role")
)

type entry struct {
	account models.Account
	hash    []byte
}

// Directory holds accounts in insertion order.
type Directory struct {
	mu      sync.RWMutex
	entries []entry
	cost    int
}

// New creates a directory with the default seed. cost is the bcrypt cost for
// new passwords (bcrypt.DefaultCost when 0).
func New(cost int) *Directory {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	d := &Directory{cost: cost}
	for _, a := range Seed() {
		d.entries = append(d.entries, entry{account: a})
	}
	return d
}

// Seed returns the initial accounts.
func Seed() []models.Account {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	return []models.Account{
		{ID: "1", Username: "admin", Role: models.RoleAdmin, CreatedAt: day(1)},
		{ID: "2", Username: "user", Role: models.RoleUser, CreatedAt: day(2)},
		{ID: "3", Username: "john_doe", Role: models.RoleUser, CreatedAt: day(3)},
		{ID: "4", Username: "jane_smith", Role: models.RoleAdmin, CreatedAt: day(4)},
	}
}

// List returns a snapshot of all accounts.
func (d *Directory) List() []models.Account {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.Account, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.account
	}
	return out
}

// Get returns the account with id.
func (d *Directory) Get(id string) (models.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i := d.index(id); i >= 0 {
		return d.entries[i].account, nil
	}
	return models.Account{}, ErrNotFound
}

// Add creates an account. An empty role means USER.
func (d *Directory) Add(username, password string, role models.Role) (models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.Account{}, ErrMissingFields
	}
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return models.Account{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}

	a := models.Account{
		ID:        newID(),
		Username:  username,
		Role:      role,
		CreatedAt: time.Now().UTC().Truncate(24 * time.Hour),
	}

	d.mu.Lock()
	d.entries = append(d.entries[:len(d.entries):len(d.entries)], entry{account: a, hash: hash})
	d.mu.Unlock()

	metrics.RecordDirectoryOperation("add")
	return a, nil
}

// Update replaces the username and role of an account. An empty role keeps
// the current one.
func (d *Directory) Update(id, username string, role models.Role) (models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.Account{}, ErrMissingFields
	}
	if role != "" && !role.Valid() {
		return models.Account{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.index(id)
	if i < 0 {
		return models.Account{}, ErrNotFound
	}

	next := make([]entry, len(d.entries))
	copy(next, d.entries)
	next[i].account.Username = username
	if role != "" {
		next[i].account.Role = role
	}
	d.entries = next

	metrics.RecordDirectoryOperation("update")
	return next[i].account, nil
}

// Remove deletes an account and returns it.
func (d *Directory) Remove(id string) (models.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.index(id)
	if i < 0 {
		return models.Account{}, ErrNotFound
	}
	removed := d.entries[i].account

	next := make([]entry, 0, len(d.entries)-1)
	next = append(next, d.entries[:i]...)
	next = append(next, d.entries[i+1:]...)
	d.entries = next

	metrics.RecordDirectoryOperation("remove")
	return removed, nil
}

func (d *Directory) index(id string) int {
	for i, e := range d.entries {
		if e.account.ID == id {
			return i
		}
	}
	return -1
}

// newID returns a 9-character base36 token drawn from a random UUID.
func newID() string {
	u := uuid.New()
	n := binary.BigEndian.Uint64(u[:8]) >> 18 // 46 bits < 36^9
	s := strconv.FormatUint(n, 36)
	return strings.Repeat("0", 9-len(s)) + s
}
