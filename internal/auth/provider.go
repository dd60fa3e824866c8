// Package auth verifies credentials and issues the signed session tokens
// that carry an identity between requests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/TrasheeZZ/dir-browse-serve/pkg/models"
)

// ErrInvalidCredentials is returned when no credential matches.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Provider verifies a username and secret and returns the matching identity.
// Implementations never return the secret.
type Provider interface {
	Verify(ctx context.Context, username, secret string) (*models.Identity, error)
}

// Credential is one row of a credential table.
type Credential struct {
	ID        string
	Username  string
	Password  string
	Role      models.Role
	CreatedAt time.Time
}

func (c Credential) identity() *models.Identity {
	return &models.Identity{
		ID:        c.ID,
		Username:  c.Username,
		Role:      c.Role,
		CreatedAt: c.CreatedAt,
	}
}

// DefaultCredentials returns the built-in demo accounts.
func DefaultCredentials() []Credential {
	now := time.Now().UTC()
	return []Credential{
		{ID: "1", Username: "admin", Password: "admin123", Role: models.RoleAdmin, CreatedAt: now},
		{ID: "2", Username: "user", Password: "user123", Role: models.RoleUser, CreatedAt: now},
	}
}

// StaticProvider compares plaintext passwords against a fixed table.
type StaticProvider struct {
	creds []Credential
}

// NewStaticProvider creates a provider over creds.
func NewStaticProvider(creds []Credential) *StaticProvider {
	return &StaticProvider{creds: append([]Credential(nil), creds...)}
}

// Verify implements Provider with exact username and password matching.
func (p *StaticProvider) Verify(_ context.Context, username, secret string) (*models.Identity, error) {
	for _, c := range p.creds {
		if c.Username == username && c.Password == secret {
			return c.identity(), nil
		}
	}
	return nil, ErrInvalidCredentials
}

// HashedProvider keeps bcrypt hashes instead of plaintext passwords.
type HashedProvider struct {
	creds  []Credential
	hashes map[string][]byte
}

// NewHashedProvider hashes every password of creds with the given bcrypt
// cost (bcrypt.DefaultCost when cost is 0).
func NewHashedProvider(creds []Credential, cost int) (*HashedProvider, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	p := &HashedProvider{hashes: make(map[string][]byte)}
	for _, c := range creds {
		hashed, err := bcrypt.GenerateFromPassword([]byte(c.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", c.Username, err)
		}
		p.hashes[c.Username] = hashed
		c.Password = ""
		p.creds = append(p.creds, c)
	}
	return p, nil
}

// Verify implements Provider.
func (p *HashedProvider) Verify(_ context.Context, username, secret string) (*models.Identity, error) {
	hashed, ok := p.hashes[username]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hashed, []byte(secret)); err != nil {
		return nil, ErrInvalidCredentials
	}
	for _, c := range p.creds {
		if c.Username == username {
			return c.identity(), nil
		}
	}
	return nil, ErrInvalidCredentials
}
