// Package session holds the current authenticated identity of a client and
// persists it as a single record so it survives restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/TrasheeZZ/dir-browse-serve/internal/auth"
	"github.com/TrasheeZZ/dir-browse-serve/internal/logging"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/models"
)

// ErrMissingCredentials is the validation error for an empty username or
// password.
var ErrMissingCredentials = errors.New("username and password required")

// Record is the persisted form of a session.
type Record struct {
	models.Identity
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// IssueFunc attaches a bearer token to a freshly verified identity.
type IssueFunc func(id *models.Identity) (string, time.Time, error)

// Option configures a Session.
type Option func(*Session)

// WithIssuer makes Login also obtain a token for the identity.
func WithIssuer(issue IssueFunc) Option {
	return func(s *Session) { s.issue = issue }
}

// Session holds at most one current identity.
type Session struct {
	provider auth.Provider
	store    Store
	issue    IssueFunc

	mu      sync.RWMutex
	current *Record
}

// New creates an unauthenticated session. Call Restore to pick up a
// persisted record.
func New(provider auth.Provider, store Store, opts ...Option) *Session {
	s := &Session{provider: provider, store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login verifies the credentials and, on success, makes the identity current
// and persists it. A mismatch returns (false, nil) and leaves the session
// unchanged.
func (s *Session) Login(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, ErrMissingCredentials
	}

	id, err := s.provider.Verify(ctx, username, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("verify credentials: %w", err)
	}

	rec := &Record{Identity: *id}
	if s.issue != nil {
		tok, exp, err := s.issue(id)
		if err != nil {
			return false, fmt.Errorf("issue token: %w", err)
		}
		rec.Token = tok
		rec.ExpiresAt = exp
	}

	s.mu.Lock()
	s.current = rec
	s.mu.Unlock()

	s.persist(rec)
	return true, nil
}

// Logout clears the current identity and the persisted record.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	return s.store.Clear()
}

// Restore loads the persisted record. A missing, unreadable or malformed
// record leaves the session unauthenticated; a malformed one is also
// removed. It reports whether an identity was restored.
func (s *Session) Restore() bool {
	data, err := s.store.Load()
	if err != nil {
		logging.Warn("session record unreadable", zap.Error(err))
		return false
	}
	if data == nil {
		return false
	}

	rec, err := decodeRecord(data)
	if err != nil {
		logging.Debug("discarding malformed session record", zap.Error(err))
		if err := s.store.Clear(); err != nil {
			logging.Warn("failed to remove session record", zap.Error(err))
		}
		return false
	}

	s.mu.Lock()
	s.current = rec
	s.mu.Unlock()
	return true
}

// Update replaces the current identity and persists it. The token, if any,
// is kept.
func (s *Session) Update(id models.Identity) {
	s.mu.Lock()
	rec := &Record{Identity: id}
	if s.current != nil {
		rec.Token = s.current.Token
		rec.ExpiresAt = s.current.ExpiresAt
	}
	s.current = rec
	s.mu.Unlock()

	s.persist(rec)
}

// Current returns a copy of the current identity, or nil.
func (s *Session) Current() *models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	id := s.current.Identity
	return &id
}

// Token returns the bearer token of the current identity, if any.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// IsAuthenticated reports whether an identity is current.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

func (s *Session) persist(rec *Record) {
	data, err := json.Marshal(rec)
	if err != nil {
		logging.Error("encode session record", zap.Error(err))
		return
	}
	if err := s.store.Save(data); err != nil {
		logging.Warn("failed to persist session", zap.Error(err))
	}
}

func decodeRecord(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	if strings.TrimSpace(rec.Username) == "" {
		return nil, errors.New("record has no username")
	}
	if !rec.Role.Valid() {
		return nil, fmt.Errorf("record has invalid role %q", rec.Role)
	}
	return &rec, nil
}
