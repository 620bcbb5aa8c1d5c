package crm

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// sessionEntry maps an opaque id to the user it was issued for
type sessionEntry struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// MemorySessionStore is the default SessionStore: opaque random ids mapped to
// user ids, expired lazily on resolve and on a periodic sweep triggered by
// writes. Only the user id is stored; role and account are re-derived on
// every request.
type MemorySessionStore struct {
	mu      sync.Mutex
	entries map[string]sessionEntry
	ttl     time.Duration
	now     func() time.Time
}

type MemorySessionStoreOption func(*MemorySessionStore)

// WithSessionClock injects a custom clock (useful for tests).
func WithSessionClock(clock func() time.Time) MemorySessionStoreOption {
	return func(s *MemorySessionStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewMemorySessionStore creates a store with the given session TTL
func NewMemorySessionStore(ttl time.Duration, opts ...MemorySessionStoreOption) *MemorySessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	s := &MemorySessionStore{
		entries: map[string]sessionEntry{},
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

var _ SessionStore = (*MemorySessionStore)(nil)

// Issue creates a new opaque session id for the user
func (s *MemorySessionStore) Issue(_ context.Context, userID uuid.UUID) (string, error) {
	id, err := randomSessionID()
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate session id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	s.entries[id] = sessionEntry{
		userID:    userID,
		expiresAt: s.now().Add(s.ttl),
	}

	return id, nil
}

// Resolve returns the user id behind a session, or ErrUnauthenticated for
// unknown and expired ids alike.
func (s *MemorySessionStore) Resolve(_ context.Context, sessionID string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[sessionID]
	if !ok {
		return uuid.Nil, ErrUnauthenticated
	}

	if s.now().After(entry.expiresAt) {
		delete(s.entries, sessionID)
		return uuid.Nil, ErrUnauthenticated
	}

	return entry.userID, nil
}

// Revoke drops a session, missing ids are not an error
func (s *MemorySessionStore) Revoke(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

func (s *MemorySessionStore) sweepLocked() {
	now := s.now()
	for id, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, id)
		}
	}
}

func randomSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
