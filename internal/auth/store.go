package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// ErrNoSession is returned by a Store when a browser has no persisted session.
var ErrNoSession = errors.New("no session")

// Store persists provider sessions and pending PKCE verifiers per browser.
type Store interface {
	LoadSession(ctx context.Context, sid string) (*domain.Session, error)
	SaveSession(ctx context.Context, sid string, s *domain.Session, ttl time.Duration) error
	DeleteSession(ctx context.Context, sid string) error

	SaveVerifier(ctx context.Context, sid, verifier string, ttl time.Duration) error
	// TakeVerifier returns and removes the verifier; "" when none is pending.
	TakeVerifier(ctx context.Context, sid string) (string, error)
}

// MemoryStore keeps sessions in process memory.
// It is used when Redis is not configured, and in tests.
type MemoryStore struct {
	mu        sync.Mutex
	now       func() time.Time
	sessions  map[string]memoryEntry[domain.Session]
	verifiers map[string]memoryEntry[string]
}

type memoryEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e memoryEntry[T]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:       time.Now,
		sessions:  make(map[string]memoryEntry[domain.Session]),
		verifiers: make(map[string]memoryEntry[string]),
	}
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func (m *MemoryStore) LoadSession(_ context.Context, sid string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[sid]
	if !ok || e.expired(m.now()) {
		delete(m.sessions, sid)
		return nil, ErrNoSession
	}
	s := e.value
	return &s, nil
}

func (m *MemoryStore) SaveSession(_ context.Context, sid string, s *domain.Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sid] = memoryEntry[domain.Session]{value: *s, expiresAt: expiry(m.now(), ttl)}
	return nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sid)
	return nil
}

func (m *MemoryStore) SaveVerifier(_ context.Context, sid, verifier string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.verifiers[sid] = memoryEntry[string]{value: verifier, expiresAt: expiry(m.now(), ttl)}
	return nil
}

func (m *MemoryStore) TakeVerifier(_ context.Context, sid string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.verifiers[sid]
	delete(m.verifiers, sid)
	if !ok || e.expired(m.now()) {
		return "", nil
	}
	return e.value, nil
}
