package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/marks/internal/auth"
	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Store persists provider sessions and PKCE verifiers in Redis.
// It satisfies auth.Store.
type Store struct {
	client redis.UniversalClient
}

var _ auth.Store = (*Store)(nil)

// NewStore creates a new Redis store
func NewStore(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

// LoadSession returns the stored session of sid, or auth.ErrNoSession
func (s *Store) LoadSession(ctx context.Context, sid string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, SessionKey(sid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, auth.ErrNoSession
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// SaveSession stores the session of sid for ttl
func (s *Store) SaveSession(ctx context.Context, sid string, session *domain.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, SessionKey(sid), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// DeleteSession removes the session of sid; a missing session is not an error
func (s *Store) DeleteSession(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, SessionKey(sid)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SaveVerifier stores the PKCE verifier of a pending sign-in
func (s *Store) SaveVerifier(ctx context.Context, sid, verifier string, ttl time.Duration) error {
	if err := s.client.Set(ctx, VerifierKey(sid), verifier, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save verifier: %w", err)
	}
	return nil
}

// TakeVerifier atomically reads and removes the pending verifier.
// It returns "" when none is pending.
func (s *Store) TakeVerifier(ctx context.Context, sid string) (string, error) {
	v, err := s.client.GetDel(ctx, VerifierKey(sid)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to take verifier: %w", err)
	}
	return v, nil
}
