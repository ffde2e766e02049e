package form

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"jobportal-cv/pkg/utils"
)

// UpdateFunc derives the next session from the stored one
type UpdateFunc func(current *Session) (*Session, error)

// Store persists sessions. Update must be atomic with respect to other
// updates of the same session.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create stores a copy of s
func (m *MemoryStore) Create(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.ID]; exists {
		return fmt.Errorf("form session %s already exists", s.ID)
	}
	m.sessions[s.ID] = s.Clone()
	return nil
}

// Get returns a copy of the session
func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

// Update applies fn while holding the store lock
func (m *MemoryStore) Update(ctx context.Context, id string, fn UpdateFunc) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	next, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}

	m.sessions[id] = next.Clone()
	return next, nil
}

// Delete removes the session; deleting an unknown session is not an error
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Sweep drops expired sessions and returns how many were removed
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// lookup must be called with m.mu held
func (m *MemoryStore) lookup(id string) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.Expired(m.now()) {
		delete(m.sessions, id)
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// RedisStore keeps sessions in Redis with a TTL, using watched transactions
// for updates
type RedisStore struct {
	redis *utils.RedisClient
	ttl   time.Duration
}

// NewRedisStore creates a Redis-backed store
func NewRedisStore(client *utils.RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: client, ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("form:session:%s", id)
}

// Create stores s
func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	return r.redis.SetJSON(ctx, sessionKey(s.ID), s, r.ttl)
}

// Get loads a session
func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	var s Session
	if err := r.redis.GetJSON(ctx, sessionKey(id), &s); err != nil {
		if errors.Is(err, utils.ErrKeyNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Update runs fn inside a watched transaction. A concurrent writer surfaces
// as ErrVersionConflict.
func (r *RedisStore) Update(ctx context.Context, id string, fn UpdateFunc) (*Session, error) {
	var next *Session
	err := r.redis.UpdateJSON(ctx, sessionKey(id), r.ttl, func(current []byte) (interface{}, error) {
		if current == nil {
			return nil, ErrSessionNotFound
		}
		var s Session
		if err := json.Unmarshal(current, &s); err != nil {
			return nil, fmt.Errorf("failed to decode form session %s: %w", id, err)
		}
		updated, err := fn(&s)
		if err != nil {
			return nil, err
		}
		next = updated
		return updated, nil
	})
	if err != nil {
		if errors.Is(err, utils.ErrConcurrentUpdate) {
			return nil, ErrVersionConflict
		}
		return nil, err
	}
	return next, nil
}

// Delete removes a session
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.redis.Delete(ctx, sessionKey(id))
}
