package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultSessionTTL = 14 * 24 * time.Hour

// Store persists cart state per session.
type Store interface {
	Load(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, sessionID string, state *State) error
	Delete(ctx context.Context, sessionID string) error
}

type sessionBackend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// RedisStore keeps each cart as a JSON document with a sliding TTL.
type RedisStore struct {
	backend sessionBackend
	ttl     time.Duration
}

// NewRedisStore builds a redis-backed cart store.
func NewRedisStore(backend sessionBackend, ttl time.Duration) (*RedisStore, error) {
	if backend == nil {
		return nil, errors.New("redis backend required for cart store")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisStore{backend: backend, ttl: ttl}, nil
}

// Load returns the stored cart or an empty one when the session has none.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (*State, error) {
	raw, err := s.backend.Get(ctx, s.backend.CartKey(sessionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	state := NewState()
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if state.Entries == nil {
		state.Entries = []Entry{}
	}
	return state, nil
}

// Save writes the cart and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, sessionID string, state *State) error {
	if state == nil {
		state = NewState()
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.backend.Set(ctx, s.backend.CartKey(sessionID), string(payload), s.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.backend.Del(ctx, s.backend.CartKey(sessionID)); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
