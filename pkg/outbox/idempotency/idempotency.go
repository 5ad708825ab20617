package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store is the subset of the redis client the manager needs.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Manager remembers which outbox rows already reached the broker, so a row
// whose published_at write failed is not sent a second time. Keys follow the
// `sb:idempotency:evt:published:<publisher>:<event_id>` pattern.
type Manager struct {
	store Store
	ttl   time.Duration
}

// NewManager builds a publish guard that holds claims for the given TTL.
func NewManager(store Store, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// Claim returns true when the caller is the first to publish eventID and
// should send it. False means an earlier run already delivered it.
func (m *Manager) Claim(ctx context.Context, publisher string, eventID uuid.UUID) (bool, error) {
	key, err := m.key(publisher, eventID)
	if err != nil {
		return false, err
	}
	return m.store.SetNX(ctx, key, "1", m.ttl)
}

// Release drops a claim after a failed publish so the next attempt can retry.
func (m *Manager) Release(ctx context.Context, publisher string, eventID uuid.UUID) error {
	key, err := m.key(publisher, eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) key(publisher string, eventID uuid.UUID) (string, error) {
	if publisher == "" {
		return "", errors.New("publisher name is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	scope := fmt.Sprintf("evt:published:%s", publisher)
	return m.store.IdempotencyKey(scope, eventID.String()), nil
}
