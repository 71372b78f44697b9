package session

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity bounds the number of chats kept in memory.
const DefaultCapacity = 10000

// MemoryStore is a bounded in-process Store. The least recently used chat is
// evicted once capacity is reached.
type MemoryStore struct {
	cache *lru.Cache[int64, *Session]
	now   func() time.Time
}

// NewMemoryStore builds a MemoryStore; capacity <= 0 selects DefaultCapacity.
func NewMemoryStore(capacity int) (*MemoryStore, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	cache, err := lru.New[int64, *Session](capacity)
	if err != nil {
		return nil, fmt.Errorf("session: memory store: %w", err)
	}
	return &MemoryStore{cache: cache, now: time.Now}, nil
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, chatID int64) (*Session, bool, error) {
	sess, ok := m.cache.Get(chatID)
	if !ok {
		return nil, false, nil
	}
	return sess.Clone(), true, nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, sess *Session) error {
	if sess == nil {
		return fmt.Errorf("session: nil session")
	}
	cp := sess.Clone()
	cp.UpdatedAt = m.now()
	m.cache.Add(cp.ChatID, cp)
	return nil
}

// Clear implements Store.
func (m *MemoryStore) Clear(_ context.Context, chatID int64) error {
	m.cache.Remove(chatID)
	return nil
}

// Len returns the number of cached chats.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

// Prune implements Pruner.
func (m *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	for _, key := range m.cache.Keys() {
		sess, ok := m.cache.Peek(key)
		if !ok {
			continue
		}
		if sess.UpdatedAt.Before(cutoff) {
			if m.cache.Remove(key) {
				removed++
			}
		}
	}
	return removed, nil
}
