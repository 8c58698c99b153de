package funnel

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Store holds per-visitor funnel state: start markers, new-user flags and
// handoff values that outlive a single page view. Keys are namespaced by
// visitor id; a zero TTL means the entry does not expire.
type Store interface {
	Get(ctx context.Context, visitorID, key string) (string, bool, error)
	Set(ctx context.Context, visitorID, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, visitorID, key string) error
}

func storeKey(visitorID, key string) string {
	return "funnel:" + visitorID + ":" + key
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is the in-process Store, used when no Redis backend is
// configured and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}}
}

func (s *MemoryStore) Get(_ context.Context, visitorID, key string) (string, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[storeKey(visitorID, key)]
	s.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, storeKey(visitorID, key))
		s.mu.Unlock()
		return "", false, nil
	}
	return entry.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, visitorID, key, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[storeKey(visitorID, key)] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, visitorID, key string) error {
	s.mu.Lock()
	delete(s.entries, storeKey(visitorID, key))
	s.mu.Unlock()
	return nil
}

// Len reports the number of live entries for a visitor.
func (s *MemoryStore) Len(visitorID string) int {
	prefix := storeKey(visitorID, "")
	now := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for key, entry := range s.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			continue
		}
		count++
	}
	return count
}
