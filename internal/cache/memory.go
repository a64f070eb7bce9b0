package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Values are held JSON-encoded so a
// reader never aliases what a writer stored.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Key]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[Key]memoryEntry),
		now:     time.Now,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key Key, dest any) (bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || entry.expired(s.now()) {
		return false, nil
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key Key, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

// Invalidate implements Store.
func (s *MemoryStore) Invalidate(_ context.Context, keys ...Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

// Name identifies the store in cache metrics.
func (s *MemoryStore) Name() string { return "memory" }

// Len returns the number of entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Cleanup removes expired entries.
func (s *MemoryStore) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
		}
	}
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (s *MemoryStore) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Ensure MemoryStore implements Store interface.
var _ Store = (*MemoryStore)(nil)
