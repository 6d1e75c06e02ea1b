package cache

import (
	"context"
	"sync"
	"time"
)

// CacheItem represents a cached item with expiration
type CacheItem struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired checks if the cache item has expired
func (c *CacheItem) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// MemoryStore is a thread-safe in-process key/value store with per-item TTL
type MemoryStore struct {
	mu         sync.RWMutex
	items      map[string]*CacheItem
	defaultTTL time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewMemoryStore creates a store whose janitor sweeps expired items every cleanupInterval
func NewMemoryStore(defaultTTL, cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		items:      make(map[string]*CacheItem),
		defaultTTL: defaultTTL,
		stop:       make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go s.cleanup(cleanupInterval)
	}

	return s
}

func (s *MemoryStore) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.DeleteExpired()
		case <-s.stop:
			return
		}
	}
}

// DeleteExpired removes every expired item
func (s *MemoryStore) DeleteExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, item := range s.items {
		if item.IsExpired() {
			delete(s.items, key)
		}
	}
}

// Get retrieves an item. Expired items read as misses.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	item, exists := s.items[key]
	s.mu.RUnlock()

	if !exists || item.IsExpired() {
		return nil, false, nil
	}
	return item.Data, true, nil
}

// Set stores an item. A non-positive ttl uses the store default.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	data := make([]byte, len(value))
	copy(data, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = &CacheItem{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes an item from the store
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}

// Clear removes all items
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]*CacheItem)
}

// Size returns the number of items, expired ones included
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

// Stats returns cache statistics
func (s *MemoryStore) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totalItems := len(s.items)
	expiredItems := 0
	for _, item := range s.items {
		if item.IsExpired() {
			expiredItems++
		}
	}

	return map[string]interface{}{
		"backend":             "memory",
		"total_items":         totalItems,
		"expired_items":       expiredItems,
		"active_items":        totalItems - expiredItems,
		"default_ttl_seconds": s.defaultTTL.Seconds(),
	}
}

// Close stops the janitor
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}
