// Package cache provides the stores backing the listing query cache.
package cache

import (
	"container/list"
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is an in-process store with LRU eviction and TTL expiration.
// Counters live apart from the entries and are never evicted, a generation must not go back to 0.
type MemoryStore struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	lru      *list.List // front = most recently used
	counters map[string]int64
	maxSize  int

	hits   int64
	misses int64
}

type entry struct {
	key       string
	value     []byte
	expiresAt time.Time // zero = never
}

// nowFunc is mocked in tests.
var nowFunc = time.Now

func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryStore{
		items:    make(map[string]*list.Element, maxSize),
		lru:      list.New(),
		counters: make(map[string]int64),
		maxSize:  maxSize,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.counters[key]; ok {
		return []byte(strconv.FormatInt(n, 10)), true, nil
	}
	elem, ok := s.items[key]
	if !ok {
		s.misses++
		return nil, false, nil
	}
	e := elem.Value.(*entry)
	if !e.expiresAt.IsZero() && nowFunc().After(e.expiresAt) {
		s.remove(elem)
		s.misses++
		return nil, false, nil
	}
	s.lru.MoveToFront(elem)
	s.hits++
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = nowFunc().Add(ttl)
	}
	if elem, ok := s.items[key]; ok {
		e := elem.Value.(*entry)
		e.value, e.expiresAt = value, expiresAt
		s.lru.MoveToFront(elem)
		return nil
	}
	for s.lru.Len() >= s.maxSize {
		s.remove(s.lru.Back())
	}
	s.items[key] = s.lru.PushFront(&entry{key: key, value: value, expiresAt: expiresAt})
	return nil
}

func (s *MemoryStore) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key]++
	return s.counters[key], nil
}

// Len returns the number of cached entries, counters excluded.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// HitRate returns the ratio of Get calls served from the cache.
func (s *MemoryStore) HitRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := s.hits + s.misses
	if total == 0 {
		return 0
	}
	return float64(s.hits) / float64(total)
}

func (s *MemoryStore) remove(elem *list.Element) {
	delete(s.items, elem.Value.(*entry).key)
	s.lru.Remove(elem)
}
