package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// MemoryStore is a thread-safe LRU store bounded by entry count. Expiry is
// checked lazily on read.
type MemoryStore struct {
	maxEntries int
	clock      clockwork.Clock

	mu      sync.Mutex
	entries map[string]*entry
	tags    map[string]map[string]struct{}
	head    *entry // most recently used
	tail    *entry // least recently used
}

type entry struct {
	key       string
	value     []byte
	tags      []string
	expiresAt time.Time
	prev      *entry
	next      *entry
}

// NewMemoryStore creates an in-memory store holding at most maxEntries.
// A nil clock uses the real clock.
func NewMemoryStore(maxEntries int, clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &MemoryStore{
		maxEntries: maxEntries,
		clock:      clock,
		entries:    make(map[string]*entry),
		tags:       make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !s.clock.Now().Before(e.expiresAt) {
		s.delete(e)
		return nil, false, nil
	}
	s.moveToFront(e)
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[key]; ok {
		s.delete(old)
	}

	e := &entry{
		key:       key,
		value:     value,
		tags:      tags,
		expiresAt: s.clock.Now().Add(ttl),
	}
	s.entries[key] = e
	s.addToFront(e)
	for _, tag := range tags {
		keys, ok := s.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			s.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}

	for len(s.entries) > s.maxEntries {
		s.delete(s.tail)
	}
	return nil
}

func (s *MemoryStore) InvalidateTag(_ context.Context, tag string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := s.tags[tag]
	n := 0
	for key := range keys {
		if e, ok := s.entries[key]; ok {
			s.delete(e)
			n++
		}
	}
	delete(s.tags, tag)
	return n, nil
}

// Len reports the number of entries held, including expired ones not yet read.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// delete unlinks e and drops it from the key and tag indexes.
func (s *MemoryStore) delete(e *entry) {
	delete(s.entries, e.key)
	s.remove(e)
	for _, tag := range e.tags {
		if keys, ok := s.tags[tag]; ok {
			delete(keys, e.key)
			if len(keys) == 0 {
				delete(s.tags, tag)
			}
		}
	}
}

func (s *MemoryStore) moveToFront(e *entry) {
	if e == s.head {
		return
	}
	s.remove(e)
	s.addToFront(e)
}

func (s *MemoryStore) addToFront(e *entry) {
	e.next = s.head
	e.prev = nil
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

func (s *MemoryStore) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
	e.prev, e.next = nil, nil
}
