package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity is the number of roots a MemoryStore keeps
const DefaultCapacity = 4

// MemoryStore is a small in-process LRU of entries keyed by root
type MemoryStore struct {
	entries *lru.Cache[string, *Entry]
}

// NewMemoryStore creates an LRU store holding at most capacity roots
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	// only fails for a non-positive size
	entries, _ := lru.New[string, *Entry](capacity)
	return &MemoryStore{entries: entries}
}

// Load returns the entry for root and marks it most recently used
func (s *MemoryStore) Load(ctx context.Context, root string) (*Entry, error) {
	entry, ok := s.entries.Get(root)
	if !ok {
		return nil, ErrMiss
	}
	return entry, nil
}

// Save stores entry, evicting the least recently used root when full
func (s *MemoryStore) Save(ctx context.Context, entry *Entry) error {
	s.entries.Add(entry.Root, entry)
	return nil
}

// Delete removes the entry for root
func (s *MemoryStore) Delete(ctx context.Context, root string) error {
	s.entries.Remove(root)
	return nil
}

// Clear removes every entry
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.entries.Purge()
	return nil
}

// Len returns the number of cached roots
func (s *MemoryStore) Len() int {
	return s.entries.Len()
}

// Close does nothing
func (s *MemoryStore) Close() error {
	return nil
}
