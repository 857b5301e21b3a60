package cache

import "sync"

// MemStore is an in-memory Store. It backs tests and tools that want cache
// semantics without touching the shared directory.
type MemStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string][]byte)}
}

// Read returns the entry's bytes, or (nil, false, nil) when absent.
func (s *MemStore) Read(name string) ([]byte, bool, error) {
	if err := validateName(name); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	data, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

// Write stores a copy of data under name, overwriting any prior entry.
func (s *MemStore) Write(name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.mu.Lock()
	s.entries[name] = cp
	s.mu.Unlock()
	return nil
}

// Delete removes the entry. Idempotent - no error on miss.
func (s *MemStore) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.entries, name)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored entries.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure MemStore implements Store
var _ Store = (*MemStore)(nil)
