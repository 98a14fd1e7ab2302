package jqgrid

import "sync"

// Storage persists grid request parameters (filters, page, sort) across
// requests, keyed by grid name. Implementations back it with whatever
// the host application uses for per-user state.
type Storage interface {
	Exists(name string) bool
	Read(name string) (map[string]string, error)
	Write(name string, params map[string]string) error
	Clear(name string) error
}

// MemoryStorage is the default in-process Storage.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]map[string]string)}
}

func (s *MemoryStorage) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[name]
	return ok
}

func (s *MemoryStorage) Read(name string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.data[name]
	if !ok {
		return map[string]string{}, nil
	}

	out := make(map[string]string, len(stored))
	for k, v := range stored {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStorage) Write(name string, params map[string]string) error {
	stored := make(map[string]string, len(params))
	for k, v := range params {
		stored[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = stored
	return nil
}

func (s *MemoryStorage) Clear(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
	return nil
}
