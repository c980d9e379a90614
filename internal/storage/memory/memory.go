// memory — in-process реализация storage.Storage.
package memory

import (
	"context"
	"sync"

	"github.com/pribylovaa/scan-console/internal/storage"
)

// Storage хранит значения в map под мьютексом.
type Storage struct {
	mu   sync.RWMutex
	data map[string]string
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{data: make(map[string]string)}
}

func (s *Storage) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}

	return v, nil
}

func (s *Storage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()

	return nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()

	return nil
}

func (s *Storage) Close() error { return nil }

var _ storage.Storage = (*Storage)(nil)
