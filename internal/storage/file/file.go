// file — реализация storage.Storage поверх JSON-файла.
//
// Всё содержимое держится в памяти и целиком сбрасывается на диск при каждой
// записи: временный файл в том же каталоге + rename, права 0600 (в файле лежат
// токены сессии). Объём данных мал (пара токенов и кэш представлений),
// поэтому полная перезапись дешевле, чем журнал.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pribylovaa/scan-console/internal/storage"
)

// Storage — файловое хранилище.
type Storage struct {
	path string

	mu   sync.RWMutex
	data map[string]string
}

// New открывает (или создаёт при первой записи) файл по path.
// Каталог создаётся сразу, чтобы ошибки прав всплыли на старте.
func New(path string) (*Storage, error) {
	const op = "storage/file/New"

	if path == "" {
		return nil, fmt.Errorf("%s: empty path", op)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &Storage{path: path, data: make(map[string]string)}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(raw) == 0 {
		return s, nil
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("%s: decode %q: %w", op, path, err)
	}

	if s.data == nil {
		s.data = make(map[string]string)
	}

	return s, nil
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
	defer s.mu.Unlock()

	prev, had := s.data[key]
	s.data[key] = value

	if err := s.flushLocked(); err != nil {
		// Откат, чтобы память не разошлась с диском.
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}

		return err
	}

	return nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[key]
	if !had {
		return nil
	}

	delete(s.data, key)

	if err := s.flushLocked(); err != nil {
		s.data[key] = prev
		return err
	}

	return nil
}

func (s *Storage) Close() error { return nil }

// flushLocked атомарно перезаписывает файл. Вызывать под s.mu.
func (s *Storage) flushLocked() error {
	const op = "storage/file/flush"

	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tmpName := tmp.Name()

	cleanup := func() { _ = os.Remove(tmpName) }

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

var _ storage.Storage = (*Storage)(nil)
