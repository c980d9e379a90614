// redis — реализация storage.Storage поверх Redis.
// Ключи хранятся как обычные строки под общим префиксом, без TTL:
// время жизни учётных данных определяет бэкенд, а не хранилище.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pribylovaa/scan-console/internal/storage"
)

// DefaultPrefix используется, если префикс не задан.
const DefaultPrefix = "console:"

// Storage — адаптер go-redis.
type Storage struct {
	rdb    *goredis.Client
	prefix string
}

// New создаёт клиент Redis из URL (например, redis://:pass@host:6379/0)
// и выполняет fail-fast Ping.
func New(ctx context.Context, redisURL, prefix string) (*Storage, error) {
	const op = "storage/redis/New"

	if prefix == "" {
		prefix = DefaultPrefix
	}

	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := goredis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &Storage{rdb: rdb, prefix: prefix}, nil
}

func (s *Storage) key(k string) string { return s.prefix + k }

func (s *Storage) Get(ctx context.Context, key string) (string, error) {
	const op = "storage/redis/Get"

	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", storage.ErrNotFound
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return v, nil
}

func (s *Storage) Set(ctx context.Context, key, value string) error {
	const op = "storage/redis/Set"

	if err := s.rdb.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	const op = "storage/redis/Delete"

	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Close() error { return s.rdb.Close() }

var _ storage.Storage = (*Storage)(nil)
