// viewstate — кэш состояния экранов консоли (страница, фильтры, вкладки).
// Состояние — непрозрачный для шлюза JSON; хранится в том же storage.Storage,
// что и учётные данные, под префиксом "view:".
package viewstate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/pribylovaa/scan-console/internal/storage"
)

const keyPrefix = "view:"

var (
	ErrInvalidName  = errors.New("invalid view name")
	ErrInvalidState = errors.New("view state must be valid json")
	ErrTooLarge     = errors.New("view state too large")
	ErrNotFound     = errors.New("view state not found")
)

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,64}$`)

// Cache — кэш состояния экранов.
type Cache struct {
	st       storage.Storage
	maxBytes int
}

// New создаёт кэш; maxBytes <= 0 снимает ограничение размера.
func New(st storage.Storage, maxBytes int) *Cache {
	return &Cache{st: st, maxBytes: maxBytes}
}

// Get возвращает сохранённое состояние экрана name.
func (c *Cache) Get(ctx context.Context, name string) (json.RawMessage, error) {
	const op = "viewstate/Get"

	if !nameRe.MatchString(name) {
		return nil, ErrInvalidName
	}

	v, err := c.st.Get(ctx, keyPrefix+name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return json.RawMessage(v), nil
}

// Put сохраняет состояние экрана name, перезаписывая прежнее.
func (c *Cache) Put(ctx context.Context, name string, state []byte) error {
	const op = "viewstate/Put"

	if !nameRe.MatchString(name) {
		return ErrInvalidName
	}

	if c.maxBytes > 0 && len(state) > c.maxBytes {
		return ErrTooLarge
	}

	state = bytes.TrimSpace(state)
	if len(state) == 0 || !json.Valid(state) {
		return ErrInvalidState
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, state); err != nil {
		return ErrInvalidState
	}

	if err := c.st.Set(ctx, keyPrefix+name, compact.String()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Delete сбрасывает состояние экрана name.
func (c *Cache) Delete(ctx context.Context, name string) error {
	const op = "viewstate/Delete"

	if !nameRe.MatchString(name) {
		return ErrInvalidName
	}

	if err := c.st.Delete(ctx, keyPrefix+name); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
