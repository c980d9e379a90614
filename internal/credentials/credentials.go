// credentials — хранилище учётных данных сессии консоли.
//
// Единственный владелец пары access/refresh-токенов: остальные компоненты
// читают и меняют их только через Store. Данные лежат в storage.Storage
// под фиксированными ключами, поэтому переживают перезапуск процесса,
// если выбран долговременный бэкенд.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/scan-console/internal/storage"
	"github.com/pribylovaa/scan-console/pkg/log"
)

// Kind — вид учётных данных. Значение совпадает с ключом в хранилище.
type Kind string

const (
	// Access — короткоживущий bearer-токен для вызовов API.
	Access Kind = "authToken"
	// Refresh — долгоживущий токен для обмена на новый access.
	Refresh Kind = "refreshToken"
)

// forceLogoutKey — сообщение, которое оболочка показывает после принудительного выхода.
const forceLogoutKey = "forceLogoutMsg"

// Store — хранилище учётных данных.
type Store struct {
	st storage.Storage
}

// New создаёт Store поверх st.
func New(st storage.Storage) *Store {
	return &Store{st: st}
}

// Get возвращает значение учётных данных kind и признак наличия.
// Никогда не возвращает ошибку: сбой хранилища логируется и трактуется как отсутствие.
func (s *Store) Get(ctx context.Context, kind Kind) (string, bool) {
	return s.get(ctx, string(kind))
}

// Set сохраняет value, перезаписывая предыдущее значение того же вида.
// Пустое value эквивалентно Clear.
func (s *Store) Set(ctx context.Context, kind Kind, value string) error {
	if value == "" {
		return s.Clear(ctx, kind)
	}

	if err := s.st.Set(ctx, string(kind), value); err != nil {
		return fmt.Errorf("credentials: set %s: %w", kind, err)
	}

	return nil
}

// Clear удаляет учётные данные kind.
func (s *Store) Clear(ctx context.Context, kind Kind) error {
	if err := s.st.Delete(ctx, string(kind)); err != nil {
		return fmt.Errorf("credentials: clear %s: %w", kind, err)
	}

	return nil
}

// AccessToken — сокращение для Get(ctx, Access); удовлетворяет
// интерфейсу источника токена в исходящих интерсепторах.
func (s *Store) AccessToken(ctx context.Context) (string, bool) {
	return s.Get(ctx, Access)
}

// SetPair сохраняет пару, выданную при логине. Пустой refresh удаляет старый.
func (s *Store) SetPair(ctx context.Context, access, refresh string) error {
	if err := s.Set(ctx, Access, access); err != nil {
		return err
	}

	return s.Set(ctx, Refresh, refresh)
}

// ClearAll удаляет access и refresh. Пытается удалить оба даже при ошибке первого.
func (s *Store) ClearAll(ctx context.Context) error {
	return errors.Join(s.Clear(ctx, Access), s.Clear(ctx, Refresh))
}

// ForceLogoutMessage возвращает сохранённое уведомление о принудительном выходе.
func (s *Store) ForceLogoutMessage(ctx context.Context) (string, bool) {
	return s.get(ctx, forceLogoutKey)
}

// SetForceLogoutMessage сохраняет уведомление о принудительном выходе.
func (s *Store) SetForceLogoutMessage(ctx context.Context, msg string) error {
	if err := s.st.Set(ctx, forceLogoutKey, msg); err != nil {
		return fmt.Errorf("credentials: set %s: %w", forceLogoutKey, err)
	}

	return nil
}

// ClearForceLogoutMessage удаляет уведомление (пользователь его увидел или вошёл заново).
func (s *Store) ClearForceLogoutMessage(ctx context.Context) error {
	if err := s.st.Delete(ctx, forceLogoutKey); err != nil {
		return fmt.Errorf("credentials: clear %s: %w", forceLogoutKey, err)
	}

	return nil
}

func (s *Store) get(ctx context.Context, key string) (string, bool) {
	v, err := s.st.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.From(ctx).Warn("credentials_read_failed",
				slog.String("key", key),
				slog.String("err", err.Error()),
			)
		}

		return "", false
	}

	return v, v != ""
}
