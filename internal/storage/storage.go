// storage описывает контракт key/value-хранилища шлюза — серверный аналог
// браузерного localStorage: учётные данные сессии, уведомление о принудительном
// выходе и кэш состояния представлений живут здесь.
//
// Реализации:
//   - file   — JSON-файл на диске, переживает перезапуск процесса (по умолчанию);
//   - redis  — общий Redis (несколько экземпляров шлюза за балансировщиком);
//   - memory — процессная память (тесты, эфемерный запуск).
package storage

import (
	"context"
	"errors"
)

// ErrNotFound — ключ отсутствует в хранилище.
var ErrNotFound = errors.New("not found")

// Storage — минимальный контракт key/value-хранилища.
// Реализации обязаны быть безопасны для конкурентного использования.
type Storage interface {
	// Get возвращает значение по ключу или ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set сохраняет значение, перезаписывая предыдущее.
	Set(ctx context.Context, key, value string) error
	// Delete удаляет ключ; отсутствие ключа ошибкой не считается.
	Delete(ctx context.Context, key string) error
	// Close освобождает ресурсы хранилища.
	Close() error
}
