// archive — контракт архива сгенерированных отчётов.
package archive

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrDisabled — архив не сконфигурирован.
	ErrDisabled = errors.New("archive disabled")
	// ErrInvalidArgument — пустой ключ или тело.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Object — сохранённый объект.
//   - Key: путь объекта в бакете.
//   - URL: presigned GET для скачивания.
//   - Expires: время жизни подписи.
type Object struct {
	Key     string
	URL     string
	Size    int64
	Expires time.Duration
}

// Archive сохраняет отчёт и выдаёт ссылку на скачивание.
//
//go:generate mockgen -source=archive.go -destination=../../mocks/mock_archive.go -package=mocks Archive
type Archive interface {
	// Put сохраняет r под key. size < 0 — длина неизвестна.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*Object, error)
}
