// minio предоставляет реализацию archive.Archive на базе MinIO/S3.
// Конструктор нормализует endpoint, настраивает Secure/creds и проверяет
// наличие целевого бакета.
package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pribylovaa/scan-console/internal/archive"
	"github.com/pribylovaa/scan-console/internal/config"
)

// Archive — адаптер MinIO для архива отчётов.
type Archive struct {
	cfg    config.ArchiveConfig
	client *mclient.Client
}

// New создает клиент MinIO и выполняет fail-fast-проверку бакета.
func New(ctx context.Context, cfg config.ArchiveConfig) (*Archive, error) {
	const op = "archive/minio/New"

	endpoint := cfg.Endpoint
	secure := cfg.UseSSL

	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, cfg.Bucket)
	}

	return &Archive{cfg: cfg, client: client}, nil
}

// Put загружает отчёт и возвращает presigned GET на него.
func (a *Archive) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*archive.Object, error) {
	const op = "archive/minio/Put"

	key = strings.TrimLeft(key, "/")
	if key == "" || r == nil {
		return nil, archive.ErrInvalidArgument
	}

	info, err := a.client.PutObject(ctx, a.cfg.Bucket, key, r, size, mclient.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u, err := a.client.PresignedGetObject(ctx, a.cfg.Bucket, key, a.cfg.PresignTTL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: presign: %w", op, err)
	}

	return &archive.Object{
		Key:     key,
		URL:     u.String(),
		Size:    info.Size,
		Expires: a.cfg.PresignTTL,
	}, nil
}

// Проверка выполнения контракта верхнего уровня.
var _ archive.Archive = (*Archive)(nil)
