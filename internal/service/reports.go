package service

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/scan-console/internal/archive"
	"github.com/pribylovaa/scan-console/internal/clients/backend"
	"github.com/pribylovaa/scan-console/pkg/log"
)

// ArchiveReport скачивает отчёт по приложению и кладёт его в архив.
// Ключ: reports/<appID>/<время UTC>-<uuid>.<format>.
func (s *Service) ArchiveReport(ctx context.Context, appID backend.ID, format string) (*archive.Object, error) {
	const op = "service.reports.ArchiveReport"

	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}

	if format == "" {
		format = "pdf"
	}
	if format != "pdf" && format != "json" {
		return nil, fmt.Errorf("%s: %w: format %q", op, ErrInvalidArgument, format)
	}
	if appID == "" {
		return nil, fmt.Errorf("%s: %w: empty application id", op, ErrInvalidArgument)
	}

	rep, err := s.reports.Download(ctx, appID, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rep.Body.Close()

	key := path.Join("reports", string(appID),
		time.Now().UTC().Format("20060102T150405Z")+"-"+uuid.NewString()+"."+format)

	obj, err := s.archive.Put(ctx, key, rep.Body, rep.Size, rep.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("report_archived",
		slog.String("app_id", string(appID)),
		slog.String("key", obj.Key),
		slog.Int64("size", obj.Size),
	)

	return obj, nil
}
