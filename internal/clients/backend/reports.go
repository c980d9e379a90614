package backend

import (
	"context"
	"fmt"
	"io"
	"net/url"
)

// Report — сгенерированный отчёт. Вызывающий обязан закрыть Body.
type Report struct {
	Body        io.ReadCloser
	ContentType string
	// Size — длина тела или -1, если бэкенд её не сообщил.
	Size int64
}

// ReportsClient — эндпойнты отчётов.
type ReportsClient struct {
	c *Client
}

func NewReportsClient(c *Client) *ReportsClient {
	return &ReportsClient{c: c}
}

// Download скачивает отчёт по приложению appID в формате format.
func (r *ReportsClient) Download(ctx context.Context, appID ID, format string) (*Report, error) {
	const op = "clients/backend/Reports.Download"

	q := url.Values{}
	if format != "" {
		q.Set("format", format)
	}

	resp, err := r.c.Stream(ctx, "/reports/"+string(appID), q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}

	return &Report{
		Body:        resp.Body,
		ContentType: ct,
		Size:        resp.ContentLength,
	}, nil
}
