// backend — типизированные REST-клиенты внешнего бэкенда сканирования.
//
// Все вызовы идут через Client.Do: он накладывает таймаут на вызов,
// кодирует тело в JSON и раскодирует успешный ответ (как есть или
// из обёртки {"data": ...}). Ответы не-2xx превращаются в *StatusError.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBody — предел размера JSON-ответа бэкенда.
const maxBody = 8 << 20

var (
	ErrUnauthorized = errors.New("backend: unauthorized")
	ErrForbidden    = errors.New("backend: forbidden")
	ErrNotFound     = errors.New("backend: not found")
	ErrBadResponse  = errors.New("backend: malformed response")
)

// StatusError — ответ бэкенда со статусом вне 2xx.
// Code и Message берутся из тела ответа, если бэкенд их прислал.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: status %d", e.StatusCode)
	}

	return fmt.Sprintf("backend: status %d: %s", e.StatusCode, e.Message)
}

// Is позволяет сравнивать со стандартными ошибками пакета через errors.Is.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}

	return false
}

// Client — базовый HTTP-клиент бэкенда.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
}

// New создаёт клиент для baseURL поверх rt (цепочка интерсепторов).
// timeout <= 0 отключает таймаут вызова.
func New(baseURL string, rt http.RoundTripper, timeout time.Duration) (*Client, error) {
	const op = "clients/backend/New"

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: parse base url: %w", op, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%s: unsupported scheme %q", op, u.Scheme)
	}
	if rt == nil {
		rt = http.DefaultTransport
	}

	return &Client{
		base:    u,
		http:    &http.Client{Transport: rt},
		timeout: timeout,
	}, nil
}

// URL возвращает абсолютный адрес ресурса бэкенда.
func (c *Client) URL(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = query.Encode()

	return u.String()
}

// Do выполняет вызов и раскодирует ответ в out (out == nil — тело отбрасывается).
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := c.NewRequest(ctx, method, path, query, in)
	if err != nil {
		return err
	}

	return c.Send(req, out)
}

// NewRequest готовит запрос с JSON-телом in (nil — без тела).
func (c *Client) NewRequest(ctx context.Context, method, path string, query url.Values, in any) (*http.Request, error) {
	const op = "clients/backend/NewRequest"

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: encode: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, query), body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// Send отправляет готовый запрос и раскодирует ответ в out.
// Таймаут должен быть уже наложен на контекст запроса.
func (c *Client) Send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return err
	}

	return decode(b, out)
}

// Stream выполняет GET и отдаёт тело успешного ответа для потокового чтения.
// Таймаут вызова действует до закрытия тела.
func (c *Client) Stream(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	ctx, cancel := c.withTimeout(ctx)

	req, err := c.NewRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		defer resp.Body.Close()
		return nil, statusError(resp)
	}

	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}

	return resp, nil
}

// withTimeout навешивает таймаут вызова, не переопределяя существующий дедлайн.
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, c.timeout)
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// decode раскодирует тело как {"data": ...} или как голый JSON.
func decode(b []byte, out any) error {
	if len(bytes.TrimSpace(b)) == 0 {
		return fmt.Errorf("%w: empty body", ErrBadResponse)
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		b = env.Data
	}

	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	return nil
}

// statusError собирает *StatusError. Поддерживаются тела
// {"message": "..."}, {"error": "..."} и {"error": {"code": "...", "message": "..."}}.
func statusError(resp *http.Response) error {
	se := &StatusError{StatusCode: resp.StatusCode}

	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(b, &body); err != nil {
		return se
	}

	se.Code, se.Message = body.Code, body.Message

	if len(body.Error) > 0 {
		var s string
		if err := json.Unmarshal(body.Error, &s); err == nil {
			if se.Message == "" {
				se.Message = s
			}
			return se
		}

		var nested struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body.Error, &nested); err == nil {
			if se.Code == "" {
				se.Code = nested.Code
			}
			if se.Message == "" {
				se.Message = nested.Message
			}
		}
	}

	return se
}
