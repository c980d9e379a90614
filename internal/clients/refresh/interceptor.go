package refresh

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/pribylovaa/scan-console/internal/clients/interceptors"
	"github.com/pribylovaa/scan-console/internal/credentials"
	"github.com/pribylovaa/scan-console/pkg/log"
)

// maxDrain — сколько байт тела отвергнутого ответа читаем перед закрытием,
// чтобы соединение вернулось в пул.
const maxDrain = 64 << 10

type retriedKey struct{}

// IsRetried сообщает, что запрос уже повторялся после обновления токена.
func IsRetried(ctx context.Context) bool {
	v, _ := ctx.Value(retriedKey{}).(bool)
	return v
}

func markRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey{}, true)
}

// Interceptor перехватывает ответы 403:
//   - запрос уже повторялся или нет refresh-токена — 403 отдаётся как есть;
//   - токен успели обновить, пока запрос был в полёте, — запрос повторяется
//     с текущим токеном без нового обмена;
//   - иначе Await с поколением, запомненным до отправки: ведущий обменивает
//     токен, остальные ждут или получают итог уже завершённого обмена; затем
//     каждый повторяет свой запрос ровно один раз с новым токеном.
//
// При неудачном обмене ведущий получает исходный ответ 403, остальные — *Error.
// Ответы с другими статусами и транспортные ошибки не трогаются.
func (c *Coordinator) Interceptor() interceptors.Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		return interceptors.RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			req, err := rewindable(req)
			if err != nil {
				return nil, err
			}

			seen := c.Generation()

			resp, err := next.RoundTrip(req)
			if err != nil || resp.StatusCode != http.StatusForbidden {
				return resp, err
			}

			ctx := req.Context()
			if IsRetried(ctx) {
				return resp, nil
			}

			token := c.newerToken(ctx, interceptors.BearerToken(req))
			if token == "" {
				var (
					leader bool
					aerr   error
				)

				token, leader, aerr = c.Await(ctx, seen)
				if aerr != nil {
					if leader || errors.Is(aerr, ErrNoRefreshToken) {
						return resp, nil
					}

					drain(resp)
					return nil, aerr
				}
			}

			drain(resp)

			retry, err := replay(req, token)
			if err != nil {
				return nil, err
			}

			c.metrics.Replay()
			log.From(ctx).Debug("request_replay", slog.String("path", req.URL.Path))

			return next.RoundTrip(retry)
		})
	}
}

// newerToken возвращает текущий access-токен, если он уже отличается от
// использованного в отвергнутом запросе и обмен сейчас не идёт.
func (c *Coordinator) newerToken(ctx context.Context, used string) string {
	if used == "" || c.Refreshing() {
		return ""
	}

	cur, ok := c.creds.Get(ctx, credentials.Access)
	if !ok || cur == used {
		return ""
	}

	return cur
}

// rewindable гарантирует возможность повторной отправки тела:
// запросы без GetBody (например, проксируемые) буферизуются в память.
func rewindable(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return req, nil
	}

	b, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, err
	}

	out := req.Clone(req.Context())
	out.Body = io.NopCloser(bytes.NewReader(b))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	out.ContentLength = int64(len(b))

	return out, nil
}

// replay готовит повтор запроса с меткой retried и новым bearer-токеном.
func replay(req *http.Request, token string) (*http.Request, error) {
	out := req.Clone(markRetried(req.Context()))

	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		out.Body = body
	}

	interceptors.SetBearer(out, token)

	return out, nil
}

func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	_ = resp.Body.Close()
}
