package interceptors

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/scan-console/internal/metrics"
	"github.com/pribylovaa/scan-console/pkg/log"
)

// Logging — логирование исходящих вызовов.
// Поведение:
//   - обогащает логгер полями request_id/method/path и прокладывает его в контекст;
//   - пишет одну финальную запись уровня Info: msg="backend", status, dur
//     (Warn при транспортной ошибке);
//   - учитывает вызов в метриках, если m != nil.
//
// Безопасность: не логирует тело, query и заголовки (там бывают токены).
func Logging(base *slog.Logger, m *metrics.Metrics) Interceptor {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()

			l := base.With(
				slog.String("request_id", req.Header.Get(HeaderRequestID)),
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
			)
			req = req.WithContext(log.Into(req.Context(), l))

			resp, err := next.RoundTrip(req)
			dur := time.Since(start)

			if err != nil {
				m.Backend(req.Method, 0, dur)
				l.Warn("backend",
					slog.String("err", err.Error()),
					slog.Duration("dur", dur),
				)
				return resp, err
			}

			m.Backend(req.Method, resp.StatusCode, dur)
			l.Info("backend",
				slog.Int("status", resp.StatusCode),
				slog.Duration("dur", dur),
			)

			return resp, nil
		})
	}
}
