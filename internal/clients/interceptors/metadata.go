package interceptors

import (
	"net/http"

	"github.com/google/uuid"
)

// HeaderRequestID — заголовок корреляции запросов между шлюзом и бэкендом.
const HeaderRequestID = "X-Request-Id"

// WithMetadata добавляет в исходящий запрос заголовки:
//   - X-Request-Id: из контекста (CtxRequestID), из самого запроса или новый UUID;
//   - User-Agent (если передан параметром).
//
// Исходный *http.Request не модифицируется.
func WithMetadata(userAgent string) Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			out := req.Clone(req.Context())

			rid, _ := req.Context().Value(CtxRequestID).(string)
			if rid == "" {
				rid = req.Header.Get(HeaderRequestID)
			}
			if rid == "" {
				rid = uuid.NewString()
			}
			out.Header.Set(HeaderRequestID, rid)

			if userAgent != "" {
				out.Header.Set("User-Agent", userAgent)
			}

			return next.RoundTrip(out)
		})
	}
}
