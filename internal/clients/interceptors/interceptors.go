// interceptors предоставляет набор HTTP-интерсепторов (http.RoundTripper-мидлваров)
// для исходящих вызовов к бэкенду. Это диспетчер запросов шлюза: цепочка
// metadata -> bearer -> refresh -> logging -> transport собирается в internal/clients.
package interceptors

import (
	"net/http"
)

// Interceptor оборачивает RoundTripper.
type Interceptor func(next http.RoundTripper) http.RoundTripper

// RoundTripperFunc — адаптер функции к http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Chain применяет интерсепторы к base в порядке перечисления:
// первый в списке — самый внешний.
func Chain(base http.RoundTripper, ics ...Interceptor) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	rt := base
	for i := len(ics) - 1; i >= 0; i-- {
		rt = ics[i](rt)
	}

	return rt
}

type CtxKey string

const (
	// CtxRequestID — идентификатор входящего запроса; его кладёт HTTP-мидлвар RequestID.
	CtxRequestID CtxKey = "request_id"
)
