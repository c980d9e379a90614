package http

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	apierrors "github.com/pribylovaa/scan-console/internal/errors"
)

// NewProxy — прозрачный прокси оболочки к бэкенду.
// Запрос уходит через rt (диспетчер), поэтому получает bearer-токен шлюза
// и общую логику обновления токена. Учётные данные клиента не пробрасываются.
func NewProxy(target *url.URL, rt http.RoundTripper) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.Host = target.Host
			pr.Out.Header.Del("Authorization")
			pr.Out.Header.Del("Cookie")
		},
		Transport: rt,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			apierrors.WriteError(w, r, err)
		},
	}
}
