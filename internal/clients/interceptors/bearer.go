package interceptors

import (
	"context"
	"net/http"
	"strings"
)

// AccessTokenSource — источник текущего access-токена (credentials.Store).
type AccessTokenSource interface {
	AccessToken(ctx context.Context) (string, bool)
}

// WithBearer перед отправкой читает access-токен и, если он есть,
// выставляет Authorization: Bearer <token>. Без токена запрос уходит как есть,
// при этом чужой Authorization (например, от браузера) не пробрасывается.
func WithBearer(src AccessTokenSource) Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			out := req.Clone(req.Context())
			out.Header.Del("Authorization")

			if tok, ok := src.AccessToken(req.Context()); ok {
				SetBearer(out, tok)
			}

			return next.RoundTrip(out)
		})
	}
}

// SetBearer выставляет заголовок Authorization.
func SetBearer(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}

// BearerToken возвращает токен из заголовка Authorization (или "").
func BearerToken(req *http.Request) string {
	const prefix = "Bearer "

	auth := req.Header.Get("Authorization")
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}
