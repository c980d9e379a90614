package middleware

import (
	"net/http"

	"github.com/pribylovaa/scan-console/internal/clients/interceptors"
	apierrors "github.com/pribylovaa/scan-console/internal/errors"
	"github.com/pribylovaa/scan-console/internal/service"
)

// RequireSession пропускает запрос, только если у шлюза есть access-токен.
// Иначе 401/unauthenticated: вызов бэкенда без токена заведомо бесполезен.
func RequireSession(src interceptors.AccessTokenSource) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := src.AccessToken(r.Context()); !ok {
				apierrors.WriteError(w, r, service.ErrNotAuthenticated)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
