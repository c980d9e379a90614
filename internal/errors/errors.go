// errors стандартизирует ответы об ошибках HTTP-слоя шлюза консоли.
// На вход он принимает ошибку (сентинелы service/viewstate/refresh,
// *backend.StatusError, ошибки контекста), а на выход даёт:
//   - корректный HTTP-статус;
//   - короткий стабильный code и безопасное message для оболочки.
//
// Сообщения бэкенда для 4xx пробрасываются как есть (их показывает UI),
// для 5xx заменяются общим текстом.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/pribylovaa/scan-console/internal/archive"
	"github.com/pribylovaa/scan-console/internal/clients/backend"
	"github.com/pribylovaa/scan-console/internal/clients/interceptors"
	"github.com/pribylovaa/scan-console/internal/clients/refresh"
	"github.com/pribylovaa/scan-console/internal/service"
	"github.com/pribylovaa/scan-console/internal/viewstate"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

func resp(status int, code, msg string) (int, ErrorResponse) {
	return status, ErrorResponse{Error: APIError{Code: code, Message: msg}}
}

// ToHTTP конвертирует ошибку в HTTP-статус и унифицированный ответ для фронта.
//
// Поведение:
//   - err == nil - программная ошибка вызова: 500/internal;
//   - неудачный обмен refresh-токена - 401/session_expired
//     (оболочка получит и событие sessionExpired);
//   - *backend.StatusError - по статусу бэкенда (см. fromBackend);
//   - сентинелы пакетов service/viewstate/archive - по таблице ниже;
//   - context.Canceled - 499, context.DeadlineExceeded - 504;
//   - прочее - 500/internal без деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return resp(http.StatusInternalServerError, "internal", "internal error")
	}

	// Порядок важен: ошибка обмена может нести внутри StatusError бэкенда.
	if stderrors.Is(err, refresh.ErrRefreshFailed) {
		return resp(http.StatusUnauthorized, "session_expired", "session expired")
	}

	switch {
	case stderrors.Is(err, service.ErrInvalidCredentials):
		return resp(http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
	case stderrors.Is(err, service.ErrNotAuthenticated):
		return resp(http.StatusUnauthorized, "unauthenticated", "unauthenticated")
	case stderrors.Is(err, service.ErrInvalidArgument),
		stderrors.Is(err, viewstate.ErrInvalidName),
		stderrors.Is(err, viewstate.ErrInvalidState),
		stderrors.Is(err, archive.ErrInvalidArgument):
		return resp(http.StatusBadRequest, "invalid_argument", "invalid argument")
	case stderrors.Is(err, viewstate.ErrTooLarge):
		return resp(http.StatusRequestEntityTooLarge, "too_large", "payload too large")
	case stderrors.Is(err, viewstate.ErrNotFound):
		return resp(http.StatusNotFound, "not_found", "not found")
	case stderrors.Is(err, archive.ErrDisabled):
		return resp(http.StatusServiceUnavailable, "archive_disabled", "report archive is not configured")
	}

	var se *backend.StatusError
	if stderrors.As(err, &se) {
		return fromBackend(se)
	}

	switch {
	case stderrors.Is(err, backend.ErrBadResponse):
		return resp(http.StatusBadGateway, "bad_gateway", "malformed backend response")
	case stderrors.Is(err, context.Canceled):
		return resp(StatusClientClosedRequest, "canceled", "canceled")
	case stderrors.Is(err, context.DeadlineExceeded):
		return resp(http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded")
	}

	return resp(http.StatusInternalServerError, "internal", "internal error")
}

// fromBackend — маппинг статуса бэкенда -> HTTP/FE-код/сообщение:
//   - 400, 422 -> 400/invalid_argument
//   - 401 -> 401/unauthenticated
//   - 403 -> 403/permission_denied (уже после попытки обновить токен)
//   - 404 -> 404/not_found
//   - 409 -> 409/conflict
//   - 429 -> 429/resource_exhausted
//   - 5xx и прочее -> 502/bad_gateway
func fromBackend(se *backend.StatusError) (int, ErrorResponse) {
	status, code, msg := http.StatusBadGateway, "bad_gateway", "backend error"

	switch se.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		status, code, msg = http.StatusBadRequest, "invalid_argument", "invalid argument"
	case http.StatusUnauthorized:
		status, code, msg = http.StatusUnauthorized, "unauthenticated", "unauthenticated"
	case http.StatusForbidden:
		status, code, msg = http.StatusForbidden, "permission_denied", "permission denied"
	case http.StatusNotFound:
		status, code, msg = http.StatusNotFound, "not_found", "not found"
	case http.StatusConflict:
		status, code, msg = http.StatusConflict, "conflict", "conflict"
	case http.StatusTooManyRequests:
		status, code, msg = http.StatusTooManyRequests, "resource_exhausted", "resource exhausted"
	}

	if status < 500 && se.Message != "" {
		msg = se.Message
	}

	return resp(status, code, msg)
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := ToHTTP(err)

	rid, _ := r.Context().Value(interceptors.CtxRequestID).(string)
	if rid == "" {
		rid = r.Header.Get(interceptors.HeaderRequestID)
	}
	body.Error.RequestID = rid

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
