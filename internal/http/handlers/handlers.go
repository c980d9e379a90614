package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pribylovaa/scan-console/internal/config"
	"github.com/pribylovaa/scan-console/internal/service"
	"github.com/pribylovaa/scan-console/internal/session"
)

// Handlers агрегирует зависимости хендлеров.
type Handlers struct {
	Svc *service.Service
	Bus *session.Bus
	WS  config.WebSocketConfig
}

func New(svc *service.Service, bus *session.Bus, ws config.WebSocketConfig) *Handlers {
	return &Handlers{Svc: svc, Bus: bus, WS: ws}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}
