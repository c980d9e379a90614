package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/pribylovaa/scan-console/internal/models"
	"github.com/pribylovaa/scan-console/internal/session"
	logctx "github.com/pribylovaa/scan-console/pkg/log"
)

// eventBuffer — сколько событий копится для медленного клиента, прежде чем
// новые начнут отбрасываться. Публикация на шину при этом не блокируется.
const eventBuffer = 16

// Events — поток событий сессии для оболочки (websocket).
// При подключении отправляется снимок состояния (type=status), затем каждое
// событие шины. Оболочка сама решает, что показать и куда перейти.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	log := logctx.From(r.Context())

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.WS.OriginPatterns,
	})
	if err != nil {
		log.Warn("ws_accept_failed", slog.String("err", err.Error()))
		return
	}
	defer func() { _ = conn.CloseNow() }()

	// Клиент ничего не шлёт; CloseRead обслуживает control-кадры
	// и отменяет ctx, когда соединение закрыто.
	ctx := conn.CloseRead(r.Context())

	events := make(chan session.Event, eventBuffer)
	id := h.Bus.Subscribe(func(_ context.Context, e session.Event) {
		select {
		case events <- e:
		default:
			log.Warn("ws_event_dropped", slog.String("event", string(e)))
		}
	})
	defer h.Bus.Unsubscribe(id)

	log.Info("ws_connected")

	if err := h.writeEvent(ctx, conn, "status"); err != nil {
		log.Info("ws_write_failed", slog.String("err", err.Error()))
		return
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("ws_disconnected")
			return
		case e := <-events:
			if err := h.writeEvent(ctx, conn, string(e)); err != nil {
				log.Info("ws_write_failed",
					slog.String("err", err.Error()),
					slog.Int("close_status", int(websocket.CloseStatus(err))),
				)
				return
			}
		}
	}
}

func (h *Handlers) writeEvent(ctx context.Context, conn *websocket.Conn, typ string) error {
	st := h.Svc.Status(ctx)

	msg := models.SessionEvent{
		Type:          typ,
		Authenticated: st.Authenticated,
		Notice:        st.Notice,
		At:            time.Now().UTC().Unix(),
	}

	wctx, cancel := context.WithTimeout(ctx, h.WS.WriteTimeout)
	defer cancel()

	return wsjson.Write(wctx, conn, msg)
}
