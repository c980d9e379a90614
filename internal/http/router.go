package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/scan-console/internal/clients/interceptors"
	"github.com/pribylovaa/scan-console/internal/config"
	"github.com/pribylovaa/scan-console/internal/http/handlers"
	"github.com/pribylovaa/scan-console/internal/http/middleware"
	"github.com/pribylovaa/scan-console/internal/service"
	"github.com/pribylovaa/scan-console/internal/session"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration

	// Creds — источник access-токена для проверки наличия сессии.
	Creds interceptors.AccessTokenSource

	// Backend — базовый адрес бэкенда для прокси /api/*.
	Backend *url.URL
	// API — цепочка диспетчера (bearer + обновление токена).
	API http.RoundTripper

	WS config.WebSocketConfig
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, bus *session.Bus, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
	)

	h := handlers.New(svc, bus, opts.WS)

	// Поток событий живёт сколько угодно долго, поэтому без общего дедлайна.
	root.Get("/session/events", h.Events)

	root.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(opts.Timeout))
		registerRoutes(r, h, opts)
	})

	return root
}

// registerRoutes — единая точка регистрации REST-эндпойнтов с дедлайном.
func registerRoutes(r chi.Router, h *handlers.Handlers, opts Options) {
	// session
	r.Post("/session/login", h.Login)
	r.Post("/session/logout", h.Logout)
	r.Get("/session", h.Session)
	r.Delete("/session/notice", h.AckNotice)

	// views
	r.Get("/views/{view}", h.GetView)
	r.Put("/views/{view}", h.PutView)
	r.Delete("/views/{view}", h.DeleteView)

	// всё, что ходит в бэкенд от имени пользователя
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(opts.Creds))

		r.Get("/dashboard", h.Dashboard)
		r.Post("/reports/{appID}/archive", h.ArchiveReport)

		if opts.Backend != nil && opts.API != nil {
			r.Mount("/api", http.StripPrefix("/api", NewProxy(opts.Backend, opts.API)))
		}
	})
}
