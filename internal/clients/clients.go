package clients

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pribylovaa/scan-console/internal/clients/backend"
	"github.com/pribylovaa/scan-console/internal/clients/interceptors"
	"github.com/pribylovaa/scan-console/internal/clients/refresh"
	"github.com/pribylovaa/scan-console/internal/config"
	"github.com/pribylovaa/scan-console/internal/credentials"
	"github.com/pribylovaa/scan-console/internal/metrics"
)

// Clients агрегирует клиенты бэкенда и координатор обновления токенов.
type Clients struct {
	Auth         *backend.AuthClient
	Applications *backend.ApplicationsClient
	Issues       *backend.IssuesClient
	Reports      *backend.ReportsClient

	Refresh *refresh.Coordinator

	// API — полная цепочка диспетчера (bearer + обновление токена);
	// через неё идёт прокси /api/*.
	API http.RoundTripper
}

// Deps — внешние зависимости сборки.
type Deps struct {
	Creds   *credentials.Store
	Events  refresh.Publisher
	Log     *slog.Logger
	Metrics *metrics.Metrics
	// Transport — базовый транспорт; nil означает http.DefaultTransport.
	Transport http.RoundTripper
}

// New собирает стек исходящих вызовов.
func New(cfg config.Config, deps Deps) (*Clients, error) {
	const op = "internal/clients/New"

	if deps.Creds == nil || deps.Events == nil {
		return nil, fmt.Errorf("%s: credentials and events are required", op)
	}

	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	base := deps.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	userAgent := cfg.Backend.UserAgent

	// Обмен refresh-токена идёт мимо bearer/refresh, иначе 403 на обмене
	// снова попал бы в координатор.
	plain := interceptors.Chain(base,
		interceptors.WithMetadata(userAgent),
		interceptors.Logging(log, deps.Metrics),
	)

	authBackend, err := backend.New(cfg.Backend.BaseURL, plain, cfg.Timeouts.Refresh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	auth := backend.NewAuthClient(authBackend)

	coord := refresh.New(deps.Creds, auth, deps.Events, refresh.Options{
		Timeout:        cfg.Timeouts.Refresh,
		ExpiredMessage: cfg.Session.ExpiredMessage,
		Logger:         log,
		Metrics:        deps.Metrics,
	})

	// Цепочка диспетчера: metadata -> bearer -> refresh -> logging.
	api := interceptors.Chain(base,
		interceptors.WithMetadata(userAgent),
		interceptors.WithBearer(deps.Creds),
		coord.Interceptor(),
		interceptors.Logging(log, deps.Metrics),
	)

	apiBackend, err := backend.New(cfg.Backend.BaseURL, api, cfg.Timeouts.Service)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Clients{
		Auth:         auth,
		Applications: backend.NewApplicationsClient(apiBackend),
		Issues:       backend.NewIssuesClient(apiBackend),
		Reports:      backend.NewReportsClient(apiBackend),
		Refresh:      coord,
		API:          api,
	}, nil
}
