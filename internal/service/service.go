// service содержит сценарии консоли поверх клиентов бэкенда:
// вход/выход и состояние сессии, сводку по приложениям, архивацию отчётов
// и кэш состояния экранов.
//
// Service не хранит состояние запроса и безопасен для конкурентного
// использования. Ошибки возвращаются как сентинелы пакета (или ошибки
// клиентов бэкенда) и маппятся HTTP-слоем в единый конверт.
package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/pribylovaa/scan-console/internal/archive"
	"github.com/pribylovaa/scan-console/internal/clients/backend"
	"github.com/pribylovaa/scan-console/internal/credentials"
	"github.com/pribylovaa/scan-console/internal/session"
	"github.com/pribylovaa/scan-console/internal/viewstate"
)

var (
	// ErrInvalidCredentials — бэкенд отверг логин/пароль. HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidArgument — некорректный ввод оболочки. HTTP 400.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotAuthenticated — нет сохранённых учётных данных. HTTP 401.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrArchiveDisabled — архив отчётов не сконфигурирован. HTTP 503.
	ErrArchiveDisabled = archive.ErrDisabled
)

// Authenticator — вход по логину и паролю (backend.AuthClient).
type Authenticator interface {
	Login(ctx context.Context, username, password string) (backend.LoginResult, error)
}

// Applications — список приложений (backend.ApplicationsClient).
type Applications interface {
	List(ctx context.Context) ([]backend.Application, error)
}

// Issues — уязвимости приложения (backend.IssuesClient).
type Issues interface {
	ListByApplication(ctx context.Context, appID backend.ID) ([]backend.Issue, error)
}

// Reports — скачивание отчётов (backend.ReportsClient).
type Reports interface {
	Download(ctx context.Context, appID backend.ID, format string) (*backend.Report, error)
}

// Publisher — шина событий сессии.
type Publisher interface {
	Publish(ctx context.Context, e session.Event)
}

// Deps — зависимости Service. Archive может быть nil (архив выключен).
type Deps struct {
	Creds        *credentials.Store
	Events       Publisher
	Auth         Authenticator
	Applications Applications
	Issues       Issues
	Reports      Reports
	Archive      archive.Archive
	Views        *viewstate.Cache

	// DashboardConcurrency ограничивает параллельные запросы сводки; <=0 — 4.
	DashboardConcurrency int
}

// Service — сценарии консоли.
type Service struct {
	creds   *credentials.Store
	events  Publisher
	auth    Authenticator
	apps    Applications
	issues  Issues
	reports Reports
	archive archive.Archive
	views   *viewstate.Cache

	validate    *validator.Validate
	concurrency int
}

// New создаёт новый экземпляр Service.
func New(d Deps) *Service {
	c := d.DashboardConcurrency
	if c <= 0 {
		c = 4
	}

	return &Service{
		creds:       d.Creds,
		events:      d.Events,
		auth:        d.Auth,
		apps:        d.Applications,
		issues:      d.Issues,
		reports:     d.Reports,
		archive:     d.Archive,
		views:       d.Views,
		validate:    validator.New(),
		concurrency: c,
	}
}
