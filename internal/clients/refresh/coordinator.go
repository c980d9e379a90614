// refresh — координатор обновления access-токена.
//
// Когда бэкенд отвечает 403, координатор выполняет не более одного
// одновременного обмена refresh-токена: первый получивший 403 запрос
// становится ведущим и вызывает эндпойнт обновления, остальные встают
// в очередь ожидания и после обмена повторяются с новым токеном.
// Если обмен не удался, учётные данные стираются, сохраняется уведомление
// о принудительном выходе и на шину публикуется session.EventSessionExpired.
//
// Состояния: Idle (refreshing == false) и Refreshing (refreshing == true).
// Флаг и очередь — приватные поля под мьютексом; меняет их только Coordinator.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pribylovaa/scan-console/internal/credentials"
	"github.com/pribylovaa/scan-console/internal/metrics"
	"github.com/pribylovaa/scan-console/internal/session"
	"github.com/pribylovaa/scan-console/pkg/log"
)

var (
	// ErrRefreshFailed — обмен refresh-токена не удался, сессия завершена.
	// Ожидающие запросы получают *Error, для которого errors.Is(err, ErrRefreshFailed) == true.
	ErrRefreshFailed = errors.New("session refresh failed")

	// ErrNoRefreshToken — в хранилище нет refresh-токена.
	ErrNoRefreshToken = errors.New("no refresh token")

	// ErrEmptyAccessToken — эндпойнт обновления ответил без access-токена.
	ErrEmptyAccessToken = errors.New("refresh response without access token")
)

// DefaultExpiredMessage — уведомление о принудительном выходе по умолчанию.
const DefaultExpiredMessage = "Your session has expired. Please sign in again."

// Error — отказ, которым отклоняются ожидающие запросы. Несёт ошибку обмена,
// а не исходный 403.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", ErrRefreshFailed.Error(), e.Err)
}

func (e *Error) Unwrap() []error { return []error{ErrRefreshFailed, e.Err} }

// Tokens — результат обмена. RefreshToken заполнен, если бэкенд ротирует refresh-токен.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// Refresher выполняет обмен refresh-токена на новый access-токен.
//
//go:generate mockgen -source=coordinator.go -destination=../../../mocks/mock_refresher.go -package=mocks Refresher
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (Tokens, error)
}

// Publisher — шина событий сессии (session.Bus).
type Publisher interface {
	Publish(ctx context.Context, e session.Event)
}

// Options — необязательные параметры координатора.
type Options struct {
	// Timeout ограничивает обмен refresh-токена; <=0 — без ограничения.
	Timeout time.Duration
	// ExpiredMessage сохраняется в хранилище при принудительном выходе.
	ExpiredMessage string
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
}

type result struct {
	token string
	err   error
}

// Coordinator — координатор обновления. Создаётся один раз на процесс.
type Coordinator struct {
	creds     *credentials.Store
	refresher Refresher
	events    Publisher

	timeout time.Duration
	message string
	log     *slog.Logger
	metrics *metrics.Metrics

	mu         sync.Mutex
	refreshing bool
	queue      []chan result

	// gen растёт с каждым завершённым обменом, last — его итог.
	gen  uint64
	last result
}

// New создаёт координатор.
func New(creds *credentials.Store, refresher Refresher, events Publisher, opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ExpiredMessage == "" {
		opts.ExpiredMessage = DefaultExpiredMessage
	}

	return &Coordinator{
		creds:     creds,
		refresher: refresher,
		events:    events,
		timeout:   opts.Timeout,
		message:   opts.ExpiredMessage,
		log:       opts.Logger,
		metrics:   opts.Metrics,
	}
}

// Refreshing сообщает, идёт ли сейчас обмен.
func (c *Coordinator) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.refreshing
}

// Pending — число запросов в очереди ожидания.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.queue)
}

// Generation — номер последнего завершённого обмена. Запрос запоминает его
// до отправки и передаёт в Await.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.gen
}

// Await возвращает свежий access-токен для запроса, отправленного при
// поколении seen.
//
// Решение принимается под мьютексом:
//   - обмен уже идёт — вызывающий встаёт в очередь и ждёт его итога
//     (или отмены своего ctx);
//   - после seen обмен уже завершился — возвращается его итог, второго
//     обмена нет;
//   - иначе вызывающий становится ведущим (leader == true) и выполняет обмен
//     с refresh-токеном, прочитанным из хранилища под тем же мьютексом.
//
// Ошибка при неудачном обмене — *Error. Без refresh-токена — ErrNoRefreshToken.
func (c *Coordinator) Await(ctx context.Context, seen uint64) (token string, leader bool, err error) {
	c.mu.Lock()
	if c.refreshing {
		ch := make(chan result, 1)
		c.queue = append(c.queue, ch)
		c.mu.Unlock()

		c.metrics.Waiter()
		log.From(ctx).Debug("refresh_wait")

		select {
		case r := <-ch:
			return r.token, false, r.err
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}

	if c.gen != seen {
		last := c.last
		c.mu.Unlock()

		log.From(ctx).Debug("refresh_already_settled")

		if tok, ok := c.creds.Get(ctx, credentials.Access); ok {
			return tok, false, nil
		}
		if last.err != nil {
			return "", false, last.err
		}
		return "", false, ErrNoRefreshToken
	}

	refreshToken, ok := c.creds.Get(ctx, credentials.Refresh)
	if !ok {
		c.mu.Unlock()
		return "", false, ErrNoRefreshToken
	}

	c.refreshing = true
	c.mu.Unlock()

	tokens, xerr := c.exchange(ctx, refreshToken)
	c.settle(ctx, tokens, xerr)

	if xerr != nil {
		return "", true, &Error{Err: xerr}
	}

	return tokens.AccessToken, true, nil
}

// exchange вызывает эндпойнт обновления. Контекст отвязан от отмены ведущего:
// его уход не должен превращаться в принудительный выход для всех ожидающих.
func (c *Coordinator) exchange(ctx context.Context, refreshToken string) (Tokens, error) {
	const op = "clients/refresh/exchange"

	xctx := context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		xctx, cancel = context.WithTimeout(xctx, c.timeout)
		defer cancel()
	}

	c.log.Info("refresh_started", slog.String("op", op))
	start := time.Now()

	tokens, err := c.refresher.Refresh(xctx, refreshToken)
	if err == nil && tokens.AccessToken == "" {
		err = ErrEmptyAccessToken
	}

	if err != nil {
		c.log.Warn("refresh_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
			slog.Duration("dur", time.Since(start)),
		)
		return Tokens{}, fmt.Errorf("%s: %w", op, err)
	}

	c.log.Info("refresh_succeeded",
		slog.String("op", op),
		slog.Bool("rotated", tokens.RefreshToken != ""),
		slog.Duration("dur", time.Since(start)),
	)

	return tokens, nil
}

// settle фиксирует итог обмена: обновляет хранилище, сбрасывает флаг
// (безусловно), увеличивает поколение, разрешает очередь в порядке FIFO и при неудаче один раз
// публикует EventSessionExpired.
func (c *Coordinator) settle(ctx context.Context, tokens Tokens, xerr error) {
	sctx := context.WithoutCancel(ctx)

	if xerr == nil {
		if err := c.creds.Set(sctx, credentials.Access, tokens.AccessToken); err != nil {
			c.log.Error("refresh_store_failed", slog.String("err", err.Error()))
		}
		if tokens.RefreshToken != "" {
			if err := c.creds.Set(sctx, credentials.Refresh, tokens.RefreshToken); err != nil {
				c.log.Error("refresh_store_failed", slog.String("err", err.Error()))
			}
		}
	} else {
		if err := c.creds.ClearAll(sctx); err != nil {
			c.log.Error("credentials_clear_failed", slog.String("err", err.Error()))
		}
		if err := c.creds.SetForceLogoutMessage(sctx, c.message); err != nil {
			c.log.Error("force_logout_store_failed", slog.String("err", err.Error()))
		}
	}

	res := result{token: tokens.AccessToken}
	if xerr != nil {
		res = result{err: &Error{Err: xerr}}
	}

	c.mu.Lock()
	queue := c.queue
	c.queue = nil
	c.refreshing = false
	c.gen++
	c.last = res
	c.mu.Unlock()

	for _, ch := range queue {
		ch <- res
	}

	c.metrics.RefreshResult(xerr == nil)

	if xerr != nil {
		c.log.Warn("session_expired", slog.Int("rejected", len(queue)))
		c.events.Publish(sctx, session.EventSessionExpired)
	}
}
