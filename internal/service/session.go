package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pribylovaa/scan-console/internal/clients/backend"
	"github.com/pribylovaa/scan-console/internal/credentials"
	"github.com/pribylovaa/scan-console/internal/session"
	"github.com/pribylovaa/scan-console/pkg/log"
	"github.com/pribylovaa/scan-console/pkg/redact"
)

// LoginInput — ввод формы входа.
type LoginInput struct {
	Username string `validate:"required,max=256"`
	Password string `validate:"required,max=1024"`
}

// LoginResult — итог входа для оболочки.
type LoginResult struct {
	MustChangePassword bool
	ExpiresAt          *time.Time
}

// Status — состояние сессии.
//   - Authenticated: есть access-токен;
//   - ExpiresAt: exp из access-токена (nil для непрозрачных токенов);
//   - Notice: уведомление о принудительном выходе, если оно не подтверждено.
type Status struct {
	Authenticated bool
	ExpiresAt     *time.Time
	Notice        string
}

// Login выполняет вход: сохраняет пару токенов, снимает уведомление
// о принудительном выходе и публикует EventLoggedIn.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	const op = "service.session.Login"

	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	l := log.From(ctx).With(slog.String("username", redact.Username(in.Username)))

	res, err := s.auth.Login(ctx, in.Username, in.Password)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) || errors.Is(err, backend.ErrForbidden) {
			l.Info("login_rejected")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.creds.SetPair(ctx, res.Token, res.RefreshToken); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.creds.ClearForceLogoutMessage(ctx); err != nil {
		l.Warn("force_logout_clear_failed", slog.String("err", err.Error()))
	}

	l.Info("login_succeeded", slog.Bool("refreshable", res.RefreshToken != ""))
	s.events.Publish(ctx, session.EventLoggedIn)

	return &LoginResult{
		MustChangePassword: res.MustChangePassword,
		ExpiresAt:          tokenExpiry(res.Token),
	}, nil
}

// Logout стирает учётные данные и публикует EventLoggedOut.
// Вызов без сессии не ошибка.
func (s *Service) Logout(ctx context.Context) error {
	const op = "service.session.Logout"

	if err := s.creds.ClearAll(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("logout")
	s.events.Publish(ctx, session.EventLoggedOut)

	return nil
}

// Status возвращает состояние сессии.
func (s *Service) Status(ctx context.Context) Status {
	var st Status

	if tok, ok := s.creds.Get(ctx, credentials.Access); ok {
		st.Authenticated = true
		st.ExpiresAt = tokenExpiry(tok)
	}

	if msg, ok := s.creds.ForceLogoutMessage(ctx); ok {
		st.Notice = msg
	}

	return st
}

// AckNotice подтверждает показ уведомления о принудительном выходе.
func (s *Service) AckNotice(ctx context.Context) error {
	const op = "service.session.AckNotice"

	if err := s.creds.ClearForceLogoutMessage(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// tokenExpiry читает exp из JWT без проверки подписи: ключа у шлюза нет,
// подлинность токена проверяет бэкенд.
func tokenExpiry(token string) *time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}

	t := exp.Time.UTC()
	return &t
}
