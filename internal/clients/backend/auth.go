package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pribylovaa/scan-console/internal/clients/interceptors"
	"github.com/pribylovaa/scan-console/internal/clients/refresh"
)

// AuthClient — эндпойнты аутентификации.
type AuthClient struct {
	c *Client
}

func NewAuthClient(c *Client) *AuthClient {
	return &AuthClient{c: c}
}

// LoginResult — ответ на успешный логин.
type LoginResult struct {
	Token              string
	RefreshToken       string
	MustChangePassword bool
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token              string `json:"token"`
	AccessToken        string `json:"accessToken"`
	RefreshToken       string `json:"refreshToken"`
	MustChangePassword bool   `json:"mustChangePassword"`
}

// Login обменивает логин и пароль на пару токенов.
func (a *AuthClient) Login(ctx context.Context, username, password string) (LoginResult, error) {
	const op = "clients/backend/Login"

	var resp loginResponse
	err := a.c.Do(ctx, http.MethodPost, "/auth/login", nil, loginRequest{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		return LoginResult{}, fmt.Errorf("%s: %w", op, err)
	}

	token := resp.Token
	if token == "" {
		token = resp.AccessToken
	}
	if token == "" {
		return LoginResult{}, fmt.Errorf("%s: %w: no token", op, ErrBadResponse)
	}

	return LoginResult{
		Token:              token,
		RefreshToken:       resp.RefreshToken,
		MustChangePassword: resp.MustChangePassword,
	}, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Refresh обменивает refresh-токен на новый access-токен.
// Refresh-токен передаётся и в теле, и как bearer. Реализует refresh.Refresher.
func (a *AuthClient) Refresh(ctx context.Context, refreshToken string) (refresh.Tokens, error) {
	const op = "clients/backend/Refresh"

	ctx, cancel := a.c.withTimeout(ctx)
	defer cancel()

	req, err := a.c.NewRequest(ctx, http.MethodPost, "/auth/refresh", nil, refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return refresh.Tokens{}, fmt.Errorf("%s: %w", op, err)
	}
	interceptors.SetBearer(req, refreshToken)

	var resp refreshResponse
	if err := a.c.Send(req, &resp); err != nil {
		return refresh.Tokens{}, fmt.Errorf("%s: %w", op, err)
	}

	access := resp.AccessToken
	if access == "" {
		access = resp.Token
	}

	return refresh.Tokens{AccessToken: access, RefreshToken: resp.RefreshToken}, nil
}
