package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ID — идентификатор ресурса бэкенда. Бэкенд отдаёт его то числом, то строкой.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*id = ""
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("backend: id: %w", err)
	}
	*id = ID(n.String())

	return nil
}

func (id ID) String() string { return string(id) }

// Application — приложение, которое сканирует бэкенд.
type Application struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Platform string `json:"platform,omitempty"`
}

// ApplicationsClient — эндпойнты приложений.
type ApplicationsClient struct {
	c *Client
}

func NewApplicationsClient(c *Client) *ApplicationsClient {
	return &ApplicationsClient{c: c}
}

// List возвращает все приложения пользователя.
func (a *ApplicationsClient) List(ctx context.Context) ([]Application, error) {
	const op = "clients/backend/Applications.List"

	var apps []Application
	if err := a.c.Do(ctx, http.MethodGet, "/applications", nil, nil, &apps); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return apps, nil
}
