package backend

import (
	"context"
	"fmt"
	"net/http"
)

// Issue — найденная уязвимость.
type Issue struct {
	ID            ID     `json:"id"`
	ApplicationID ID     `json:"applicationId"`
	Title         string `json:"title"`
	Severity      string `json:"severity"`
	Status        string `json:"status,omitempty"`
}

// IssuesClient — эндпойнты уязвимостей.
type IssuesClient struct {
	c *Client
}

func NewIssuesClient(c *Client) *IssuesClient {
	return &IssuesClient{c: c}
}

// ListByApplication возвращает уязвимости приложения appID.
func (i *IssuesClient) ListByApplication(ctx context.Context, appID ID) ([]Issue, error) {
	const op = "clients/backend/Issues.ListByApplication"

	var issues []Issue
	path := "/applications/" + string(appID) + "/issues"
	if err := i.c.Do(ctx, http.MethodGet, path, nil, nil, &issues); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return issues, nil
}
