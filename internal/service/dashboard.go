package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pribylovaa/scan-console/internal/clients/backend"
)

// Severities — уровни критичности в порядке убывания.
var Severities = []string{"critical", "high", "medium", "low", "info", "unknown"}

// AppSummary — сводка по одному приложению.
type AppSummary struct {
	ID         backend.ID
	Name       string
	Platform   string
	Total      int
	BySeverity map[string]int
}

// Dashboard — сводка по всем приложениям пользователя.
type Dashboard struct {
	Applications []AppSummary
	Total        int
	BySeverity   map[string]int
}

// Dashboard загружает приложения и параллельно (с ограничением) их уязвимости.
// Ошибка любого запроса отменяет остальные.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	const op = "service.dashboard.Dashboard"

	apps, err := s.apps.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	summaries := make([]AppSummary, len(apps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, app := range apps {
		g.Go(func() error {
			issues, err := s.issues.ListByApplication(gctx, app.ID)
			if err != nil {
				return fmt.Errorf("application %s: %w", app.ID, err)
			}

			sum := AppSummary{
				ID:         app.ID,
				Name:       app.Name,
				Platform:   app.Platform,
				Total:      len(issues),
				BySeverity: emptyCounts(),
			}
			for _, is := range issues {
				sum.BySeverity[normalizeSeverity(is.Severity)]++
			}
			summaries[i] = sum

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	d := &Dashboard{Applications: summaries, BySeverity: emptyCounts()}
	for _, sum := range summaries {
		d.Total += sum.Total
		for sev, n := range sum.BySeverity {
			d.BySeverity[sev] += n
		}
	}

	return d, nil
}

func emptyCounts() map[string]int {
	m := make(map[string]int, len(Severities))
	for _, s := range Severities {
		m[s] = 0
	}
	return m
}

func normalizeSeverity(s string) string {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "critical", "high", "medium", "low", "info":
		return v
	case "informational":
		return "info"
	case "moderate":
		return "medium"
	default:
		return "unknown"
	}
}
