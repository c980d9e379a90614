package service

import (
	"context"
	"encoding/json"
)

func (s *Service) View(ctx context.Context, name string) (json.RawMessage, error) {
	return s.views.Get(ctx, name)
}

func (s *Service) SaveView(ctx context.Context, name string, state []byte) error {
	return s.views.Put(ctx, name, state)
}

func (s *Service) ResetView(ctx context.Context, name string) error {
	return s.views.Delete(ctx, name)
}
