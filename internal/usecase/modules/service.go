// Package modules manages the set of ingested modules.
package modules

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/docqa/internal/domain/module"
)

// Service lists and deletes modules.
type Service struct {
	store Store
}

// New creates a modules service.
func New(store Store) *Service {
	return &Service{store: store}
}

// List returns all module names, sorted.
func (s *Service) List(ctx context.Context) ([]string, error) {
	names, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Delete removes a module's chunk set.
func (s *Service) Delete(ctx context.Context, name string) error {
	n, err := module.New(name)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, n.String()); err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	return nil
}
