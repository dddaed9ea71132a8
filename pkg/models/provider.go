// Package models provides the model catalog with an explicitly-owned
// cache in front of the backend catalog API.
package models

import (
	"context"
	"fmt"
	"sync"

	"github.com/polyfold/polychat/pkg/api"
)

// Provider defines the interface for discovering and retrieving model
// information
type Provider interface {
	// ListModels returns the available models
	ListModels(ctx context.Context) ([]api.Model, error)

	// GetModel returns one model by id
	GetModel(ctx context.Context, modelID string) (*api.Model, error)

	// Resolve maps selected model ids to catalog entries, preserving
	// selection order
	Resolve(ctx context.Context, modelIDs []string) ([]api.Model, error)

	// Refresh invalidates the cache and refetches the catalog
	Refresh(ctx context.Context) error
}

// CatalogProvider caches the backend model catalog. The cache is filled
// on first use and invalidated only through Refresh.
type CatalogProvider struct {
	client *api.Client

	mu      sync.RWMutex
	cached  []api.Model
	fetched bool
}

// NewCatalogProvider creates a provider backed by the given client
func NewCatalogProvider(client *api.Client) *CatalogProvider {
	return &CatalogProvider{client: client}
}

func (p *CatalogProvider) ListModels(ctx context.Context) ([]api.Model, error) {
	p.mu.RLock()
	if p.fetched {
		cached := append([]api.Model(nil), p.cached...)
		p.mu.RUnlock()
		return cached, nil
	}
	p.mu.RUnlock()

	if err := p.Refresh(ctx); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]api.Model(nil), p.cached...), nil
}

func (p *CatalogProvider) GetModel(ctx context.Context, modelID string) (*api.Model, error) {
	models, err := p.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	for i := range models {
		if models[i].ID == modelID {
			return &models[i], nil
		}
	}
	return nil, fmt.Errorf("model not found: %s", modelID)
}

func (p *CatalogProvider) Resolve(ctx context.Context, modelIDs []string) ([]api.Model, error) {
	catalog, err := p.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]api.Model, len(catalog))
	for _, m := range catalog {
		byID[m.ID] = m
	}

	out := make([]api.Model, 0, len(modelIDs))
	for _, id := range modelIDs {
		m, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("model not found: %s", id)
		}
		out = append(out, m)
	}
	return out, nil
}

func (p *CatalogProvider) Refresh(ctx context.Context) error {
	models, err := p.client.Models(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh model catalog: %w", err)
	}

	p.mu.Lock()
	p.cached = models
	p.fetched = true
	p.mu.Unlock()
	return nil
}
