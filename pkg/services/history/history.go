package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/warehouse-tools/priceplan/pkg/models/domain"
	"github.com/warehouse-tools/priceplan/pkg/services/sources"
)

// Provider serves the daily sales records the planning pipeline consumes.
type Provider interface {
	// GetSalesHistory returns the records of the trailing window of the
	// given length, ending today.
	GetSalesHistory(ctx context.Context, days int) ([]domain.SalesRecord, error)
}

// ProviderFactory is a function type that creates a Provider from a source
// profile config
type ProviderFactory func(ctx context.Context, cfg *sources.Config) (Provider, error)

// Registry manages sales-history provider factories by source type
type Registry interface {
	// Register adds a new source type factory
	Register(sourceType domain.SourceType, factory ProviderFactory) error
	// Create instantiates a provider for the config's source type
	Create(ctx context.Context, cfg *sources.Config) (Provider, error)
	// ListTypes returns the registered source types
	ListTypes() []domain.SourceType
}

type registry struct {
	mu        sync.RWMutex
	factories map[domain.SourceType]ProviderFactory
}

func NewRegistry() Registry {
	return &registry{
		factories: make(map[domain.SourceType]ProviderFactory),
	}
}

func (r *registry) Register(sourceType domain.SourceType, factory ProviderFactory) error {
	if sourceType == "" {
		return fmt.Errorf("source type cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[sourceType]; exists {
		return fmt.Errorf("source type %q is already registered", sourceType)
	}

	r.factories[sourceType] = factory
	return nil
}

func (r *registry) Create(ctx context.Context, cfg *sources.Config) (Provider, error) {
	r.mu.RLock()
	factory, exists := r.factories[cfg.Profile.Type]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("source type %q is not registered", cfg.Profile.Type)
	}

	return factory(ctx, cfg)
}

func (r *registry) ListTypes() []domain.SourceType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]domain.SourceType, 0, len(r.factories))
	for sourceType := range r.factories {
		types = append(types, sourceType)
	}
	return types
}
