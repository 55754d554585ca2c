package history

import (
	"context"
	"fmt"

	"github.com/warehouse-tools/priceplan/pkg/models/domain"
	"github.com/warehouse-tools/priceplan/pkg/services/sources"
)

// Explorer resolves configured source profiles into live providers.
type Explorer interface {
	ListSources(ctx context.Context) ([]domain.SourceProfile, error)
	GetProvider(ctx context.Context, profile string) (Provider, error)
}

type explorer struct {
	profiles sources.Registry
	registry Registry
}

func NewExplorer(profiles sources.Registry, registry Registry) Explorer {
	return &explorer{
		profiles: profiles,
		registry: registry,
	}
}

func (e *explorer) ListSources(ctx context.Context) ([]domain.SourceProfile, error) {
	return e.profiles.GetProfiles(ctx)
}

func (e *explorer) GetProvider(ctx context.Context, profile string) (Provider, error) {
	cfg, err := e.profiles.GetConfig(ctx, profile)
	if err != nil {
		return nil, err
	}

	provider, err := e.registry.Create(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create provider for profile %s: %w", profile, err)
	}
	return provider, nil
}
