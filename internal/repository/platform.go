package repository

import (
	"context"

	"paymenthub/internal/domain"
)

// PlatformRepository stores the single platform configuration row.
type PlatformRepository interface {
	// Get returns the configuration, or ErrNotFound before bootstrap.
	Get(ctx context.Context) (*domain.PlatformConfig, error)

	// Save creates or replaces the configuration.
	Save(ctx context.Context, cfg *domain.PlatformConfig) error
}
