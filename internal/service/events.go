package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"paymenthub/internal/domain"
	"paymenthub/internal/repository"
)

// platformKey is the lock and event key for platform-wide mutations.
const platformKey = "platform"

// appendEvent records a notification in the current transaction.
func appendEvent(ctx context.Context, repos repository.Repositories, typ domain.EventType, key string, payload any, at time.Time) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return repos.Events().Append(ctx, &domain.Event{
		ID:        uuid.New().String(),
		Type:      typ,
		Key:       key,
		Payload:   data,
		CreatedAt: at,
	})
}

// loadPlatform returns the platform configuration visible to repos.
func loadPlatform(ctx context.Context, repos repository.Repositories) (*domain.PlatformConfig, error) {
	cfg, err := repos.Platform().Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlatformNotInitialized
		}
		return nil, err
	}
	return cfg, nil
}

// requireRole fails with domain.ErrUnauthorized unless addr holds role.
func requireRole(ctx context.Context, repos repository.Repositories, role domain.Role, addr domain.Address) error {
	roles, err := repos.Roles().Get(ctx, addr)
	if err != nil {
		return err
	}
	if !roles.Has(role) {
		return domain.ErrUnauthorized
	}
	return nil
}

// now is the clock used for record and event timestamps.
func now() time.Time {
	return time.Now().UTC()
}
