package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"paymenthub/internal/domain"
	"paymenthub/internal/fee"
	"paymenthub/internal/repository"
)

// PlatformService owns the platform configuration and the pause switch.
type PlatformService struct {
	store  repository.Store
	exec   *Executor
	logger *zap.Logger
}

// NewPlatformService creates a new PlatformService.
func NewPlatformService(store repository.Store, exec *Executor, logger *zap.Logger) *PlatformService {
	return &PlatformService{store: store, exec: exec, logger: logger}
}

// Bootstrap stores cfg and grants ADMIN to deployer. It fails with
// domain.ErrFeeTooHigh when the fee exceeds its ceiling. On a store that is
// already bootstrapped it returns the stored configuration unchanged.
func (s *PlatformService) Bootstrap(ctx context.Context, deployer domain.Address, cfg domain.PlatformConfig) (*domain.PlatformConfig, error) {
	if err := fee.ValidateRate(cfg.FeeBps, cfg.MaxFeeBps); err != nil {
		return nil, err
	}
	if deployer.IsZero() || cfg.FeeRecipient.IsZero() || cfg.Custody.IsZero() {
		return nil, domain.ErrInvalidAddress
	}

	var stored *domain.PlatformConfig
	created := false
	err := s.exec.Execute(ctx, platformKey, func(ctx context.Context, repos repository.Repositories) error {
		existing, err := repos.Platform().Get(ctx)
		if err == nil {
			stored = existing
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		cfg.Paused = false
		if err := repos.Platform().Save(ctx, &cfg); err != nil {
			return err
		}

		roles, err := repos.Roles().Get(ctx, deployer)
		if err != nil {
			return err
		}
		if err := repos.Roles().Set(ctx, deployer, roles.With(domain.RoleAdmin)); err != nil {
			return err
		}

		stored, created = &cfg, true
		return appendEvent(ctx, repos, domain.EventRoleGranted, deployer.String(), domain.RoleChanged{
			Role:    domain.RoleAdmin.String(),
			Account: deployer,
			Sender:  deployer,
		}, now())
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.Info("platform bootstrapped",
			zap.String("deployer", deployer.String()),
			zap.Uint32("fee_bps", stored.FeeBps),
			zap.String("fee_recipient", stored.FeeRecipient.String()),
			zap.String("custody", stored.Custody.String()),
		)
	}
	return stored, nil
}

// Status returns the current platform configuration.
func (s *PlatformService) Status(ctx context.Context) (*domain.PlatformConfig, error) {
	return loadPlatform(ctx, s.store)
}

// Pause stops checkout. Refunds are not affected. ADMIN only.
func (s *PlatformService) Pause(ctx context.Context, caller domain.Address) error {
	return s.setPaused(ctx, caller, true)
}

// Unpause resumes checkout. ADMIN only.
func (s *PlatformService) Unpause(ctx context.Context, caller domain.Address) error {
	return s.setPaused(ctx, caller, false)
}

func (s *PlatformService) setPaused(ctx context.Context, caller domain.Address, paused bool) error {
	err := s.exec.Execute(ctx, platformKey, func(ctx context.Context, repos repository.Repositories) error {
		if err := requireRole(ctx, repos, domain.RoleAdmin, caller); err != nil {
			return err
		}

		cfg, err := loadPlatform(ctx, repos)
		if err != nil {
			return err
		}
		switch {
		case paused && cfg.Paused:
			return ErrAlreadyPaused
		case !paused && !cfg.Paused:
			return ErrNotPaused
		}

		cfg.Paused = paused
		if err := repos.Platform().Save(ctx, cfg); err != nil {
			return err
		}

		typ := domain.EventUnpaused
		if paused {
			typ = domain.EventPaused
		}
		return appendEvent(ctx, repos, typ, platformKey, domain.PauseChanged{Account: caller}, now())
	})
	if err != nil {
		return err
	}

	s.logger.Info("pause switch changed", zap.Bool("paused", paused), zap.String("account", caller.String()))
	return nil
}
