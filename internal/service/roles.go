package service

import (
	"context"

	"go.uber.org/zap"

	"paymenthub/internal/domain"
	"paymenthub/internal/repository"
)

// RoleService manages the ADMIN and MERCHANT capabilities.
// Reads always go to the store so changes are visible to the next call.
type RoleService struct {
	store  repository.Store
	exec   *Executor
	logger *zap.Logger
}

// NewRoleService creates a new RoleService.
func NewRoleService(store repository.Store, exec *Executor, logger *zap.Logger) *RoleService {
	return &RoleService{store: store, exec: exec, logger: logger}
}

// HasRole reports whether addr holds role.
func (s *RoleService) HasRole(ctx context.Context, role domain.Role, addr domain.Address) (bool, error) {
	roles, err := s.store.Roles().Get(ctx, addr)
	if err != nil {
		return false, err
	}
	return roles.Has(role), nil
}

// ListByRole returns every address holding role.
func (s *RoleService) ListByRole(ctx context.Context, role domain.Role) ([]domain.Address, error) {
	return s.store.Roles().ListByRole(ctx, role)
}

// GrantRole gives role to account. Only an ADMIN may grant. Granting a role the
// account already holds succeeds without emitting an event.
func (s *RoleService) GrantRole(ctx context.Context, caller domain.Address, role domain.Role, account domain.Address) error {
	return s.setRole(ctx, caller, role, account, true)
}

// RevokeRole takes role away from account. Only an ADMIN may revoke.
func (s *RoleService) RevokeRole(ctx context.Context, caller domain.Address, role domain.Role, account domain.Address) error {
	return s.setRole(ctx, caller, role, account, false)
}

// RegisterMerchant grants MERCHANT to merchant.
func (s *RoleService) RegisterMerchant(ctx context.Context, caller, merchant domain.Address) error {
	return s.GrantRole(ctx, caller, domain.RoleMerchant, merchant)
}

// RevokeMerchant revokes MERCHANT from merchant. Existing payments keep their merchant.
func (s *RoleService) RevokeMerchant(ctx context.Context, caller, merchant domain.Address) error {
	return s.RevokeRole(ctx, caller, domain.RoleMerchant, merchant)
}

func (s *RoleService) setRole(ctx context.Context, caller domain.Address, role domain.Role, account domain.Address, grant bool) error {
	if account.IsZero() {
		return domain.ErrInvalidAddress
	}
	if role != domain.RoleAdmin && role != domain.RoleMerchant {
		return domain.ErrInvalidRole
	}

	changed := false
	err := s.exec.Execute(ctx, platformKey, func(ctx context.Context, repos repository.Repositories) error {
		if err := requireRole(ctx, repos, domain.RoleAdmin, caller); err != nil {
			return err
		}

		current, err := repos.Roles().Get(ctx, account)
		if err != nil {
			return err
		}
		if current.Has(role) == grant {
			return nil
		}

		next, typ := current.With(role), domain.EventRoleGranted
		if !grant {
			next, typ = current.Without(role), domain.EventRoleRevoked
		}
		if err := repos.Roles().Set(ctx, account, next); err != nil {
			return err
		}

		changed = true
		return appendEvent(ctx, repos, typ, account.String(), domain.RoleChanged{
			Role:    role.String(),
			Account: account,
			Sender:  caller,
		}, now())
	})
	if err != nil {
		return err
	}

	if changed {
		s.logger.Info("role updated",
			zap.String("role", role.String()),
			zap.String("account", account.String()),
			zap.String("sender", caller.String()),
			zap.Bool("granted", grant),
		)
	}
	return nil
}
