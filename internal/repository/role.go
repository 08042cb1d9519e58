package repository

import (
	"context"

	"paymenthub/internal/domain"
)

// RoleRepository stores the role bitset of each address.
type RoleRepository interface {
	// Get returns the roles held by addr, or an empty set.
	Get(ctx context.Context, addr domain.Address) (domain.RoleSet, error)

	// Set replaces the roles held by addr.
	Set(ctx context.Context, addr domain.Address, roles domain.RoleSet) error

	// ListByRole returns every address holding role.
	ListByRole(ctx context.Context, role domain.Role) ([]domain.Address, error)
}
