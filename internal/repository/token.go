package repository

import (
	"context"

	"paymenthub/internal/domain"
)

// TokenRepository stores token balances and allowances in base units.
type TokenRepository interface {
	Balance(ctx context.Context, addr domain.Address) (uint64, error)
	SetBalance(ctx context.Context, addr domain.Address, amount uint64) error
	Allowance(ctx context.Context, owner, spender domain.Address) (uint64, error)
	SetAllowance(ctx context.Context, owner, spender domain.Address, amount uint64) error
}
