package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"paymenthub/internal/domain"
)

// TokenRepository is a PostgreSQL implementation of repository.TokenRepository.
type TokenRepository struct {
	q    Querier
	lock bool
}

func (r *TokenRepository) scanAmount(ctx context.Context, query string, args ...any) (uint64, error) {
	var v decimal.Decimal
	err := r.q.QueryRowContext(ctx, query+forUpdate(r.lock), args...).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return fromNumeric(v)
}

// Balance returns the balance of addr. Inside a transaction the row is
// created first so concurrent credits to a new account serialize on it.
func (r *TokenRepository) Balance(ctx context.Context, addr domain.Address) (uint64, error) {
	if r.lock {
		if _, err := r.q.ExecContext(ctx, `INSERT INTO token_balances (address, balance) VALUES ($1, 0) ON CONFLICT DO NOTHING`, addr); err != nil {
			return 0, err
		}
	}
	return r.scanAmount(ctx, `SELECT balance FROM token_balances WHERE address = $1`, addr)
}

// SetBalance stores the balance of addr. A zero balance removes the row.
func (r *TokenRepository) SetBalance(ctx context.Context, addr domain.Address, amount uint64) error {
	if amount == 0 {
		_, err := r.q.ExecContext(ctx, `DELETE FROM token_balances WHERE address = $1`, addr)
		return err
	}

	query := `
		INSERT INTO token_balances (address, balance) VALUES ($1, $2)
		ON CONFLICT (address) DO UPDATE SET balance = EXCLUDED.balance
	`
	_, err := r.q.ExecContext(ctx, query, addr, numeric(amount))
	return err
}

// Allowance returns the allowance of spender over owner.
func (r *TokenRepository) Allowance(ctx context.Context, owner, spender domain.Address) (uint64, error) {
	return r.scanAmount(ctx, `SELECT amount FROM token_allowances WHERE owner = $1 AND spender = $2`, owner, spender)
}

// SetAllowance stores the allowance of spender over owner.
func (r *TokenRepository) SetAllowance(ctx context.Context, owner, spender domain.Address, amount uint64) error {
	if amount == 0 {
		_, err := r.q.ExecContext(ctx, `DELETE FROM token_allowances WHERE owner = $1 AND spender = $2`, owner, spender)
		return err
	}

	query := `
		INSERT INTO token_allowances (owner, spender, amount) VALUES ($1, $2, $3)
		ON CONFLICT (owner, spender) DO UPDATE SET amount = EXCLUDED.amount
	`
	_, err := r.q.ExecContext(ctx, query, owner, spender, numeric(amount))
	return err
}
