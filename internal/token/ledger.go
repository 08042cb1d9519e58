// Package token implements the fungible-token operations the ledger moves value with:
// balances, allowances, transfer and transfer-from with pre-authorization.
package token

import (
	"context"
	"errors"
	"math/bits"

	"paymenthub/internal/domain"
	"paymenthub/internal/repository"
)

var (
	// ErrInsufficientBalance is returned when the source account cannot cover a transfer.
	ErrInsufficientBalance = errors.New("insufficient token balance")

	// ErrInsufficientAllowance is returned when the spender was not pre-authorized for the amount.
	ErrInsufficientAllowance = errors.New("insufficient token allowance")
)

// Ledger applies token operations to a TokenRepository. Bind it to the
// repositories of a transaction so failed transfers roll back with everything else.
type Ledger struct {
	repo repository.TokenRepository
}

// New creates a Ledger over repo.
func New(repo repository.TokenRepository) *Ledger {
	return &Ledger{repo: repo}
}

// BalanceOf returns the balance of addr.
func (l *Ledger) BalanceOf(ctx context.Context, addr domain.Address) (uint64, error) {
	return l.repo.Balance(ctx, addr)
}

// Allowance returns how much spender may move out of owner's balance.
func (l *Ledger) Allowance(ctx context.Context, owner, spender domain.Address) (uint64, error) {
	return l.repo.Allowance(ctx, owner, spender)
}

// Approve sets the allowance of spender over owner's balance, replacing any previous value.
func (l *Ledger) Approve(ctx context.Context, owner, spender domain.Address, amount uint64) error {
	if owner.IsZero() || spender.IsZero() {
		return domain.ErrInvalidAddress
	}
	return l.repo.SetAllowance(ctx, owner, spender, amount)
}

// Mint credits newly issued tokens to addr.
func (l *Ledger) Mint(ctx context.Context, to domain.Address, amount uint64) error {
	if to.IsZero() {
		return domain.ErrInvalidAddress
	}
	return l.credit(ctx, to, amount)
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(ctx context.Context, from, to domain.Address, amount uint64) error {
	if from.IsZero() || to.IsZero() {
		return domain.ErrInvalidAddress
	}
	if amount == 0 || from == to {
		return nil
	}
	if err := l.debit(ctx, from, amount); err != nil {
		return err
	}
	return l.credit(ctx, to, amount)
}

// TransferFrom moves amount out of from on behalf of spender, consuming allowance.
func (l *Ledger) TransferFrom(ctx context.Context, spender, from, to domain.Address, amount uint64) error {
	allowance, err := l.repo.Allowance(ctx, from, spender)
	if err != nil {
		return err
	}
	if allowance < amount {
		return ErrInsufficientAllowance
	}
	if err := l.Transfer(ctx, from, to, amount); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	return l.repo.SetAllowance(ctx, from, spender, allowance-amount)
}

func (l *Ledger) debit(ctx context.Context, addr domain.Address, amount uint64) error {
	balance, err := l.repo.Balance(ctx, addr)
	if err != nil {
		return err
	}
	if balance < amount {
		return ErrInsufficientBalance
	}
	return l.repo.SetBalance(ctx, addr, balance-amount)
}

func (l *Ledger) credit(ctx context.Context, addr domain.Address, amount uint64) error {
	balance, err := l.repo.Balance(ctx, addr)
	if err != nil {
		return err
	}
	sum, carry := bits.Add64(balance, amount, 0)
	if carry != 0 {
		return domain.ErrArithmeticOverflow
	}
	return l.repo.SetBalance(ctx, addr, sum)
}
