package service

import (
	"context"

	"go.uber.org/zap"

	"paymenthub/internal/domain"
	"paymenthub/internal/repository"
	"paymenthub/internal/token"
)

// FaucetConfig controls test-token minting.
type FaucetConfig struct {
	Enabled   bool
	MaxAmount uint64
}

// TokenService exposes the token operations callers need around checkout and
// refunds: approving the custody account and reading balances.
type TokenService struct {
	store  repository.Store
	exec   *Executor
	faucet FaucetConfig
	logger *zap.Logger
}

// NewTokenService creates a new TokenService.
func NewTokenService(store repository.Store, exec *Executor, faucet FaucetConfig, logger *zap.Logger) *TokenService {
	return &TokenService{store: store, exec: exec, faucet: faucet, logger: logger}
}

// Approve lets the custody account pull up to amount from owner. It replaces
// any previous allowance.
func (s *TokenService) Approve(ctx context.Context, owner domain.Address, amount uint64) error {
	err := s.exec.Execute(ctx, tokenKey(owner), func(ctx context.Context, repos repository.Repositories) error {
		cfg, err := loadPlatform(ctx, repos)
		if err != nil {
			return err
		}
		return token.New(repos.Tokens()).Approve(ctx, owner, cfg.Custody, amount)
	})
	if err != nil {
		return err
	}

	s.logger.Info("allowance approved", zap.String("owner", owner.String()), zap.Uint64("amount", amount))
	return nil
}

// Faucet mints amount to the given account when the faucet is enabled.
func (s *TokenService) Faucet(ctx context.Context, to domain.Address, amount uint64) error {
	if !s.faucet.Enabled {
		return ErrFaucetDisabled
	}
	if amount == 0 {
		return domain.ErrInvalidAmount
	}
	if s.faucet.MaxAmount > 0 && amount > s.faucet.MaxAmount {
		return ErrFaucetAmountTooHigh
	}

	err := s.exec.Execute(ctx, tokenKey(to), func(ctx context.Context, repos repository.Repositories) error {
		return token.New(repos.Tokens()).Mint(ctx, to, amount)
	})
	if err != nil {
		return err
	}

	s.logger.Info("faucet minted", zap.String("to", to.String()), zap.Uint64("amount", amount))
	return nil
}

// Balance returns the token balance of addr.
func (s *TokenService) Balance(ctx context.Context, addr domain.Address) (uint64, error) {
	return token.New(s.store.Tokens()).BalanceOf(ctx, addr)
}

// Allowance returns how much the custody account may pull from owner.
func (s *TokenService) Allowance(ctx context.Context, owner domain.Address) (uint64, error) {
	cfg, err := loadPlatform(ctx, s.store)
	if err != nil {
		return 0, err
	}
	return token.New(s.store.Tokens()).Allowance(ctx, owner, cfg.Custody)
}

func tokenKey(addr domain.Address) string {
	return "token:" + addr.String()
}
