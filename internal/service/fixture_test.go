package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"paymenthub/internal/domain"
	"paymenthub/internal/repository/boltdb"
)

var (
	deployer   = domain.MustParseAddress("0x1000000000000000000000000000000000000001")
	admin      = domain.MustParseAddress("0x2000000000000000000000000000000000000002")
	merchant   = domain.MustParseAddress("0x3000000000000000000000000000000000000003")
	consumer   = domain.MustParseAddress("0x4000000000000000000000000000000000000004")
	feeAccount = domain.MustParseAddress("0x5000000000000000000000000000000000000005")
	custody    = domain.MustParseAddress("0x6000000000000000000000000000000000000006")
	stranger   = domain.MustParseAddress("0x7000000000000000000000000000000000000007")
)

// usdc converts whole tokens to 6-decimal base units.
func usdc(n uint64) uint64 {
	return n * 1_000_000
}

func paymentID(t *testing.T, ref string) domain.PaymentID {
	t.Helper()
	id, err := domain.PaymentIDFromReference(ref)
	require.NoError(t, err)
	return id
}

type fixture struct {
	store    *boltdb.Store
	exec     *Executor
	roles    *RoleService
	platform *PlatformService
	checkout *CheckoutService
	refunds  *RefundService
	payments *PaymentService
	tokens   *TokenService
}

// newFixture bootstraps a platform with a 2% fee, one merchant, one extra
// admin and a consumer holding 1000 tokens.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := boltdb.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := zap.NewNop()
	exec := NewExecutor(store, nil, 0, logger)
	f := &fixture{
		store:    store,
		exec:     exec,
		roles:    NewRoleService(store, exec, logger),
		platform: NewPlatformService(store, exec, logger),
		checkout: NewCheckoutService(exec, logger),
		refunds:  NewRefundService(exec, logger),
		payments: NewPaymentService(store, nil, logger),
		tokens:   NewTokenService(store, exec, FaucetConfig{Enabled: true, MaxAmount: usdc(10_000)}, logger),
	}

	ctx := context.Background()
	_, err = f.platform.Bootstrap(ctx, deployer, domain.PlatformConfig{
		FeeBps:       200,
		MaxFeeBps:    1000,
		FeeRecipient: feeAccount,
		Custody:      custody,
	})
	require.NoError(t, err)
	require.NoError(t, f.roles.RegisterMerchant(ctx, deployer, merchant))
	require.NoError(t, f.roles.GrantRole(ctx, deployer, domain.RoleAdmin, admin))
	require.NoError(t, f.tokens.Faucet(ctx, consumer, usdc(1000)))

	return f
}

// pay approves and checks out gross from consumer to merchant.
func (f *fixture) pay(t *testing.T, ref string, gross uint64) *domain.Payment {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.tokens.Approve(ctx, consumer, gross))
	p, err := f.checkout.Checkout(ctx, CheckoutRequest{
		PaymentID:   paymentID(t, ref),
		Consumer:    consumer,
		Merchant:    merchant,
		GrossAmount: gross,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) balance(t *testing.T, addr domain.Address) uint64 {
	t.Helper()
	b, err := f.tokens.Balance(context.Background(), addr)
	require.NoError(t, err)
	return b
}
