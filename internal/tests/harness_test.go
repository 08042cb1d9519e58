package tests

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"paymenthub/internal/domain"
	"paymenthub/internal/service"
)

var (
	deployer   = domain.MustParseAddress("0xd000000000000000000000000000000000000001")
	merchant   = domain.MustParseAddress("0xa000000000000000000000000000000000000002")
	consumer   = domain.MustParseAddress("0xc000000000000000000000000000000000000003")
	feeAccount = domain.MustParseAddress("0xf000000000000000000000000000000000000004")
	custody    = domain.MustParseAddress("0xe000000000000000000000000000000000000005")
	outsider   = domain.MustParseAddress("0xb000000000000000000000000000000000000006")
)

const startingBalance = 1_000_000

type harness struct {
	store    *MockStore
	locker   *MockLocker
	cache    *MockPaymentCache
	exec     *service.Executor
	roles    *service.RoleService
	platform *service.PlatformService
	checkout *service.CheckoutService
	refunds  *service.RefundService
	payments *service.PaymentService
	tokens   *service.TokenService
}

// newHarness wires the services over the in-memory store and bootstraps a
// platform charging feeBps, with one merchant and a funded consumer.
func newHarness(t *testing.T, feeBps uint32) *harness {
	t.Helper()

	logger := zap.NewNop()
	store := NewMockStore()
	locker := NewMockLocker()
	cache := NewMockPaymentCache()
	exec := service.NewExecutor(store, locker, 0, logger)

	h := &harness{
		store:    store,
		locker:   locker,
		cache:    cache,
		exec:     exec,
		roles:    service.NewRoleService(store, exec, logger),
		platform: service.NewPlatformService(store, exec, logger),
		checkout: service.NewCheckoutService(exec, logger),
		refunds:  service.NewRefundService(exec, logger),
		payments: service.NewPaymentService(store, cache, logger),
		tokens:   service.NewTokenService(store, exec, service.FaucetConfig{Enabled: true}, logger),
	}
	exec.OnCommit(h.payments.Invalidate)

	ctx := context.Background()
	if _, err := h.platform.Bootstrap(ctx, deployer, domain.PlatformConfig{
		FeeBps:       feeBps,
		MaxFeeBps:    1000,
		FeeRecipient: feeAccount,
		Custody:      custody,
	}); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if err := h.roles.RegisterMerchant(ctx, deployer, merchant); err != nil {
		t.Fatalf("register merchant: %v", err)
	}
	if err := h.tokens.Faucet(ctx, consumer, startingBalance); err != nil {
		t.Fatalf("faucet: %v", err)
	}
	return h
}

func id(t *testing.T, ref string) domain.PaymentID {
	t.Helper()
	pid, err := domain.PaymentIDFromReference(ref)
	if err != nil {
		t.Fatalf("payment id: %v", err)
	}
	return pid
}

// pay approves exactly gross and checks out.
func (h *harness) pay(ctx context.Context, pid domain.PaymentID, gross uint64) (*domain.Payment, error) {
	if err := h.tokens.Approve(ctx, consumer, gross); err != nil {
		return nil, err
	}
	return h.checkout.Checkout(ctx, service.CheckoutRequest{
		PaymentID:   pid,
		Consumer:    consumer,
		Merchant:    merchant,
		GrossAmount: gross,
	})
}

func (h *harness) mustPay(t *testing.T, ref string, gross uint64) *domain.Payment {
	t.Helper()
	p, err := h.pay(context.Background(), id(t, ref), gross)
	if err != nil {
		t.Fatalf("checkout %s: %v", ref, err)
	}
	return p
}

// requestAndFund puts p into REFUND_REQUESTED and approves amount from funder.
func (h *harness) requestAndFund(t *testing.T, p *domain.Payment, funder domain.Address, amount uint64) {
	t.Helper()
	ctx := context.Background()
	if _, err := h.refunds.RequestRefund(ctx, p.ID, consumer, "not as described"); err != nil {
		t.Fatalf("request refund: %v", err)
	}
	if err := h.tokens.Approve(ctx, funder, amount); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

// totalSupply sums every committed balance.
func (h *harness) totalSupply() uint64 {
	var sum uint64
	for _, b := range h.store.Snapshot().balances {
		sum += b
	}
	return sum
}
