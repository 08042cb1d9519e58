package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paymenthub/internal/domain"
	"paymenthub/internal/token"
)

func TestCheckout_SplitsFeeAndDisburses(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	p := f.pay(t, "order-1", usdc(100))

	assert.Equal(t, usdc(2), p.Fee)
	assert.Equal(t, usdc(98), p.MerchantAmount)
	assert.Equal(t, p.GrossAmount, p.Fee+p.MerchantAmount)
	assert.Equal(t, domain.PaymentStateProcessed, p.State())

	assert.Equal(t, usdc(98), f.balance(t, merchant))
	assert.Equal(t, usdc(2), f.balance(t, feeAccount))
	assert.Equal(t, usdc(900), f.balance(t, consumer))
	assert.Zero(t, f.balance(t, custody))

	allowance, err := f.tokens.Allowance(context.Background(), consumer)
	require.NoError(t, err)
	assert.Zero(t, allowance)
}

func TestCheckout_SmallAmountScenario(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	p := f.pay(t, "scenario-a", 100)

	assert.Equal(t, uint64(2), p.Fee)
	assert.Equal(t, uint64(98), p.MerchantAmount)
}

func TestCheckout_EmitsPaymentProcessed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	p := f.pay(t, "order-events", usdc(10))

	events, err := f.payments.Events(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventPaymentProcessed, events[0].Type)
	assert.JSONEq(t, `{
		"payment_id": "`+p.ID.String()+`",
		"consumer": "`+consumer.String()+`",
		"merchant": "`+merchant.String()+`",
		"gross_amount": 10000000,
		"fee": 200000,
		"merchant_amount": 9800000
	}`, string(events[0].Payload))
}

func TestCheckout_Preconditions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(t *testing.T, f *fixture)
		req     func(t *testing.T) CheckoutRequest
		wantErr error
	}{
		{
			name: "zero amount",
			req: func(t *testing.T) CheckoutRequest {
				return CheckoutRequest{PaymentID: paymentID(t, "zero"), Consumer: consumer, Merchant: merchant}
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "payee is not a merchant",
			req: func(t *testing.T) CheckoutRequest {
				return CheckoutRequest{PaymentID: paymentID(t, "nm"), Consumer: consumer, Merchant: admin, GrossAmount: usdc(10)}
			},
			wantErr: domain.ErrNotMerchant,
		},
		{
			name: "paused",
			setup: func(t *testing.T, f *fixture) {
				require.NoError(t, f.platform.Pause(context.Background(), deployer))
			},
			req: func(t *testing.T) CheckoutRequest {
				return CheckoutRequest{PaymentID: paymentID(t, "paused"), Consumer: consumer, Merchant: merchant, GrossAmount: usdc(10)}
			},
			wantErr: domain.ErrSystemPaused,
		},
		{
			name: "paused wins over zero amount",
			setup: func(t *testing.T, f *fixture) {
				require.NoError(t, f.platform.Pause(context.Background(), deployer))
			},
			req: func(t *testing.T) CheckoutRequest {
				return CheckoutRequest{PaymentID: paymentID(t, "paused-zero"), Consumer: consumer, Merchant: stranger}
			},
			wantErr: domain.ErrSystemPaused,
		},
		{
			name: "zero amount wins over non-merchant",
			req: func(t *testing.T) CheckoutRequest {
				return CheckoutRequest{PaymentID: paymentID(t, "zero-nm"), Consumer: consumer, Merchant: stranger}
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "no allowance",
			req: func(t *testing.T) CheckoutRequest {
				return CheckoutRequest{PaymentID: paymentID(t, "no-allowance"), Consumer: consumer, Merchant: merchant, GrossAmount: usdc(10)}
			},
			wantErr: token.ErrInsufficientAllowance,
		},
		{
			name: "paused wins over zero merchant address",
			setup: func(t *testing.T, f *fixture) {
				require.NoError(t, f.platform.Pause(context.Background(), deployer))
			},
			req: func(t *testing.T) CheckoutRequest {
				return CheckoutRequest{PaymentID: paymentID(t, "paused-zero-merchant"), Consumer: consumer, Merchant: domain.ZeroAddress, GrossAmount: 1}
			},
			wantErr: domain.ErrSystemPaused,
		},
		{
			name: "zero amount wins over zero merchant address",
			req: func(t *testing.T) CheckoutRequest {
				return CheckoutRequest{PaymentID: paymentID(t, "zero-zero-merchant"), Consumer: consumer, Merchant: domain.ZeroAddress}
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "zero consumer address",
			req: func(t *testing.T) CheckoutRequest {
				return CheckoutRequest{PaymentID: paymentID(t, "zero-addr"), Consumer: domain.ZeroAddress, Merchant: merchant, GrossAmount: 1}
			},
			wantErr: domain.ErrInvalidAddress,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(t, f)
			}

			req := tt.req(t)
			_, err := f.checkout.Checkout(context.Background(), req)
			require.ErrorIs(t, err, tt.wantErr)

			_, err = f.payments.GetPaymentInfo(context.Background(), req.PaymentID)
			assert.ErrorIs(t, err, domain.ErrPaymentNotProcessed)
		})
	}
}

func TestCheckout_DuplicatePaymentID(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	first := f.pay(t, "x", 50)

	require.NoError(t, f.tokens.Approve(context.Background(), consumer, 50))
	_, err := f.checkout.Checkout(context.Background(), CheckoutRequest{
		PaymentID:   first.ID,
		Consumer:    consumer,
		Merchant:    merchant,
		GrossAmount: 50,
	})
	require.ErrorIs(t, err, domain.ErrPaymentAlreadyProcessed)

	stored, err := f.payments.GetPaymentInfo(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt.UnixNano(), stored.CreatedAt.UnixNano())
	assert.Equal(t, usdc(1000)-50, f.balance(t, consumer))
}

func TestCheckout_InsufficientBalanceRollsBackEverything(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.tokens.Approve(ctx, consumer, usdc(5000)))
	id := paymentID(t, "too-big")
	_, err := f.checkout.Checkout(ctx, CheckoutRequest{PaymentID: id, Consumer: consumer, Merchant: merchant, GrossAmount: usdc(5000)})
	require.ErrorIs(t, err, token.ErrInsufficientBalance)

	_, err = f.payments.GetPaymentInfo(ctx, id)
	assert.ErrorIs(t, err, domain.ErrPaymentNotProcessed)

	events, err := f.store.Events().ListByKey(ctx, id.String())
	require.NoError(t, err)
	assert.Empty(t, events)

	assert.Equal(t, usdc(1000), f.balance(t, consumer))
	assert.Zero(t, f.balance(t, merchant))
	assert.Zero(t, f.balance(t, feeAccount))

	allowance, err := f.tokens.Allowance(ctx, consumer)
	require.NoError(t, err)
	assert.Equal(t, usdc(5000), allowance)
}

func TestCheckout_SucceedsAgainAfterUnpause(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.platform.Pause(ctx, admin))
	require.NoError(t, f.tokens.Approve(ctx, consumer, usdc(1)))
	req := CheckoutRequest{PaymentID: paymentID(t, "after-unpause"), Consumer: consumer, Merchant: merchant, GrossAmount: usdc(1)}

	_, err := f.checkout.Checkout(ctx, req)
	require.ErrorIs(t, err, domain.ErrSystemPaused)

	require.NoError(t, f.platform.Unpause(ctx, admin))
	_, err = f.checkout.Checkout(ctx, req)
	require.NoError(t, err)
}

func TestCheckout_RevokedMerchantCannotReceive(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	old := f.pay(t, "before-revoke", usdc(1))

	require.NoError(t, f.roles.RevokeMerchant(ctx, deployer, merchant))
	require.NoError(t, f.tokens.Approve(ctx, consumer, usdc(1)))
	_, err := f.checkout.Checkout(ctx, CheckoutRequest{PaymentID: paymentID(t, "after-revoke"), Consumer: consumer, Merchant: merchant, GrossAmount: usdc(1)})
	require.ErrorIs(t, err, domain.ErrNotMerchant)

	stored, err := f.payments.GetPaymentInfo(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, merchant, stored.Merchant)
}
