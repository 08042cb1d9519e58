package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"paymenthub/internal/domain"
	"paymenthub/internal/repository"
)

func TestExecutor_RejectsReentry(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	p := f.pay(t, "reentry", usdc(10))
	_, err := f.refunds.RequestRefund(context.Background(), p.ID, consumer, "")
	require.NoError(t, err)
	require.NoError(t, f.tokens.Approve(context.Background(), merchant, usdc(20)))

	var inner error
	err = f.exec.Execute(context.Background(), p.ID.String(), func(ctx context.Context, repos repository.Repositories) error {
		_, inner = f.refunds.MerchantRefund(ctx, p.ID, merchant, usdc(1))
		return nil
	})
	require.NoError(t, err)
	require.ErrorIs(t, inner, domain.ErrReentrantCall)

	refunded, err := f.payments.IsRefunded(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, refunded)
}

func TestExecutor_LockHeldElsewhere(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	locker := NewLocalLocker()
	exec := NewExecutor(f.store, locker, 0, zap.NewNop())

	ok, err := locker.Acquire(context.Background(), "k", DefaultLockTTL)
	require.NoError(t, err)
	require.True(t, ok)

	called := false
	err = exec.Execute(context.Background(), "k", func(ctx context.Context, repos repository.Repositories) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, domain.ErrPaymentLocked)
	assert.False(t, called)

	require.NoError(t, locker.Release(context.Background(), "k"))
	require.NoError(t, exec.Execute(context.Background(), "k", func(ctx context.Context, repos repository.Repositories) error {
		return nil
	}))
}

func TestExecutor_CommitHooksOnlyOnSuccess(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	var keys []string
	f.exec.OnCommit(func(ctx context.Context, key string) {
		assert.False(t, InMutation(ctx))
		keys = append(keys, key)
	})

	boom := errors.New("boom")
	err := f.exec.Execute(context.Background(), "a", func(ctx context.Context, repos repository.Repositories) error {
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, f.exec.Execute(context.Background(), "b", func(ctx context.Context, repos repository.Repositories) error {
		assert.True(t, InMutation(ctx))
		return nil
	}))
	assert.Equal(t, []string{"b"}, keys)
}

func TestExecutor_ConcurrentCheckoutsOfOneID(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.tokens.Approve(ctx, consumer, usdc(100)))

	id := paymentID(t, "race")
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		duplicate atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.checkout.Checkout(ctx, CheckoutRequest{PaymentID: id, Consumer: consumer, Merchant: merchant, GrossAmount: usdc(10)})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrPaymentAlreadyProcessed):
				duplicate.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(9), duplicate.Load())
	assert.Equal(t, usdc(990), f.balance(t, consumer))
}

func TestExecutor_ConcurrentRefundsPayOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	p := f.pay(t, "double-refund", usdc(10))
	_, err := f.refunds.RequestRefund(ctx, p.ID, consumer, "")
	require.NoError(t, err)
	require.NoError(t, f.tokens.Approve(ctx, merchant, usdc(100)))

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.refunds.MerchantRefund(ctx, p.ID, merchant, usdc(1)); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, usdc(991), f.balance(t, consumer))
}
