package tests

import (
	"context"
	"errors"
	"testing"

	"paymenthub/internal/domain"
	"paymenthub/internal/service"
)

func checkoutOf(t *testing.T, ref string, gross uint64) service.CheckoutRequest {
	t.Helper()
	return service.CheckoutRequest{
		PaymentID:   id(t, ref),
		Consumer:    consumer,
		Merchant:    merchant,
		GrossAmount: gross,
	}
}

func TestMerchantRefund_ReentryFromTransferIsRejected(t *testing.T) {
	h := newHarness(t, 200)
	ctx := context.Background()
	p := h.mustPay(t, "reentrant", 1_000)
	h.requestAndFund(t, p, merchant, p.MerchantAmount)

	var reentryErrs []error
	h.store.OnSetBalance = func(ctx context.Context, addr domain.Address, amount uint64) error {
		if !service.InMutation(ctx) {
			t.Error("transfer ran outside the mutation")
		}
		// A hostile token tries to refund again while the first refund moves funds.
		_, err := h.refunds.MerchantRefund(ctx, p.ID, merchant, p.MerchantAmount)
		reentryErrs = append(reentryErrs, err)
		return nil
	}

	refunded, err := h.refunds.MerchantRefund(ctx, p.ID, merchant, p.MerchantAmount)
	h.store.OnSetBalance = nil
	if err != nil {
		t.Fatalf("outer refund: %v", err)
	}
	if !refunded.Refunded {
		t.Error("expected outer refund to complete")
	}

	if len(reentryErrs) == 0 {
		t.Fatal("transfer callback never ran")
	}
	for i, err := range reentryErrs {
		if !errors.Is(err, domain.ErrReentrantCall) {
			t.Errorf("reentry %d: expected ErrReentrantCall, got %v", i, err)
		}
	}

	// Paid out exactly once.
	if got, want := h.store.Balance(consumer), uint64(startingBalance-p.Fee); got != want {
		t.Errorf("expected consumer balance %d, got %d", want, got)
	}
	if got := h.store.Balance(merchant); got != 0 {
		t.Errorf("expected merchant to have refunded everything, %d left", got)
	}
}

func TestCheckout_ReentryAbortsWholeMutation(t *testing.T) {
	h := newHarness(t, 200)
	ctx := context.Background()
	if err := h.tokens.Approve(ctx, consumer, 2_000); err != nil {
		t.Fatal(err)
	}
	before := h.store.Snapshot()

	h.store.OnSetBalance = func(ctx context.Context, addr domain.Address, amount uint64) error {
		// A hostile token re-enters checkout with a second id and propagates the failure.
		_, err := h.checkout.Checkout(ctx, checkoutOf(t, "inner", 1_000))
		return err
	}
	_, err := h.checkout.Checkout(ctx, checkoutOf(t, "outer", 1_000))
	h.store.OnSetBalance = nil

	if !errors.Is(err, domain.ErrReentrantCall) {
		t.Fatalf("expected ErrReentrantCall, got %v", err)
	}
	if h.store.EventCount() != len(before.events) {
		t.Error("aborted checkout emitted events")
	}
	for _, ref := range []string{"outer", "inner"} {
		if _, err := h.payments.GetPaymentInfo(ctx, id(t, ref)); !errors.Is(err, domain.ErrPaymentNotProcessed) {
			t.Errorf("%s: expected no record, got %v", ref, err)
		}
	}
	if got := h.store.Balance(consumer); got != startingBalance {
		t.Errorf("expected consumer balance untouched, got %d", got)
	}
}

func TestExecutor_LockHeldElsewhere(t *testing.T) {
	h := newHarness(t, 200)
	ctx := context.Background()
	req := checkoutOf(t, "contended", 100)
	if err := h.tokens.Approve(ctx, consumer, 100); err != nil {
		t.Fatal(err)
	}

	h.locker.HoldElsewhere(req.PaymentID.String())
	if _, err := h.checkout.Checkout(ctx, req); !errors.Is(err, domain.ErrPaymentLocked) {
		t.Fatalf("expected ErrPaymentLocked, got %v", err)
	}
	if err := h.locker.Release(ctx, req.PaymentID.String()); err != nil {
		t.Fatal(err)
	}

	if _, err := h.checkout.Checkout(ctx, req); err != nil {
		t.Fatalf("checkout after release: %v", err)
	}
	if h.locker.IsHeld(req.PaymentID.String()) {
		t.Error("lock not released after commit")
	}
}

func TestExecutor_LockReleasedAfterFailure(t *testing.T) {
	h := newHarness(t, 200)
	req := checkoutOf(t, "fails-then-frees", 0)

	if _, err := h.checkout.Checkout(context.Background(), req); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if h.locker.IsHeld(req.PaymentID.String()) {
		t.Error("lock still held after a failed mutation")
	}
	if h.locker.AcquireCount != h.locker.ReleaseCount {
		t.Errorf("acquired %d times but released %d", h.locker.AcquireCount, h.locker.ReleaseCount)
	}
}
