package tests

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"paymenthub/internal/domain"
	"paymenthub/internal/token"
)

var errDisk = errors.New("disk full")

func TestCheckout_RollsBackOnAnyFailure(t *testing.T) {
	ops := []string{OpCreatePayment, OpAppendEvent, OpSetBalance, OpSetAllowance}

	for _, op := range ops {
		t.Run(op, func(t *testing.T) {
			h := newHarness(t, 200)
			ctx := context.Background()
			if err := h.tokens.Approve(ctx, consumer, 1_000); err != nil {
				t.Fatal(err)
			}
			before := h.store.Snapshot()
			rollbacks := h.store.RollbackCount

			h.store.FailOn(op, errDisk)
			_, err := h.checkout.Checkout(ctx, checkoutOf(t, "fails", 1_000))
			if !errors.Is(err, errDisk) {
				t.Fatalf("expected injected error, got %v", err)
			}

			if !reflect.DeepEqual(before, h.store.Snapshot()) {
				t.Error("failed checkout left state behind")
			}
			if h.store.RollbackCount != rollbacks+1 {
				t.Errorf("expected one rollback, got %d", h.store.RollbackCount-rollbacks)
			}

			// The same id is still free once the fault clears.
			h.store.FailOn(op, nil)
			if _, err := h.checkout.Checkout(ctx, checkoutOf(t, "fails", 1_000)); err != nil {
				t.Errorf("retry after fault: %v", err)
			}
		})
	}
}

func TestCheckout_InsufficientFundsLeavesNoRecord(t *testing.T) {
	h := newHarness(t, 200)
	ctx := context.Background()

	tests := []struct {
		name      string
		approve   uint64
		gross     uint64
		wantError error
	}{
		{"allowance", 10, 11, token.ErrInsufficientAllowance},
		{"balance", startingBalance + 1, startingBalance + 1, token.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := h.tokens.Approve(ctx, consumer, tt.approve); err != nil {
				t.Fatal(err)
			}
			before := h.store.Snapshot()

			req := checkoutOf(t, "underfunded-"+tt.name, tt.gross)
			_, err := h.checkout.Checkout(ctx, req)
			if !errors.Is(err, tt.wantError) {
				t.Fatalf("expected %v, got %v", tt.wantError, err)
			}

			if !reflect.DeepEqual(before, h.store.Snapshot()) {
				t.Error("failed checkout left state behind")
			}
			if _, err := h.payments.GetPaymentInfo(ctx, req.PaymentID); !errors.Is(err, domain.ErrPaymentNotProcessed) {
				t.Errorf("expected no record, got %v", err)
			}
		})
	}
}

func TestMerchantRefund_UnfundedKeepsRequest(t *testing.T) {
	h := newHarness(t, 200)
	ctx := context.Background()
	p := h.mustPay(t, "unfunded-refund", 1_000)

	if _, err := h.refunds.RequestRefund(ctx, p.ID, consumer, "broken"); err != nil {
		t.Fatal(err)
	}
	before := h.store.Snapshot()

	// Nothing approved: the record was already marked refunded inside the
	// transaction when the transfer failed.
	_, err := h.refunds.MerchantRefund(ctx, p.ID, merchant, p.MerchantAmount)
	if !errors.Is(err, token.ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}

	if !reflect.DeepEqual(before, h.store.Snapshot()) {
		t.Error("failed refund left state behind")
	}
	got, err := h.payments.GetPaymentInfo(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State() != domain.PaymentStateRefundRequested {
		t.Errorf("expected REFUND_REQUESTED, got %s", got.State())
	}
}

func TestRoleChange_RollsBackWithEvent(t *testing.T) {
	h := newHarness(t, 200)
	ctx := context.Background()
	before := h.store.Snapshot()

	h.store.FailOn(OpAppendEvent, errDisk)
	if err := h.roles.RegisterMerchant(ctx, deployer, outsider); !errors.Is(err, errDisk) {
		t.Fatalf("expected injected error, got %v", err)
	}

	has, err := h.roles.HasRole(ctx, domain.RoleMerchant, outsider)
	if err != nil {
		t.Fatal(err)
	}
	if has {
		t.Error("role granted although its event was not recorded")
	}
	if !reflect.DeepEqual(before, h.store.Snapshot()) {
		t.Error("failed grant left state behind")
	}
}
