package tests

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"paymenthub/internal/domain"
	"paymenthub/internal/events"
)

func newTestRelay(h *harness, pub *MockPublisher, dlq *MockDeadLetterQueue) *events.Relay {
	return events.NewRelay(h.store.Events(), pub, dlq, events.RelayConfig{BatchSize: 2, MaxAttempts: 3}, zap.NewNop())
}

func TestRelay_PublishesInSequenceOrder(t *testing.T) {
	h := newHarness(t, 200)
	ctx := context.Background()
	p := h.mustPay(t, "relay", 100)
	if _, err := h.refunds.RequestRefund(ctx, p.ID, consumer, "late"); err != nil {
		t.Fatal(err)
	}

	pub := &MockPublisher{}
	relay := newTestRelay(h, pub, &MockDeadLetterQueue{})

	n, err := relay.Flush(ctx)
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	published := pub.Published()
	if n != h.store.EventCount() || len(published) != n {
		t.Fatalf("expected all %d events delivered, flushed %d and published %d", h.store.EventCount(), n, len(published))
	}
	for i := 1; i < len(published); i++ {
		if published[i].Sequence <= published[i-1].Sequence {
			t.Errorf("event %d out of order: %d after %d", i, published[i].Sequence, published[i-1].Sequence)
		}
	}
	last := published[len(published)-1]
	if last.Type != domain.EventRefundRequested || last.Key != p.ID.String() {
		t.Errorf("expected RefundRequested for %s last, got %s for %s", p.ID, last.Type, last.Key)
	}

	// Nothing left to deliver.
	if n, err := relay.Flush(ctx); err != nil || n != 0 {
		t.Errorf("expected empty second flush, got %d (%v)", n, err)
	}
}

func TestRelay_DeadLettersAfterMaxAttempts(t *testing.T) {
	h := newHarness(t, 200)
	ctx := context.Background()
	h.mustPay(t, "dlq-1", 100)
	h.mustPay(t, "dlq-2", 100)

	pub := &MockPublisher{}
	pub.SetFailing(true)
	dlq := &MockDeadLetterQueue{}
	relay := newTestRelay(h, pub, dlq)

	for attempt := 1; attempt < 3; attempt++ {
		if _, err := relay.Flush(ctx); !errors.Is(err, ErrSinkDown) {
			t.Fatalf("attempt %d: expected ErrSinkDown, got %v", attempt, err)
		}
		if len(dlq.Events()) != 0 {
			t.Fatalf("attempt %d: dead-lettered too early", attempt)
		}
	}

	// Third failure moves the first batch aside; the next batch starts its own count.
	n, err := relay.Flush(ctx)
	if !errors.Is(err, ErrSinkDown) {
		t.Fatalf("expected the following batch to fail, got %v", err)
	}
	if n != 2 || len(dlq.Events()) != 2 {
		t.Errorf("expected one batch of 2 dead-lettered, flushed %d and dead-lettered %d", n, len(dlq.Events()))
	}

	pub.SetFailing(false)
	if _, err := relay.Flush(ctx); err != nil {
		t.Fatalf("flush after recovery: %v", err)
	}
	if got := len(pub.Published()) + len(dlq.Events()); got != h.store.EventCount() {
		t.Errorf("expected every event delivered or dead-lettered once, got %d of %d", got, h.store.EventCount())
	}
}

func TestPaymentCache_ServesOnlyRefundedPayments(t *testing.T) {
	h := newHarness(t, 200)
	ctx := context.Background()
	p := h.mustPay(t, "cached", 100)

	for i := 0; i < 2; i++ {
		if _, err := h.payments.GetPaymentInfo(ctx, p.ID); err != nil {
			t.Fatal(err)
		}
	}
	if h.cache.HitCount != 0 {
		t.Fatalf("pending payment served from cache %d times", h.cache.HitCount)
	}

	h.requestAndFund(t, p, merchant, p.MerchantAmount)
	invalidations := h.cache.InvalidateCount
	if _, err := h.refunds.MerchantRefund(ctx, p.ID, merchant, p.MerchantAmount); err != nil {
		t.Fatal(err)
	}
	if h.cache.InvalidateCount == invalidations {
		t.Error("refund commit did not invalidate the payment")
	}

	refunded, err := h.payments.IsRefunded(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !refunded {
		t.Fatal("expected refunded payment")
	}
	again, err := h.payments.GetPaymentInfo(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if h.cache.HitCount != 1 {
		t.Errorf("expected the refunded payment to be served from cache once, got %d hits", h.cache.HitCount)
	}
	if !again.Refunded {
		t.Error("cache returned a non-terminal copy")
	}
}
