package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	consumer = MustParseAddress("0x1111111111111111111111111111111111111111")
	merchant = MustParseAddress("0x2222222222222222222222222222222222222222")
	admin    = MustParseAddress("0x3333333333333333333333333333333333333333")
)

func newTestPayment(t *testing.T) *Payment {
	t.Helper()
	id, err := PaymentIDFromReference("order-1")
	require.NoError(t, err)
	return NewPayment(id, consumer, merchant, 100, 2, 98, time.Now())
}

func TestPayment_Lifecycle(t *testing.T) {
	p := newTestPayment(t)
	assert.Equal(t, PaymentStateProcessed, p.State())

	require.NoError(t, p.RequestRefund(consumer, "damaged", time.Now()))
	assert.Equal(t, PaymentStateRefundRequested, p.State())
	assert.Equal(t, "damaged", p.RefundReason)

	require.NoError(t, p.MarkRefunded(merchant, 98, p.MerchantAmount, time.Now()))
	assert.Equal(t, PaymentStateRefunded, p.State())
	assert.Equal(t, uint64(98), p.RefundAmount)
	assert.Equal(t, merchant, p.RefundedBy)
}

func TestPayment_RequestRefund_OnlyConsumer(t *testing.T) {
	p := newTestPayment(t)

	err := p.RequestRefund(merchant, "not mine", time.Now())
	assert.ErrorIs(t, err, ErrNotPaymentConsumer)
	assert.False(t, p.RefundRequested)
}

func TestPayment_RequestRefund_OverwritesReasonWhilePending(t *testing.T) {
	p := newTestPayment(t)

	require.NoError(t, p.RequestRefund(consumer, "first", time.Now()))
	require.NoError(t, p.RequestRefund(consumer, "second", time.Now()))
	assert.Equal(t, "second", p.RefundReason)
}

func TestPayment_MarkRefunded_RequiresRequest(t *testing.T) {
	p := newTestPayment(t)

	err := p.MarkRefunded(merchant, 98, p.MerchantAmount, time.Now())
	assert.ErrorIs(t, err, ErrRefundNotRequested)
	assert.False(t, p.Refunded)
}

func TestPayment_MarkRefunded_AtMostOnce(t *testing.T) {
	p := newTestPayment(t)
	require.NoError(t, p.RequestRefund(consumer, "", time.Now()))
	require.NoError(t, p.MarkRefunded(admin, 100, NoRefundCap, time.Now()))

	assert.ErrorIs(t, p.MarkRefunded(admin, 100, NoRefundCap, time.Now()), ErrAlreadyRefunded)
	assert.ErrorIs(t, p.RequestRefund(consumer, "again", time.Now()), ErrAlreadyRefunded)
}

func TestPayment_MarkRefunded_Cap(t *testing.T) {
	p := newTestPayment(t)
	require.NoError(t, p.RequestRefund(consumer, "", time.Now()))

	err := p.MarkRefunded(merchant, 99, p.MerchantAmount, time.Now())
	assert.ErrorIs(t, err, ErrRefundAmountTooHigh)
	assert.False(t, p.Refunded)
}

func TestPayment_MarkRefunded_StateCheckedBeforeAmount(t *testing.T) {
	p := newTestPayment(t)
	assert.ErrorIs(t, p.MarkRefunded(merchant, 0, p.MerchantAmount, time.Now()), ErrRefundNotRequested)

	require.NoError(t, p.RequestRefund(consumer, "", time.Now()))
	assert.ErrorIs(t, p.MarkRefunded(merchant, 0, p.MerchantAmount, time.Now()), ErrInvalidAmount)
	assert.False(t, p.Refunded)

	require.NoError(t, p.MarkRefunded(merchant, 98, p.MerchantAmount, time.Now()))
	assert.ErrorIs(t, p.MarkRefunded(merchant, 0, p.MerchantAmount, time.Now()), ErrAlreadyRefunded)
	assert.Equal(t, uint64(98), p.RefundAmount)
}
