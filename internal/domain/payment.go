package domain

import (
	"math"
	"time"
)

// PaymentState represents where a payment is in the refund lifecycle.
type PaymentState string

const (
	PaymentStateProcessed       PaymentState = "PROCESSED"
	PaymentStateRefundRequested PaymentState = "REFUND_REQUESTED"
	PaymentStateRefunded        PaymentState = "REFUNDED"
)

// NoRefundCap disables the refund amount ceiling in MarkRefunded.
const NoRefundCap = math.MaxUint64

// Payment is the ledger record for one checkout. Amounts are in the token's smallest unit.
// After creation only the refund fields change, through RequestRefund and MarkRefunded.
type Payment struct {
	ID                PaymentID
	Consumer          Address
	Merchant          Address
	GrossAmount       uint64
	Fee               uint64
	MerchantAmount    uint64
	RefundRequested   bool
	RefundReason      string
	Refunded          bool
	RefundAmount      uint64
	RefundedBy        Address
	CreatedAt         time.Time
	RefundRequestedAt time.Time
	RefundedAt        time.Time
}

// NewPayment builds a freshly processed payment record.
func NewPayment(id PaymentID, consumer, merchant Address, gross, fee, merchantAmount uint64, at time.Time) *Payment {
	return &Payment{
		ID:             id,
		Consumer:       consumer,
		Merchant:       merchant,
		GrossAmount:    gross,
		Fee:            fee,
		MerchantAmount: merchantAmount,
		CreatedAt:      at,
	}
}

// State derives the lifecycle state from the refund flags.
func (p *Payment) State() PaymentState {
	switch {
	case p.Refunded:
		return PaymentStateRefunded
	case p.RefundRequested:
		return PaymentStateRefundRequested
	default:
		return PaymentStateProcessed
	}
}

// RequestRefund moves the payment to REFUND_REQUESTED. Only the consumer may ask,
// and asking again while pending replaces the reason.
func (p *Payment) RequestRefund(requester Address, reason string, at time.Time) error {
	if requester != p.Consumer {
		return ErrNotPaymentConsumer
	}
	if p.Refunded {
		return ErrAlreadyRefunded
	}
	p.RefundRequested = true
	p.RefundReason = reason
	p.RefundRequestedAt = at
	return nil
}

// MarkRefunded moves the payment to the terminal REFUNDED state.
// State is checked before the amount. amount must be positive and may not
// exceed refundCap; pass NoRefundCap to disable the cap.
func (p *Payment) MarkRefunded(executor Address, amount, refundCap uint64, at time.Time) error {
	if !p.RefundRequested {
		return ErrRefundNotRequested
	}
	if p.Refunded {
		return ErrAlreadyRefunded
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	if amount > refundCap {
		return ErrRefundAmountTooHigh
	}
	p.Refunded = true
	p.RefundAmount = amount
	p.RefundedBy = executor
	p.RefundedAt = at
	return nil
}
