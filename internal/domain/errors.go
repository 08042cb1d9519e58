package domain

import "errors"

// Ledger error taxonomy. Every value is a distinct, non-retryable outcome and
// every operation returning one leaves state unchanged.
var (
	// ErrInvalidAmount is returned for a zero gross or refund amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNotMerchant is returned when the payee does not hold the MERCHANT role.
	ErrNotMerchant = errors.New("payee is not a registered merchant")

	// ErrPaymentAlreadyProcessed is returned when a payment id has already been checked out.
	ErrPaymentAlreadyProcessed = errors.New("payment already processed")

	// ErrPaymentNotProcessed is returned when no payment exists for the id.
	ErrPaymentNotProcessed = errors.New("payment not processed")

	// ErrSystemPaused is returned by checkout while the pause switch is on.
	ErrSystemPaused = errors.New("system paused")

	// ErrUnauthorized is returned when the caller lacks the ADMIN role.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotPaymentConsumer is returned when the caller is not the payer of the payment.
	ErrNotPaymentConsumer = errors.New("caller is not the payment consumer")

	// ErrNotPaymentMerchant is returned when the caller is not the payee of the payment.
	ErrNotPaymentMerchant = errors.New("caller is not the payment merchant")

	// ErrRefundNotRequested is returned when a refund is executed before the consumer requested it.
	ErrRefundNotRequested = errors.New("refund not requested")

	// ErrAlreadyRefunded is returned for any operation on a refunded payment that would change it.
	ErrAlreadyRefunded = errors.New("payment already refunded")

	// ErrRefundAmountTooHigh is returned when a merchant refund exceeds the merchant amount.
	ErrRefundAmountTooHigh = errors.New("refund amount too high")

	// ErrArithmeticOverflow is returned when an amount computation would not fit in 64 bits.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")

	// ErrFeeTooHigh is returned at bootstrap when fee_bps exceeds the allowed maximum.
	ErrFeeTooHigh = errors.New("fee too high")

	// ErrReentrantCall is returned when a mutation is attempted from inside another mutation.
	ErrReentrantCall = errors.New("reentrant call")

	// ErrPaymentLocked is returned when another instance holds the payment's lock.
	ErrPaymentLocked = errors.New("payment operation already in flight")

	// ErrInvalidAddress is returned for malformed or zero addresses.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidPaymentID is returned for malformed payment ids.
	ErrInvalidPaymentID = errors.New("invalid payment id")

	// ErrInvalidRole is returned for unknown role names.
	ErrInvalidRole = errors.New("invalid role")
)
