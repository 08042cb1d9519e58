package service

import "errors"

var (
	// ErrPlatformNotInitialized is returned before Bootstrap has stored a platform configuration.
	ErrPlatformNotInitialized = errors.New("platform not initialized")

	// ErrReasonTooLong is returned when a refund reason exceeds MaxReasonLength bytes.
	ErrReasonTooLong = errors.New("refund reason too long")

	// ErrAlreadyPaused is returned by Pause while the platform is paused.
	ErrAlreadyPaused = errors.New("platform already paused")

	// ErrNotPaused is returned by Unpause while the platform is running.
	ErrNotPaused = errors.New("platform not paused")

	// ErrFaucetDisabled is returned when the faucet is switched off.
	ErrFaucetDisabled = errors.New("faucet disabled")

	// ErrFaucetAmountTooHigh is returned when a faucet request exceeds the configured cap.
	ErrFaucetAmountTooHigh = errors.New("faucet amount too high")
)

// MaxReasonLength bounds the refund reason stored on a payment.
const MaxReasonLength = 512
