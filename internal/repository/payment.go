package repository

import (
	"context"

	"paymenthub/internal/domain"
)

// PaymentFilter narrows a payment listing. Zero fields match everything.
type PaymentFilter struct {
	Consumer domain.Address
	Merchant domain.Address
	Limit    int
}

// PaymentRepository defines the persistence operations for payment records.
type PaymentRepository interface {
	// Create persists a new payment.
	// Returns domain.ErrPaymentAlreadyProcessed if the id is already taken.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id domain.PaymentID) (*domain.Payment, error)

	// Update saves the refund fields of an existing payment.
	Update(ctx context.Context, payment *domain.Payment) error

	// List returns payments matching the filter, newest first.
	List(ctx context.Context, filter PaymentFilter) ([]*domain.Payment, error)
}
