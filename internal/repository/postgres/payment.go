package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"paymenthub/internal/domain"
	"paymenthub/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q    Querier
	lock bool
}

const paymentColumns = `payment_id, consumer, merchant, gross_amount, fee, merchant_amount,
		refund_requested, refund_reason, refunded, refund_amount, refunded_by,
		created_at, refund_requested_at, refunded_at`

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.q.ExecContext(ctx, query,
		payment.ID.String(),
		payment.Consumer,
		payment.Merchant,
		numeric(payment.GrossAmount),
		numeric(payment.Fee),
		numeric(payment.MerchantAmount),
		payment.RefundRequested,
		payment.RefundReason,
		payment.Refunded,
		numeric(payment.RefundAmount),
		payment.RefundedBy,
		payment.CreatedAt,
		nullTime(payment.RefundRequestedAt),
		nullTime(payment.RefundedAt),
	)
	if isUniqueViolation(err) {
		return domain.ErrPaymentAlreadyProcessed
	}

	return err
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id domain.PaymentID) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = $1` + forUpdate(r.lock)

	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return payment, nil
}

// Update saves the refund fields of an existing payment.
func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET refund_requested = $1, refund_reason = $2, refunded = $3, refund_amount = $4,
		    refunded_by = $5, refund_requested_at = $6, refunded_at = $7
		WHERE payment_id = $8
	`

	result, err := r.q.ExecContext(ctx, query,
		payment.RefundRequested,
		payment.RefundReason,
		payment.Refunded,
		numeric(payment.RefundAmount),
		payment.RefundedBy,
		nullTime(payment.RefundRequestedAt),
		nullTime(payment.RefundedAt),
		payment.ID.String(),
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns payments matching the filter, newest first.
func (r *PaymentRepository) List(ctx context.Context, filter repository.PaymentFilter) ([]*domain.Payment, error) {
	var (
		where []string
		args  []any
	)
	if filter.Consumer != "" {
		args = append(args, filter.Consumer)
		where = append(where, fmt.Sprintf("consumer = $%d", len(args)))
	}
	if filter.Merchant != "" {
		args = append(args, filter.Merchant)
		where = append(where, fmt.Sprintf("merchant = $%d", len(args)))
	}

	query := `SELECT ` + paymentColumns + ` FROM payments`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []*domain.Payment{}
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var (
		payment                       domain.Payment
		id                            string
		gross, fee, net, refundAmount decimal.Decimal
		refundRequestedAt, refundedAt sql.NullTime
	)

	err := row.Scan(
		&id,
		&payment.Consumer,
		&payment.Merchant,
		&gross,
		&fee,
		&net,
		&payment.RefundRequested,
		&payment.RefundReason,
		&payment.Refunded,
		&refundAmount,
		&payment.RefundedBy,
		&payment.CreatedAt,
		&refundRequestedAt,
		&refundedAt,
	)
	if err != nil {
		return nil, err
	}

	if payment.ID, err = domain.ParsePaymentID(id); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		dst *uint64
		src decimal.Decimal
	}{
		{&payment.GrossAmount, gross},
		{&payment.Fee, fee},
		{&payment.MerchantAmount, net},
		{&payment.RefundAmount, refundAmount},
	} {
		if *f.dst, err = fromNumeric(f.src); err != nil {
			return nil, err
		}
	}
	payment.RefundRequestedAt = refundRequestedAt.Time
	payment.RefundedAt = refundedAt.Time

	return &payment, nil
}
