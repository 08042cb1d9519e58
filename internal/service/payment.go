package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"paymenthub/internal/domain"
	"paymenthub/internal/fee"
	"paymenthub/internal/repository"
)

// PaymentCache is an optional read-through cache of payment records. Only
// refunded payments are stored: they are terminal and never change again.
type PaymentCache interface {
	GetPayment(ctx context.Context, id domain.PaymentID) (*domain.Payment, error)
	SetPayment(ctx context.Context, payment *domain.Payment) error
	InvalidatePayment(ctx context.Context, id domain.PaymentID) error
}

// MaxListLimit caps the page size of ListPayments.
const MaxListLimit = 200

// PaymentService answers read queries about payments and fees.
type PaymentService struct {
	store  repository.Store
	cache  PaymentCache
	logger *zap.Logger
}

// NewPaymentService creates a new PaymentService. cache may be nil.
func NewPaymentService(store repository.Store, cache PaymentCache, logger *zap.Logger) *PaymentService {
	return &PaymentService{store: store, cache: cache, logger: logger}
}

// GetPaymentInfo returns the payment record, or domain.ErrPaymentNotProcessed.
func (s *PaymentService) GetPaymentInfo(ctx context.Context, id domain.PaymentID) (*domain.Payment, error) {
	if s.cache != nil {
		cached, err := s.cache.GetPayment(ctx, id)
		if err != nil {
			s.logger.Warn("payment cache read failed", zap.String("payment_id", id.String()), zap.Error(err))
		} else if cached != nil && cached.Refunded {
			return cached, nil
		}
	}

	payment, err := getPayment(ctx, s.store, id)
	if err != nil {
		return nil, err
	}

	// A pending record may change between this read and a cache write.
	if s.cache != nil && payment.Refunded {
		if err := s.cache.SetPayment(ctx, payment); err != nil {
			s.logger.Warn("payment cache write failed", zap.String("payment_id", id.String()), zap.Error(err))
		}
	}
	return payment, nil
}

// IsRefundRequested reports whether a refund was ever requested. Unknown ids report false.
func (s *PaymentService) IsRefundRequested(ctx context.Context, id domain.PaymentID) (bool, error) {
	payment, err := s.lookup(ctx, id)
	if err != nil || payment == nil {
		return false, err
	}
	return payment.RefundRequested, nil
}

// IsRefunded reports whether the payment was refunded. Unknown ids report false.
func (s *PaymentService) IsRefunded(ctx context.Context, id domain.PaymentID) (bool, error) {
	payment, err := s.lookup(ctx, id)
	if err != nil || payment == nil {
		return false, err
	}
	return payment.Refunded, nil
}

func (s *PaymentService) lookup(ctx context.Context, id domain.PaymentID) (*domain.Payment, error) {
	payment, err := s.GetPaymentInfo(ctx, id)
	if errors.Is(err, domain.ErrPaymentNotProcessed) {
		return nil, nil
	}
	return payment, err
}

// ComputeFeeAndNet splits gross with the platform's fee rate.
func (s *PaymentService) ComputeFeeAndNet(ctx context.Context, gross uint64) (feeAmount, net uint64, err error) {
	cfg, err := loadPlatform(ctx, s.store)
	if err != nil {
		return 0, 0, err
	}
	return fee.ComputeFeeAndNet(gross, cfg.FeeBps)
}

// ListPayments returns payments matching filter, newest first.
func (s *PaymentService) ListPayments(ctx context.Context, filter repository.PaymentFilter) ([]*domain.Payment, error) {
	if filter.Limit <= 0 || filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	return s.store.Payments().List(ctx, filter)
}

// Events returns the notification history of a payment.
func (s *PaymentService) Events(ctx context.Context, id domain.PaymentID) ([]*domain.Event, error) {
	if _, err := getPayment(ctx, s.store, id); err != nil {
		return nil, err
	}
	return s.store.Events().ListByKey(ctx, id.String())
}

// Invalidate drops the cached copy of a payment after a mutation on key commits.
// Keys that are not payment ids are ignored.
func (s *PaymentService) Invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	id, err := domain.ParsePaymentID(key)
	if err != nil {
		return
	}
	if err := s.cache.InvalidatePayment(ctx, id); err != nil {
		s.logger.Warn("payment cache invalidation failed", zap.String("payment_id", key), zap.Error(err))
	}
}
