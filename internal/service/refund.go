package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"paymenthub/internal/domain"
	"paymenthub/internal/repository"
	"paymenthub/internal/token"
)

// RefundService runs the two-phase refund protocol: the consumer requests,
// then the merchant or an admin executes. A payment is refunded at most once.
// Refunds keep working while the platform is paused.
type RefundService struct {
	exec   *Executor
	logger *zap.Logger
}

// NewRefundService creates a new RefundService.
func NewRefundService(exec *Executor, logger *zap.Logger) *RefundService {
	return &RefundService{exec: exec, logger: logger}
}

// RequestRefund moves the payment to REFUND_REQUESTED. Only the consumer may
// call it. Requesting again while pending replaces the reason.
func (s *RefundService) RequestRefund(ctx context.Context, id domain.PaymentID, caller domain.Address, reason string) (*domain.Payment, error) {
	if len(reason) > MaxReasonLength {
		return nil, ErrReasonTooLong
	}

	var payment *domain.Payment
	err := s.exec.Execute(ctx, id.String(), func(ctx context.Context, repos repository.Repositories) error {
		p, err := getPayment(ctx, repos, id)
		if err != nil {
			return err
		}
		if err := p.RequestRefund(caller, reason, now()); err != nil {
			return err
		}
		if err := repos.Payments().Update(ctx, p); err != nil {
			return err
		}

		payment = p
		return appendEvent(ctx, repos, domain.EventRefundRequested, id.String(), domain.RefundRequested{
			PaymentID: p.ID,
			Consumer:  p.Consumer,
			Reason:    reason,
		}, p.RefundRequestedAt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("refund requested", zap.String("payment_id", id.String()), zap.String("consumer", caller.String()))
	return payment, nil
}

// MerchantRefund refunds amount to the consumer out of the merchant's own
// approved balance. The amount may not exceed what the merchant received.
func (s *RefundService) MerchantRefund(ctx context.Context, id domain.PaymentID, caller domain.Address, amount uint64) (*domain.Payment, error) {
	return s.refund(ctx, id, caller, amount, func(ctx context.Context, repos repository.Repositories, p *domain.Payment) (uint64, error) {
		if caller != p.Merchant {
			return 0, domain.ErrNotPaymentMerchant
		}
		return p.MerchantAmount, nil
	})
}

// AdminRefund refunds amount to the consumer out of the calling admin's own
// approved balance. The amount is not capped.
func (s *RefundService) AdminRefund(ctx context.Context, id domain.PaymentID, caller domain.Address, amount uint64) (*domain.Payment, error) {
	return s.refund(ctx, id, caller, amount, func(ctx context.Context, repos repository.Repositories, p *domain.Payment) (uint64, error) {
		if err := requireRole(ctx, repos, domain.RoleAdmin, caller); err != nil {
			return 0, err
		}
		return domain.NoRefundCap, nil
	})
}

// authorizeFunc checks the caller against the payment and returns the refund cap.
type authorizeFunc func(ctx context.Context, repos repository.Repositories, p *domain.Payment) (uint64, error)

func (s *RefundService) refund(ctx context.Context, id domain.PaymentID, caller domain.Address, amount uint64, authorize authorizeFunc) (*domain.Payment, error) {
	var payment *domain.Payment
	err := s.exec.Execute(ctx, id.String(), func(ctx context.Context, repos repository.Repositories) error {
		p, err := getPayment(ctx, repos, id)
		if err != nil {
			return err
		}

		refundCap, err := authorize(ctx, repos, p)
		if err != nil {
			return err
		}

		cfg, err := loadPlatform(ctx, repos)
		if err != nil {
			return err
		}

		if err := p.MarkRefunded(caller, amount, refundCap, now()); err != nil {
			return err
		}
		if err := repos.Payments().Update(ctx, p); err != nil {
			return err
		}
		err = appendEvent(ctx, repos, domain.EventRefundIssued, id.String(), domain.RefundIssued{
			PaymentID: p.ID,
			Initiator: caller,
			Consumer:  p.Consumer,
			Amount:    amount,
		}, p.RefundedAt)
		if err != nil {
			return err
		}

		ledger := token.New(repos.Tokens())
		if err := ledger.TransferFrom(ctx, cfg.Custody, caller, cfg.Custody, amount); err != nil {
			return err
		}
		if err := ledger.Transfer(ctx, cfg.Custody, p.Consumer, amount); err != nil {
			return err
		}

		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("refund issued",
		zap.String("payment_id", id.String()),
		zap.String("initiator", caller.String()),
		zap.Uint64("amount", amount),
	)
	return payment, nil
}

// getPayment maps a missing record to domain.ErrPaymentNotProcessed.
func getPayment(ctx context.Context, repos repository.Repositories, id domain.PaymentID) (*domain.Payment, error) {
	p, err := repos.Payments().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrPaymentNotProcessed
		}
		return nil, err
	}
	return p, nil
}
