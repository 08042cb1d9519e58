package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"paymenthub/internal/domain"
	"paymenthub/internal/fee"
	"paymenthub/internal/repository"
	"paymenthub/internal/token"
)

// CheckoutService creates payments and disburses their funds.
type CheckoutService struct {
	exec   *Executor
	logger *zap.Logger
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(exec *Executor, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{exec: exec, logger: logger}
}

// CheckoutRequest contains the parameters for a checkout. The caller is the consumer.
type CheckoutRequest struct {
	PaymentID   domain.PaymentID
	Consumer    domain.Address
	Merchant    domain.Address
	GrossAmount uint64
}

// Checkout records a new payment and moves its funds.
//
// Preconditions are checked in order and the first failure wins:
// the platform is not paused, the amount is positive, the payee is a merchant,
// and the payment id is unused. The consumer's gross amount is then pulled into
// custody and split between the fee recipient and the merchant. Any failure,
// including an insufficient allowance or balance, leaves no trace.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*domain.Payment, error) {
	var payment *domain.Payment
	err := s.exec.Execute(ctx, req.PaymentID.String(), func(ctx context.Context, repos repository.Repositories) error {
		cfg, err := loadPlatform(ctx, repos)
		if err != nil {
			return err
		}
		if cfg.Paused {
			return domain.ErrSystemPaused
		}

		if req.GrossAmount == 0 {
			return domain.ErrInvalidAmount
		}
		if req.Consumer.IsZero() || req.Merchant.IsZero() {
			return domain.ErrInvalidAddress
		}

		merchantRoles, err := repos.Roles().Get(ctx, req.Merchant)
		if err != nil {
			return err
		}
		if !merchantRoles.Has(domain.RoleMerchant) {
			return domain.ErrNotMerchant
		}

		_, err = repos.Payments().GetByID(ctx, req.PaymentID)
		switch {
		case err == nil:
			return domain.ErrPaymentAlreadyProcessed
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		feeAmount, net, err := fee.ComputeFeeAndNet(req.GrossAmount, cfg.FeeBps)
		if err != nil {
			return err
		}

		at := now()
		payment = domain.NewPayment(req.PaymentID, req.Consumer, req.Merchant, req.GrossAmount, feeAmount, net, at)
		if err := repos.Payments().Create(ctx, payment); err != nil {
			return err
		}
		err = appendEvent(ctx, repos, domain.EventPaymentProcessed, req.PaymentID.String(), domain.PaymentProcessed{
			PaymentID:      payment.ID,
			Consumer:       payment.Consumer,
			Merchant:       payment.Merchant,
			GrossAmount:    payment.GrossAmount,
			Fee:            payment.Fee,
			MerchantAmount: payment.MerchantAmount,
		}, at)
		if err != nil {
			return err
		}

		ledger := token.New(repos.Tokens())
		if err := ledger.TransferFrom(ctx, cfg.Custody, req.Consumer, cfg.Custody, req.GrossAmount); err != nil {
			return err
		}
		if err := ledger.Transfer(ctx, cfg.Custody, cfg.FeeRecipient, feeAmount); err != nil {
			return err
		}
		return ledger.Transfer(ctx, cfg.Custody, req.Merchant, net)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment processed",
		zap.String("payment_id", payment.ID.String()),
		zap.String("consumer", payment.Consumer.String()),
		zap.String("merchant", payment.Merchant.String()),
		zap.Uint64("gross_amount", payment.GrossAmount),
		zap.Uint64("fee", payment.Fee),
	)
	return payment, nil
}
