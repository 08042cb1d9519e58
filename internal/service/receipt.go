package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"paymenthub/internal/amount"
	"paymenthub/internal/domain"
)

// Receipt is a printable summary of a payment.
type Receipt struct {
	PaymentID      string
	Consumer       string
	Merchant       string
	GrossAmount    string
	Fee            string
	MerchantAmount string
	Status         domain.PaymentState
	RefundReason   string
	RefundAmount   string
	RefundedBy     string
	CreatedAt      time.Time
	RefundedAt     time.Time
}

// ReceiptService renders payment receipts.
type ReceiptService struct {
	payments *PaymentService
	symbol   string
	decimals int32
}

// NewReceiptService creates a new ReceiptService for a token with the given symbol and decimals.
func NewReceiptService(payments *PaymentService, symbol string, decimals int32) *ReceiptService {
	return &ReceiptService{payments: payments, symbol: symbol, decimals: decimals}
}

// GenerateReceipt builds the receipt of a processed payment.
func (s *ReceiptService) GenerateReceipt(ctx context.Context, id domain.PaymentID) (*Receipt, error) {
	payment, err := s.payments.GetPaymentInfo(ctx, id)
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{
		PaymentID:      payment.ID.String(),
		Consumer:       payment.Consumer.String(),
		Merchant:       payment.Merchant.String(),
		GrossAmount:    s.money(payment.GrossAmount),
		Fee:            s.money(payment.Fee),
		MerchantAmount: s.money(payment.MerchantAmount),
		Status:         payment.State(),
		RefundReason:   payment.RefundReason,
		CreatedAt:      payment.CreatedAt,
	}
	if payment.Refunded {
		receipt.RefundAmount = s.money(payment.RefundAmount)
		receipt.RefundedBy = payment.RefundedBy.String()
		receipt.RefundedAt = payment.RefundedAt
	}
	return receipt, nil
}

func (s *ReceiptService) money(units uint64) string {
	return amount.Format(units, s.decimals) + " " + s.symbol
}

// FormatReceipt formats the receipt as plain text.
func (s *ReceiptService) FormatReceipt(receipt *Receipt) string {
	var b strings.Builder
	line := "=====================================\n"
	rule := "-------------------------------------\n"

	b.WriteString(line)
	b.WriteString("          PAYMENT RECEIPT\n")
	b.WriteString(line)
	fmt.Fprintf(&b, "Payment ID: %s\n", receipt.PaymentID)
	fmt.Fprintf(&b, "Date: %s\n\n", receipt.CreatedAt.Format("Jan 02, 2006 3:04 PM"))

	b.WriteString("PARTIES\n")
	b.WriteString(rule)
	fmt.Fprintf(&b, "Consumer: %s\n", receipt.Consumer)
	fmt.Fprintf(&b, "Merchant: %s\n\n", receipt.Merchant)

	b.WriteString("AMOUNT BREAKDOWN\n")
	b.WriteString(rule)
	fmt.Fprintf(&b, "Merchant amount: %s\n", receipt.MerchantAmount)
	fmt.Fprintf(&b, "Platform fee:    %s\n", receipt.Fee)
	b.WriteString(rule)
	fmt.Fprintf(&b, "TOTAL:           %s\n\n", receipt.GrossAmount)

	b.WriteString("STATUS\n")
	b.WriteString(rule)
	fmt.Fprintf(&b, "State: %s\n", receipt.Status)
	if receipt.RefundReason != "" {
		fmt.Fprintf(&b, "Refund reason: %s\n", receipt.RefundReason)
	}
	if receipt.RefundAmount != "" {
		fmt.Fprintf(&b, "Refunded: %s by %s on %s\n",
			receipt.RefundAmount, receipt.RefundedBy, receipt.RefundedAt.Format("Jan 02, 2006 3:04 PM"))
	}
	b.WriteString("\n")
	b.WriteString(line)
	return b.String()
}
