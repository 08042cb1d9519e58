package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"paymenthub/internal/amount"
	"paymenthub/internal/domain"
	"paymenthub/internal/repository"
	"paymenthub/internal/service"
)

// PaymentHandler handles HTTP requests for payments and refunds.
type PaymentHandler struct {
	checkoutService *service.CheckoutService
	refundService   *service.RefundService
	paymentService  *service.PaymentService
	receiptService  *service.ReceiptService
	decimals        int32
}

// NewPaymentHandler creates a new PaymentHandler. decimals is the token's
// number of fractional digits, used for display amounts.
func NewPaymentHandler(
	checkoutService *service.CheckoutService,
	refundService *service.RefundService,
	paymentService *service.PaymentService,
	receiptService *service.ReceiptService,
	decimals int32,
) *PaymentHandler {
	return &PaymentHandler{
		checkoutService: checkoutService,
		refundService:   refundService,
		paymentService:  paymentService,
		receiptService:  receiptService,
		decimals:        decimals,
	}
}

// CheckoutRequest is the HTTP request body for a checkout. Exactly one of
// payment_id and reference identifies the payment.
type CheckoutRequest struct {
	PaymentID   string `json:"payment_id,omitempty"`
	Reference   string `json:"reference,omitempty"`
	Merchant    string `json:"merchant"`
	GrossAmount uint64 `json:"gross_amount"`
}

// RefundRequestBody is the HTTP request body for requesting a refund.
type RefundRequestBody struct {
	Reason string `json:"reason"`
}

// RefundBody is the HTTP request body for executing a refund.
type RefundBody struct {
	Amount uint64 `json:"amount"`
}

// DisplayAmounts renders base-unit amounts as decimals.
type DisplayAmounts struct {
	GrossAmount    string `json:"gross_amount"`
	Fee            string `json:"fee"`
	MerchantAmount string `json:"merchant_amount"`
	RefundAmount   string `json:"refund_amount,omitempty"`
}

// PaymentResponse is the HTTP response for payment operations.
type PaymentResponse struct {
	PaymentID         string         `json:"payment_id"`
	Consumer          string         `json:"consumer"`
	Merchant          string         `json:"merchant"`
	GrossAmount       uint64         `json:"gross_amount"`
	Fee               uint64         `json:"fee"`
	MerchantAmount    uint64         `json:"merchant_amount"`
	State             string         `json:"state"`
	RefundRequested   bool           `json:"refund_requested"`
	RefundReason      string         `json:"refund_reason,omitempty"`
	Refunded          bool           `json:"refunded"`
	RefundAmount      uint64         `json:"refund_amount,omitempty"`
	RefundedBy        string         `json:"refunded_by,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	RefundRequestedAt *time.Time     `json:"refund_requested_at,omitempty"`
	RefundedAt        *time.Time     `json:"refunded_at,omitempty"`
	Display           DisplayAmounts `json:"display"`
}

// RefundStatusResponse is the HTTP response for GET /v1/payments/:id/refund-status.
type RefundStatusResponse struct {
	PaymentID       string `json:"payment_id"`
	RefundRequested bool   `json:"refund_requested"`
	Refunded        bool   `json:"refunded"`
}

// FeeQuoteResponse is the HTTP response for GET /v1/fees/quote.
type FeeQuoteResponse struct {
	GrossAmount    uint64         `json:"gross_amount"`
	Fee            uint64         `json:"fee"`
	MerchantAmount uint64         `json:"merchant_amount"`
	Display        DisplayAmounts `json:"display"`
}

func (h *PaymentHandler) toResponse(p *domain.Payment) PaymentResponse {
	resp := PaymentResponse{
		PaymentID:       p.ID.String(),
		Consumer:        p.Consumer.String(),
		Merchant:        p.Merchant.String(),
		GrossAmount:     p.GrossAmount,
		Fee:             p.Fee,
		MerchantAmount:  p.MerchantAmount,
		State:           string(p.State()),
		RefundRequested: p.RefundRequested,
		RefundReason:    p.RefundReason,
		Refunded:        p.Refunded,
		CreatedAt:       p.CreatedAt,
		Display: DisplayAmounts{
			GrossAmount:    amount.Format(p.GrossAmount, h.decimals),
			Fee:            amount.Format(p.Fee, h.decimals),
			MerchantAmount: amount.Format(p.MerchantAmount, h.decimals),
		},
	}
	if p.RefundRequested {
		t := p.RefundRequestedAt
		resp.RefundRequestedAt = &t
	}
	if p.Refunded {
		t := p.RefundedAt
		resp.RefundedAt = &t
		resp.RefundAmount = p.RefundAmount
		resp.RefundedBy = p.RefundedBy.String()
		resp.Display.RefundAmount = amount.Format(p.RefundAmount, h.decimals)
	}
	return resp
}

// Checkout handles POST /v1/payments
func (h *PaymentHandler) Checkout(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	var (
		id  domain.PaymentID
		err error
	)
	switch {
	case req.PaymentID != "" && req.Reference != "":
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "payment_id and reference are mutually exclusive"})
		return
	case req.PaymentID != "":
		id, err = domain.ParsePaymentID(req.PaymentID)
	case req.Reference != "":
		id, err = domain.PaymentIDFromReference(req.Reference)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "payment_id or reference is required"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	merchant, err := domain.ParseAddress(req.Merchant)
	if err != nil {
		respondError(c, err)
		return
	}

	payment, err := h.checkoutService.Checkout(c.Request.Context(), service.CheckoutRequest{
		PaymentID:   id,
		Consumer:    caller,
		Merchant:    merchant,
		GrossAmount: req.GrossAmount,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, h.toResponse(payment))
}

// GetPayment handles GET /v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, ok := paymentIDParam(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPaymentInfo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, h.toResponse(payment))
}

// ListPayments handles GET /v1/payments?consumer=&merchant=&limit=
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	var filter repository.PaymentFilter
	for name, dst := range map[string]*domain.Address{"consumer": &filter.Consumer, "merchant": &filter.Merchant} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		addr, err := domain.ParseAddress(raw)
		if err != nil {
			respondError(c, err)
			return
		}
		*dst = addr
	}
	limit, ok := uintQuery(c, "limit")
	if !ok {
		return
	}
	if limit > service.MaxListLimit {
		limit = service.MaxListLimit
	}
	filter.Limit = int(limit)

	payments, err := h.paymentService.ListPayments(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, h.toResponse(p))
	}
	respondJSON(c, http.StatusOK, resp)
}

// RefundStatus handles GET /v1/payments/:id/refund-status
func (h *PaymentHandler) RefundStatus(c *gin.Context) {
	id, ok := paymentIDParam(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	requested, err := h.paymentService.IsRefundRequested(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	refunded, err := h.paymentService.IsRefunded(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, RefundStatusResponse{
		PaymentID:       id.String(),
		RefundRequested: requested,
		Refunded:        refunded,
	})
}

// Events handles GET /v1/payments/:id/events
func (h *PaymentHandler) Events(c *gin.Context) {
	id, ok := paymentIDParam(c)
	if !ok {
		return
	}

	events, err := h.paymentService.Events(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, events)
}

// Receipt handles GET /v1/payments/:id/receipt
func (h *PaymentHandler) Receipt(c *gin.Context) {
	id, ok := paymentIDParam(c)
	if !ok {
		return
	}

	receipt, err := h.receiptService.GenerateReceipt(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.String(http.StatusOK, h.receiptService.FormatReceipt(receipt))
}

// RequestRefund handles POST /v1/payments/:id/refund-request
func (h *PaymentHandler) RequestRefund(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paymentIDParam(c)
	if !ok {
		return
	}

	var req RefundRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	payment, err := h.refundService.RequestRefund(c.Request.Context(), id, caller, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, h.toResponse(payment))
}

// MerchantRefund handles POST /v1/payments/:id/merchant-refund
func (h *PaymentHandler) MerchantRefund(c *gin.Context) {
	h.executeRefund(c, h.refundService.MerchantRefund)
}

// AdminRefund handles POST /v1/payments/:id/admin-refund
func (h *PaymentHandler) AdminRefund(c *gin.Context) {
	h.executeRefund(c, h.refundService.AdminRefund)
}

type refundFunc func(ctx context.Context, id domain.PaymentID, caller domain.Address, amount uint64) (*domain.Payment, error)

func (h *PaymentHandler) executeRefund(c *gin.Context, refund refundFunc) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paymentIDParam(c)
	if !ok {
		return
	}

	var req RefundBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	payment, err := refund(c.Request.Context(), id, caller, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, h.toResponse(payment))
}

// QuoteFee handles GET /v1/fees/quote?gross_amount=
func (h *PaymentHandler) QuoteFee(c *gin.Context) {
	gross, ok := uintQuery(c, "gross_amount")
	if !ok {
		return
	}

	fee, net, err := h.paymentService.ComputeFeeAndNet(c.Request.Context(), gross)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, FeeQuoteResponse{
		GrossAmount:    gross,
		Fee:            fee,
		MerchantAmount: net,
		Display: DisplayAmounts{
			GrossAmount:    amount.Format(gross, h.decimals),
			Fee:            amount.Format(fee, h.decimals),
			MerchantAmount: amount.Format(net, h.decimals),
		},
	})
}
