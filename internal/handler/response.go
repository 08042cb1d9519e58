package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"paymenthub/internal/amount"
	"paymenthub/internal/domain"
	"paymenthub/internal/middleware"
	"paymenthub/internal/repository"
	"paymenthub/internal/service"
	"paymenthub/internal/token"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(code, ErrorResponse{Error: "internal error"})
		return
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps domain/service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, domain.ErrPaymentNotProcessed),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrInvalidPaymentID),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, amount.ErrInvalidAmount),
		errors.Is(err, service.ErrReasonTooLong):
		return http.StatusBadRequest

	// Forbidden errors
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrNotPaymentConsumer),
		errors.Is(err, domain.ErrNotPaymentMerchant),
		errors.Is(err, service.ErrFaucetDisabled):
		return http.StatusForbidden

	// Conflict errors
	case errors.Is(err, domain.ErrPaymentAlreadyProcessed),
		errors.Is(err, domain.ErrAlreadyRefunded),
		errors.Is(err, domain.ErrRefundNotRequested),
		errors.Is(err, domain.ErrPaymentLocked),
		errors.Is(err, domain.ErrReentrantCall),
		errors.Is(err, service.ErrAlreadyPaused),
		errors.Is(err, service.ErrNotPaused):
		return http.StatusConflict

	// Business rule errors
	case errors.Is(err, domain.ErrNotMerchant),
		errors.Is(err, domain.ErrRefundAmountTooHigh),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrArithmeticOverflow),
		errors.Is(err, domain.ErrFeeTooHigh),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance),
		errors.Is(err, service.ErrFaucetAmountTooHigh):
		return http.StatusUnprocessableEntity

	// Service unavailable
	case errors.Is(err, domain.ErrSystemPaused),
		errors.Is(err, service.ErrPlatformNotInitialized):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

// principal returns the authenticated caller or aborts with 401.
func principal(c *gin.Context) (domain.Address, bool) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
	}
	return p, ok
}

// paymentIDParam parses the :id path parameter or responds 400.
func paymentIDParam(c *gin.Context) (domain.PaymentID, bool) {
	id, err := domain.ParsePaymentID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return id, false
	}
	return id, true
}

// addressParam parses a path parameter as an address or responds 400.
func addressParam(c *gin.Context, name string) (domain.Address, bool) {
	addr, err := domain.ParseAddress(c.Param(name))
	if err != nil {
		respondError(c, err)
		return "", false
	}
	return addr, true
}

// uintQuery parses an optional unsigned query parameter.
func uintQuery(c *gin.Context, name string) (uint64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: name + " must be a non-negative integer"})
		return 0, false
	}
	return v, true
}
