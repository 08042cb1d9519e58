package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"paymenthub/internal/amount"
	"paymenthub/internal/domain"
	"paymenthub/internal/repository"
	"paymenthub/internal/service"
	"paymenthub/internal/token"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidAddress, http.StatusBadRequest},
		{amount.ErrInvalidAmount, http.StatusBadRequest},
		{service.ErrReasonTooLong, http.StatusBadRequest},
		{domain.ErrUnauthorized, http.StatusForbidden},
		{domain.ErrNotPaymentMerchant, http.StatusForbidden},
		{service.ErrFaucetDisabled, http.StatusForbidden},
		{domain.ErrPaymentNotProcessed, http.StatusNotFound},
		{repository.ErrNotFound, http.StatusNotFound},
		{domain.ErrPaymentAlreadyProcessed, http.StatusConflict},
		{domain.ErrPaymentLocked, http.StatusConflict},
		{domain.ErrReentrantCall, http.StatusConflict},
		{service.ErrNotPaused, http.StatusConflict},
		{domain.ErrNotMerchant, http.StatusUnprocessableEntity},
		{domain.ErrRefundAmountTooHigh, http.StatusUnprocessableEntity},
		{domain.ErrArithmeticOverflow, http.StatusUnprocessableEntity},
		{token.ErrInsufficientAllowance, http.StatusUnprocessableEntity},
		{domain.ErrSystemPaused, http.StatusServiceUnavailable},
		{service.ErrPlatformNotInitialized, http.StatusServiceUnavailable},
		{fmt.Errorf("checkout: %w", domain.ErrInvalidAmount), http.StatusUnprocessableEntity},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, mapErrorToHTTPStatus(tt.err))
		})
	}
}
