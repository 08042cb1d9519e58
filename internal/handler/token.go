package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"paymenthub/internal/amount"
	"paymenthub/internal/domain"
	"paymenthub/internal/service"
)

// TokenHandler handles HTTP requests for token balances, allowances and the faucet.
type TokenHandler struct {
	tokenService *service.TokenService
	decimals     int32
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(tokenService *service.TokenService, decimals int32) *TokenHandler {
	return &TokenHandler{tokenService: tokenService, decimals: decimals}
}

// AmountRequest carries an amount either in base units or as a decimal string.
// To is only read by the faucet and defaults to the caller.
type AmountRequest struct {
	To      string `json:"to,omitempty"`
	Amount  uint64 `json:"amount"`
	Display string `json:"display,omitempty"`
}

// BalanceResponse is the HTTP response for balance and allowance queries.
type BalanceResponse struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
	Display string `json:"display"`
}

func (h *TokenHandler) bindAmount(c *gin.Context) (AmountRequest, uint64, bool) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return req, 0, false
	}
	if req.Display == "" {
		return req, req.Amount, true
	}
	units, err := amount.Parse(req.Display, h.decimals)
	if err != nil {
		respondError(c, err)
		return req, 0, false
	}
	return req, units, true
}

func (h *TokenHandler) balanceResponse(addr domain.Address, units uint64) BalanceResponse {
	return BalanceResponse{Account: addr.String(), Amount: units, Display: amount.Format(units, h.decimals)}
}

// Approve handles POST /v1/token/approve
func (h *TokenHandler) Approve(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	_, units, ok := h.bindAmount(c)
	if !ok {
		return
	}

	if err := h.tokenService.Approve(c.Request.Context(), caller, units); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, h.balanceResponse(caller, units))
}

// Faucet handles POST /v1/token/faucet
func (h *TokenHandler) Faucet(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	req, units, ok := h.bindAmount(c)
	if !ok {
		return
	}

	to := caller
	if req.To != "" {
		addr, err := domain.ParseAddress(req.To)
		if err != nil {
			respondError(c, err)
			return
		}
		to = addr
	}

	ctx := c.Request.Context()
	if err := h.tokenService.Faucet(ctx, to, units); err != nil {
		respondError(c, err)
		return
	}

	balance, err := h.tokenService.Balance(ctx, to)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, h.balanceResponse(to, balance))
}

// Balance handles GET /v1/token/balances/:address
func (h *TokenHandler) Balance(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}

	balance, err := h.tokenService.Balance(c.Request.Context(), addr)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, h.balanceResponse(addr, balance))
}

// Allowance handles GET /v1/token/allowances/:owner
func (h *TokenHandler) Allowance(c *gin.Context) {
	addr, ok := addressParam(c, "owner")
	if !ok {
		return
	}

	allowance, err := h.tokenService.Allowance(c.Request.Context(), addr)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, h.balanceResponse(addr, allowance))
}
