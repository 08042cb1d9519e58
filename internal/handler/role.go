package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"paymenthub/internal/domain"
	"paymenthub/internal/service"
)

// RoleHandler handles HTTP requests for the role registry.
type RoleHandler struct {
	roleService *service.RoleService
}

// NewRoleHandler creates a new RoleHandler.
func NewRoleHandler(roleService *service.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

// RoleResponse is the HTTP response for a role membership query.
type RoleResponse struct {
	Role    string `json:"role"`
	Account string `json:"account"`
	HasRole bool   `json:"has_role"`
}

// RoleMembersResponse lists the holders of a role.
type RoleMembersResponse struct {
	Role     string   `json:"role"`
	Accounts []string `json:"accounts"`
}

func roleParam(c *gin.Context) (domain.Role, bool) {
	role, err := domain.ParseRole(c.Param("role"))
	if err != nil {
		respondError(c, err)
		return 0, false
	}
	return role, true
}

// HasRole handles GET /v1/roles/:role/:address
func (h *RoleHandler) HasRole(c *gin.Context) {
	role, ok := roleParam(c)
	if !ok {
		return
	}
	account, ok := addressParam(c, "address")
	if !ok {
		return
	}

	has, err := h.roleService.HasRole(c.Request.Context(), role, account)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, RoleResponse{Role: role.String(), Account: account.String(), HasRole: has})
}

// ListMembers handles GET /v1/roles/:role
func (h *RoleHandler) ListMembers(c *gin.Context) {
	role, ok := roleParam(c)
	if !ok {
		return
	}
	h.listMembers(c, role)
}

// ListMerchants handles GET /v1/merchants
func (h *RoleHandler) ListMerchants(c *gin.Context) {
	h.listMembers(c, domain.RoleMerchant)
}

func (h *RoleHandler) listMembers(c *gin.Context, role domain.Role) {
	members, err := h.roleService.ListByRole(c.Request.Context(), role)
	if err != nil {
		respondError(c, err)
		return
	}

	accounts := make([]string, 0, len(members))
	for _, m := range members {
		accounts = append(accounts, m.String())
	}
	respondJSON(c, http.StatusOK, RoleMembersResponse{Role: role.String(), Accounts: accounts})
}

// Grant handles POST /v1/roles/:role/:address
func (h *RoleHandler) Grant(c *gin.Context) {
	h.change(c, h.roleService.GrantRole, true)
}

// Revoke handles DELETE /v1/roles/:role/:address
func (h *RoleHandler) Revoke(c *gin.Context) {
	h.change(c, h.roleService.RevokeRole, false)
}

func (h *RoleHandler) change(
	c *gin.Context,
	apply func(ctx context.Context, caller domain.Address, role domain.Role, account domain.Address) error,
	granted bool,
) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	role, ok := roleParam(c)
	if !ok {
		return
	}
	account, ok := addressParam(c, "address")
	if !ok {
		return
	}

	if err := apply(c.Request.Context(), caller, role, account); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, RoleResponse{Role: role.String(), Account: account.String(), HasRole: granted})
}

// RegisterMerchant handles POST /v1/merchants/:address
func (h *RoleHandler) RegisterMerchant(c *gin.Context) {
	h.merchant(c, h.roleService.RegisterMerchant, true)
}

// RevokeMerchant handles DELETE /v1/merchants/:address
func (h *RoleHandler) RevokeMerchant(c *gin.Context) {
	h.merchant(c, h.roleService.RevokeMerchant, false)
}

func (h *RoleHandler) merchant(c *gin.Context, apply func(ctx context.Context, caller, merchant domain.Address) error, granted bool) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	merchant, ok := addressParam(c, "address")
	if !ok {
		return
	}

	if err := apply(c.Request.Context(), caller, merchant); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, RoleResponse{
		Role:    domain.RoleMerchant.String(),
		Account: merchant.String(),
		HasRole: granted,
	})
}
