package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"paymenthub/internal/domain"
	"paymenthub/internal/service"
)

// PlatformHandler handles HTTP requests for the platform configuration and pause switch.
type PlatformHandler struct {
	platformService *service.PlatformService
}

// NewPlatformHandler creates a new PlatformHandler.
func NewPlatformHandler(platformService *service.PlatformService) *PlatformHandler {
	return &PlatformHandler{platformService: platformService}
}

// PlatformResponse is the HTTP response for platform status.
type PlatformResponse struct {
	FeeBps       uint32 `json:"fee_bps"`
	MaxFeeBps    uint32 `json:"max_fee_bps"`
	FeeRecipient string `json:"fee_recipient"`
	Custody      string `json:"custody"`
	Paused       bool   `json:"paused"`
}

func toPlatformResponse(cfg *domain.PlatformConfig) PlatformResponse {
	return PlatformResponse{
		FeeBps:       cfg.FeeBps,
		MaxFeeBps:    cfg.MaxFeeBps,
		FeeRecipient: cfg.FeeRecipient.String(),
		Custody:      cfg.Custody.String(),
		Paused:       cfg.Paused,
	}
}

// Status handles GET /v1/platform
func (h *PlatformHandler) Status(c *gin.Context) {
	cfg, err := h.platformService.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPlatformResponse(cfg))
}

// Pause handles POST /v1/platform/pause
func (h *PlatformHandler) Pause(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	if err := h.platformService.Pause(c.Request.Context(), caller); err != nil {
		respondError(c, err)
		return
	}
	h.Status(c)
}

// Unpause handles POST /v1/platform/unpause
func (h *PlatformHandler) Unpause(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	if err := h.platformService.Unpause(c.Request.Context(), caller); err != nil {
		respondError(c, err)
		return
	}
	h.Status(c)
}
