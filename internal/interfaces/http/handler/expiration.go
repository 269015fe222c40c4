package handler

import (
	"github.com/gin-gonic/gin"
	inventoryapp "github.com/venueos/backend/internal/application/inventory"
)

// ExpirationHandler exposes the expiration sweep for manual runs
type ExpirationHandler struct {
	BaseHandler
	expirationService *inventoryapp.BatchExpirationService
}

// NewExpirationHandler creates a new ExpirationHandler
func NewExpirationHandler(expirationService *inventoryapp.BatchExpirationService) *ExpirationHandler {
	return &ExpirationHandler{expirationService: expirationService}
}

// RunSweep godoc
// @ID           runExpireSweep
// @Summary      Expire overdue batches now
// @Description  Marks every active batch past its expiration date as EXPIRED and writes SPOILAGE movements. The scheduler runs the same sweep periodically; this endpoint triggers it on demand.
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[inventoryapp.ExpirationSweepStats]
// @Failure      500 {object} ErrorResponse
// @Router       /admin/batches/expire-sweep [post]
func (h *ExpirationHandler) RunSweep(c *gin.Context) {
	stats, err := h.expirationService.ExpireOverdueBatches(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stats)
}
