package handler

import (
	salesapp "github.com/franchise/backend/internal/application/sales"
	syncapp "github.com/franchise/backend/internal/application/sync"
	"github.com/franchise/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// WebhookHandler receives inbound event webhooks: payment confirmations
// from the payment provider and out-of-band deletions from the source feed.
type WebhookHandler struct {
	BaseHandler
	stockUpdater *salesapp.StockUpdater
	syncService  *syncapp.SyncService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(stockUpdater *salesapp.StockUpdater, syncService *syncapp.SyncService) *WebhookHandler {
	return &WebhookHandler{
		stockUpdater: stockUpdater,
		syncService:  syncService,
	}
}

// RegisterRoutes registers webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks")
	{
		webhooks.POST("/payment-confirmed", h.PaymentConfirmed)
		webhooks.POST("/product-deleted", h.ProductDeleted)
	}
}

// PaymentConfirmed applies a confirmed sale to canonical stock. Duplicate
// deliveries of the same sale_id are acknowledged without reprocessing.
func (h *WebhookHandler) PaymentConfirmed(c *gin.Context) {
	var sale salesapp.SaleConfirmed
	if err := c.ShouldBindJSON(&sale); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.stockUpdater.HandleSaleConfirmed(c.Request.Context(), sale)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ProductDeletedRequest identifies the source product that was removed
type ProductDeletedRequest struct {
	ExternalID string `json:"external_id" binding:"required"`
}

// ProductDeletedResponse acknowledges an out-of-band deletion
type ProductDeletedResponse struct {
	ExternalID string `json:"external_id"`
	Handled    bool   `json:"handled"`
}

// ProductDeleted deactivates a product removed from the source catalog.
// An unknown or already-inactive product is acknowledged as handled.
func (h *WebhookHandler) ProductDeleted(c *gin.Context) {
	var req ProductDeletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if err := h.syncService.HandleProductDeleted(c.Request.Context(), req.ExternalID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ProductDeletedResponse{ExternalID: req.ExternalID, Handled: true})
}
