package handler

import (
	storeapp "github.com/franchise/backend/internal/application/store"
	"github.com/franchise/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StoreHandler handles store, link, and webhook endpoint API endpoints
type StoreHandler struct {
	BaseHandler
	linkService *storeapp.LinkService
	reconciler  *storeapp.LinkReconciler
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(linkService *storeapp.LinkService, reconciler *storeapp.LinkReconciler) *StoreHandler {
	return &StoreHandler{
		linkService: linkService,
		reconciler:  reconciler,
	}
}

// RegisterRoutes registers store routes
func (h *StoreHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stores := rg.Group("/stores")
	{
		stores.POST("", h.CreateStore)
		stores.GET("", h.ListStores)
		stores.POST("/reconcile-all", h.ReconcileAll)
		stores.GET("/:id", h.GetStore)
		stores.POST("/:id/reconcile", h.Reconcile)
		stores.GET("/:id/reconcile/preview", h.ReconcilePreview)
		stores.GET("/:id/links/:productId", h.GetLink)
		stores.PATCH("/:id/links/:productId", h.UpdateLink)
		stores.POST("/:id/endpoints", h.CreateEndpoint)
		stores.GET("/:id/endpoints", h.ListEndpoints)
	}

	endpoints := rg.Group("/endpoints")
	{
		endpoints.PATCH("/:id", h.UpdateEndpoint)
		endpoints.DELETE("/:id", h.DeleteEndpoint)
	}
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// CreateStore registers a new downstream store
func (h *StoreHandler) CreateStore(c *gin.Context) {
	var req storeapp.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.linkService.CreateStore(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// ListStores returns all registered stores
func (h *StoreHandler) ListStores(c *gin.Context) {
	stores, err := h.linkService.ListStores(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stores)
}

// GetStore returns one store by ID
func (h *StoreHandler) GetStore(c *gin.Context) {
	storeID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid store ID")
		return
	}

	resp, err := h.linkService.GetStore(c.Request.Context(), storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Reconcile aligns one store's link table with the canonical catalog.
// ?preview=true computes the report without writing.
func (h *StoreHandler) Reconcile(c *gin.Context) {
	storeID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid store ID")
		return
	}

	preview := c.Query("preview") == "true"

	report, err := h.reconciler.Reconcile(c.Request.Context(), storeID, preview)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// ReconcilePreview returns the reconciliation report without writing
func (h *StoreHandler) ReconcilePreview(c *gin.Context) {
	storeID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid store ID")
		return
	}

	report, err := h.reconciler.Reconcile(c.Request.Context(), storeID, true)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// ReconcileAll reconciles every active store and returns per-store reports
func (h *StoreHandler) ReconcileAll(c *gin.Context) {
	preview := c.Query("preview") == "true"

	reports, err := h.reconciler.ReconcileAll(c.Request.Context(), preview)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, reports)
}

// GetLink returns one store-product link
func (h *StoreHandler) GetLink(c *gin.Context) {
	storeID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid store ID")
		return
	}
	productID, ok := parseUUIDParam(c, "productId")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	resp, err := h.linkService.GetLink(c.Request.Context(), storeID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// UpdateLink updates the store-owned fields of a link (activation, margin)
func (h *StoreHandler) UpdateLink(c *gin.Context) {
	storeID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid store ID")
		return
	}
	productID, ok := parseUUIDParam(c, "productId")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req storeapp.UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.linkService.UpdateLink(c.Request.Context(), storeID, productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// CreateEndpoint registers a cascade webhook endpoint for a store
func (h *StoreHandler) CreateEndpoint(c *gin.Context) {
	storeID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid store ID")
		return
	}

	var req storeapp.CreateEndpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.linkService.CreateEndpoint(c.Request.Context(), storeID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// ListEndpoints returns a store's registered webhook endpoints
func (h *StoreHandler) ListEndpoints(c *gin.Context) {
	storeID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid store ID")
		return
	}

	endpoints, err := h.linkService.ListEndpoints(c.Request.Context(), storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, endpoints)
}

// UpdateEndpointRequest toggles an endpoint's enabled flag
type UpdateEndpointRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// UpdateEndpoint enables or disables a webhook endpoint
func (h *StoreHandler) UpdateEndpoint(c *gin.Context) {
	endpointID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid endpoint ID")
		return
	}

	var req UpdateEndpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.linkService.SetEndpointEnabled(c.Request.Context(), endpointID, *req.Enabled)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// DeleteEndpoint removes a webhook endpoint
func (h *StoreHandler) DeleteEndpoint(c *gin.Context) {
	endpointID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid endpoint ID")
		return
	}

	if err := h.linkService.DeleteEndpoint(c.Request.Context(), endpointID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
