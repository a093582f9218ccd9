package handler

import (
	"strconv"

	syncapp "github.com/franchise/backend/internal/application/sync"
	"github.com/franchise/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// SyncHandler handles catalog synchronization API endpoints
type SyncHandler struct {
	BaseHandler
	syncService *syncapp.SyncService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncService *syncapp.SyncService) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
	}
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/catalog", h.TriggerSync)
		sync.GET("/runs", h.ListRuns)
	}
}

// TriggerSync starts a catalog sync run and returns its structured result.
// An empty body syncs the configured page window; external_id narrows the
// run to a single product; dry_run previews without writing.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	var req syncapp.SyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	resp, err := h.syncService.Sync(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListRuns returns the most recent sync runs, newest first
func (h *SyncHandler) ListRuns(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			h.BadRequest(c, "limit must be an integer between 1 and 100")
			return
		}
		limit = parsed
	}

	runs, err := h.syncService.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, runs)
}
