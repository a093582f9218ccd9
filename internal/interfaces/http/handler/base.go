package handler

import (
	"errors"
	"net/http"

	"github.com/franchise/backend/internal/domain/catalog"
	"github.com/franchise/backend/internal/domain/shared"
	"github.com/franchise/backend/internal/domain/store"
	domainsync "github.com/franchise/backend/internal/domain/sync"
	"github.com/franchise/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// RequestIDKey is the context key for request ID
const RequestIDKey = "X-Request-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	if id := c.GetHeader(RequestIDKey); id != "" {
		return id
	}
	return ""
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	h.Error(c, http.StatusConflict, dto.ErrCodeConflict, message)
}

// UnprocessableEntity sends a 422 unprocessable entity response
func (h *BaseHandler) UnprocessableEntity(c *gin.Context, code, message string) {
	h.Error(c, http.StatusUnprocessableEntity, code, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ErrorWithCode sends an error response deriving the status from the code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// ValidationError sends a 400 response with per-field validation details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Validation failed", getRequestID(c), details))
}

// sentinelErrorCodes maps well-known domain sentinel errors to error codes.
// Everything else falls through to DomainError handling or a 500.
var sentinelErrorCodes = []struct {
	err  error
	code string
}{
	{catalog.ErrProductNotFound, dto.ErrCodeNotFound},
	{catalog.ErrVariationNotFound, dto.ErrCodeNotFound},
	{catalog.ErrProductInvalidExternalID, dto.ErrCodeInvalidInput},
	{catalog.ErrProductInvalidQuantity, dto.ErrCodeInvalidInput},
	{catalog.ErrProductNegativeStock, dto.ErrCodeInvalidInput},
	{catalog.ErrProductNegativePrice, dto.ErrCodeInvalidInput},
	{store.ErrStoreNotFound, dto.ErrCodeNotFound},
	{store.ErrLinkNotFound, dto.ErrCodeNotFound},
	{store.ErrEndpointNotFound, dto.ErrCodeNotFound},
	{store.ErrLinkInactiveProduct, dto.ErrCodeInvalidState},
	{store.ErrLinkNegativeMargin, dto.ErrCodeInvalidInput},
	{store.ErrEndpointInvalidURL, dto.ErrCodeInvalidInput},
	{store.ErrEndpointMissingSecret, dto.ErrCodeInvalidInput},
	{store.ErrStoreInvalidName, dto.ErrCodeInvalidInput},
	{store.ErrStoreInvalidSlug, dto.ErrCodeInvalidInput},
	{domainsync.ErrSourceRecordNotFound, dto.ErrCodeNotFound},
}

// HandleError converts domain errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	requestID := getRequestID(c)

	for _, entry := range sentinelErrorCodes {
		if errors.Is(err, entry.err) {
			statusCode := dto.GetHTTPStatus(entry.code)
			c.JSON(statusCode, dto.NewErrorResponseWithRequestID(entry.code, err.Error(), requestID))
			return
		}
	}

	// The source feed being down is the upstream's fault, not ours.
	if errors.Is(err, domainsync.ErrSourceUnavailable) ||
		errors.Is(err, domainsync.ErrSourceRequestFailed) ||
		errors.Is(err, domainsync.ErrSourceInvalidResponse) {
		c.JSON(http.StatusBadGateway, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInternal, err.Error(), requestID))
		return
	}
	if errors.Is(err, domainsync.ErrSourceNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInvalidState, err.Error(), requestID))
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		statusCode := dto.GetHTTPStatus(code)
		c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID))
		return
	}

	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	))
}
