package store

import (
	"time"

	"github.com/franchise/backend/internal/domain/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StoreResponse represents a downstream store in API responses
type StoreResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToStoreResponse converts a domain store to a response DTO
func ToStoreResponse(s *store.Store) *StoreResponse {
	return &StoreResponse{
		ID:        s.ID,
		Name:      s.Name,
		Slug:      s.Slug,
		Active:    s.Active,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// CreateStoreRequest represents a request to register a downstream store
type CreateStoreRequest struct {
	Name string `json:"name" binding:"required,max=200"`
	Slug string `json:"slug" binding:"required,max=100"`
}

// StoreLinkResponse represents a store link in API responses
type StoreLinkResponse struct {
	ID            uuid.UUID        `json:"id"`
	StoreID       uuid.UUID        `json:"store_id"`
	ProductID     uuid.UUID        `json:"product_id"`
	IsActive      bool             `json:"is_active"`
	MarginPercent *decimal.Decimal `json:"margin_percent"`
	LinkedAt      time.Time        `json:"linked_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ToStoreLinkResponse converts a domain link to a response DTO
func ToStoreLinkResponse(l *store.StoreLink) *StoreLinkResponse {
	return &StoreLinkResponse{
		ID:            l.ID,
		StoreID:       l.StoreID,
		ProductID:     l.ProductID,
		IsActive:      l.IsActive,
		MarginPercent: l.MarginPercent,
		LinkedAt:      l.LinkedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

// UpdateLinkRequest represents a store operator's change to a link.
// Margin uses a string to preserve decimal precision on the wire.
type UpdateLinkRequest struct {
	IsActive    *bool   `json:"is_active"`
	Margin      *string `json:"margin_percent"`
	ClearMargin bool    `json:"clear_margin"`
}

// WebhookEndpointResponse represents a cascade target in API responses.
// The secret is write-only and never echoed back.
type WebhookEndpointResponse struct {
	ID        uuid.UUID `json:"id"`
	StoreID   uuid.UUID `json:"store_id"`
	URL       string    `json:"url"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToWebhookEndpointResponse converts a domain endpoint to a response DTO
func ToWebhookEndpointResponse(e *store.WebhookEndpoint) *WebhookEndpointResponse {
	return &WebhookEndpointResponse{
		ID:        e.ID,
		StoreID:   e.StoreID,
		URL:       e.URL,
		Enabled:   e.Enabled,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// CreateEndpointRequest represents a request to register a cascade target
type CreateEndpointRequest struct {
	URL    string `json:"url" binding:"required,url"`
	Secret string `json:"secret" binding:"required,min=8"`
}
