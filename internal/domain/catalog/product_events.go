package catalog

import (
	"github.com/franchise/backend/internal/domain/shared"
)

// Event types for the catalog domain
const (
	EventTypeProductCreated      = "catalog.product.created"
	EventTypeProductUpdated      = "catalog.product.updated"
	EventTypeProductStockChanged = "catalog.product.stock_changed"
	EventTypeProductDeactivated  = "catalog.product.deactivated"
)

const aggregateTypeProduct = "Product"

// ProductCreatedEvent is raised when a product first appears in the catalog
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, aggregateTypeProduct, p.ID),
		ExternalID:      p.ExternalID,
		Name:            p.Name,
	}
}

// ProductUpdatedEvent is raised when product fields change outside of stock
type ProductUpdatedEvent struct {
	shared.BaseDomainEvent
	ExternalID string `json:"external_id"`
}

// NewProductUpdatedEvent creates a new ProductUpdatedEvent
func NewProductUpdatedEvent(p *Product) *ProductUpdatedEvent {
	return &ProductUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductUpdated, aggregateTypeProduct, p.ID),
		ExternalID:      p.ExternalID,
	}
}

// ProductStockChangedEvent records a before/after stock transition.
// The cascade dispatcher turns these into downstream webhook payloads.
type ProductStockChangedEvent struct {
	shared.BaseDomainEvent
	ExternalID  string `json:"external_id"`
	StockBefore int    `json:"stock_before"`
	StockAfter  int    `json:"stock_after"`
}

// NewProductStockChangedEvent creates a new ProductStockChangedEvent
func NewProductStockChangedEvent(p *Product, before, after int) *ProductStockChangedEvent {
	return &ProductStockChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductStockChanged, aggregateTypeProduct, p.ID),
		ExternalID:      p.ExternalID,
		StockBefore:     before,
		StockAfter:      after,
	}
}

// ProductDeactivatedEvent is raised when a product is withdrawn upstream
type ProductDeactivatedEvent struct {
	shared.BaseDomainEvent
	ExternalID string `json:"external_id"`
}

// NewProductDeactivatedEvent creates a new ProductDeactivatedEvent
func NewProductDeactivatedEvent(p *Product) *ProductDeactivatedEvent {
	return &ProductDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductDeactivated, aggregateTypeProduct, p.ID),
		ExternalID:      p.ExternalID,
	}
}
