package sync

import (
	"context"
	"time"
)

// StockSnapshot is the product state carried by a cascade notification
type StockSnapshot struct {
	ExternalID   string              `json:"external_id"`
	Name         string              `json:"name"`
	Stock        int                 `json:"stock"`
	Variations   []VariationSnapshot `json:"variations"`
	PrimaryImage string              `json:"primary_image,omitempty"`
}

// VariationSnapshot is one variation's state inside a StockSnapshot
type VariationSnapshot struct {
	ID      string `json:"id,omitempty"`
	SKU     string `json:"sku,omitempty"`
	Name    string `json:"name,omitempty"`
	Stock   int    `json:"stock"`
	Barcode string `json:"barcode,omitempty"`
}

// CascadeEvent is the wire payload posted to downstream storefronts
type CascadeEvent struct {
	Event     string        `json:"event"`
	Data      StockSnapshot `json:"data"`
	Timestamp time.Time     `json:"timestamp"`
}

// EventProductStockUpdated is the cascade event type for stock changes
const EventProductStockUpdated = "product.stock.updated"

// DispatchResult aggregates the per-endpoint outcome of one cascade fan-out.
// Partial failure is reported, never raised.
type DispatchResult struct {
	Dispatched int               `json:"dispatched"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
	Failures   []DispatchFailure `json:"failures,omitempty"`
}

// DispatchFailure describes one endpoint that could not be notified
type DispatchFailure struct {
	EndpointURL string `json:"endpoint_url"`
	Error       string `json:"error"`
}

// CascadeDispatcher fans a stock change out to every enabled downstream
// endpoint. Dispatch blocks until the fan-out finishes; Enqueue hands the
// snapshot to a bounded worker pool and returns immediately, which is how
// the sale path and manual edits invoke it.
type CascadeDispatcher interface {
	Dispatch(ctx context.Context, snapshot StockSnapshot) DispatchResult
	Enqueue(snapshot StockSnapshot) bool
}
