package shared

import (
	"context"
	"time"
)

// IdempotencyStore stores processed event IDs to prevent duplicate processing.
// Payment gateways redeliver confirmation webhooks, so the sale path checks
// here before decrementing stock.
type IdempotencyStore interface {
	// MarkProcessed marks an event as processed with a TTL.
	// Returns true if the event was newly marked, false if it was already processed.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed checks if an event has already been processed
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	// Unmark releases a claim on an event ID so a redelivery can be
	// processed again. Unmarking an unknown ID is a no-op.
	Unmark(ctx context.Context, eventID string) error

	// Close closes the store and releases resources
	Close() error
}
