package sales

import (
	"context"

	"github.com/franchise/backend/internal/domain/catalog"
	"github.com/franchise/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// StockDepletedHandler watches stock-changed events and flags products that
// sold down to zero, so operators notice depleted items before the next
// feed sync replenishes or deactivates them.
type StockDepletedHandler struct {
	logger *zap.Logger
}

// NewStockDepletedHandler creates a new StockDepletedHandler
func NewStockDepletedHandler(logger *zap.Logger) *StockDepletedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockDepletedHandler{logger: logger}
}

// Handle processes a stock-changed event
func (h *StockDepletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	stockEvent, ok := event.(*catalog.ProductStockChangedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", catalog.EventTypeProductStockChanged),
			zap.String("actual", event.EventType()),
		)
		return nil
	}

	if stockEvent.StockAfter > 0 {
		return nil
	}

	h.logger.Warn("product stock depleted",
		zap.String("external_id", stockEvent.ExternalID),
		zap.Int("stock_before", stockEvent.StockBefore),
	)
	return nil
}

// EventTypes returns the event types this handler is interested in
func (h *StockDepletedHandler) EventTypes() []string {
	return []string{catalog.EventTypeProductStockChanged}
}

// Ensure StockDepletedHandler implements EventHandler
var _ shared.EventHandler = (*StockDepletedHandler)(nil)
