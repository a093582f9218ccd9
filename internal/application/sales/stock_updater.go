package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/franchise/backend/internal/domain/catalog"
	"github.com/franchise/backend/internal/domain/shared"
	domainsync "github.com/franchise/backend/internal/domain/sync"
	"go.uber.org/zap"
)

// casRetries bounds the reread-and-retry loop when a sale decrement races a
// concurrent write on the same product row. The sale decrement must land, so
// it retries against the fresh row instead of giving up.
const casRetries = 3

// StockUpdater consumes confirmed sales: it decrements the affected
// product/variation stock floor-clamped at zero, persists the change, and
// hands the new snapshot to the cascade dispatcher. Duplicate payment
// webhooks are absorbed by a sale-level idempotency guard.
type StockUpdater struct {
	products    catalog.ProductRepository
	dispatcher  domainsync.CascadeDispatcher
	idempotency shared.IdempotencyStore
	events      shared.EventBus
	ttl         time.Duration
	logger      *zap.Logger
}

// NewStockUpdater creates a new StockUpdater
func NewStockUpdater(
	products catalog.ProductRepository,
	dispatcher domainsync.CascadeDispatcher,
	idempotency shared.IdempotencyStore,
	ttl time.Duration,
	logger *zap.Logger,
) *StockUpdater {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockUpdater{
		products:    products,
		dispatcher:  dispatcher,
		idempotency: idempotency,
		ttl:         ttl,
		logger:      logger,
	}
}

// SetEventBus sets the bus for publishing product domain events
func (u *StockUpdater) SetEventBus(bus shared.EventBus) {
	u.events = bus
}

// HandleSaleConfirmed processes all line items of one confirmed sale.
// A line item that cannot be located is skipped with a warning; the others
// still go through. Cascade failures never fail sale handling.
func (u *StockUpdater) HandleSaleConfirmed(ctx context.Context, sale SaleConfirmed) (*SaleResult, error) {
	result := &SaleResult{SaleID: sale.SaleID}

	claimed := false
	if u.idempotency != nil {
		fresh, err := u.idempotency.MarkProcessed(ctx, sale.SaleID, u.ttl)
		if err != nil {
			// A broken guard must not drop a paid sale; process anyway.
			u.logger.Warn("idempotency check failed, processing sale without guard",
				zap.String("sale_id", sale.SaleID),
				zap.Error(err),
			)
		} else if !fresh {
			u.logger.Info("duplicate sale confirmation acknowledged",
				zap.String("sale_id", sale.SaleID),
			)
			result.Duplicate = true
			return result, nil
		} else {
			claimed = true
		}
	}

	for _, item := range sale.LineItems {
		updated, err := u.OnSaleConfirmed(ctx, item.ProductID, item.VariationKey, item.Quantity)
		if err != nil {
			// Release the dedup claim so the gateway's retry is not
			// absorbed as a duplicate while the decrement never landed.
			if claimed {
				if unmarkErr := u.idempotency.Unmark(ctx, sale.SaleID); unmarkErr != nil {
					u.logger.Error("failed to release idempotency claim for failed sale",
						zap.String("sale_id", sale.SaleID),
						zap.Error(unmarkErr),
					)
				}
			}
			return result, fmt.Errorf("sale %s, product %s: %w", sale.SaleID, item.ProductID, err)
		}
		if updated {
			result.Updated++
		} else {
			result.Skipped++
		}
	}

	return result, nil
}

// OnSaleConfirmed applies one line item: lookup product, lookup variation by
// compound key, decrement floor-clamped at zero, persist, enqueue cascade.
// Returns false when the item was skipped (unknown product or variation).
func (u *StockUpdater) OnSaleConfirmed(ctx context.Context, externalID, variationKey string, quantity int) (bool, error) {
	if quantity < 1 {
		return false, catalog.ErrProductInvalidQuantity
	}

	for attempt := 0; ; attempt++ {
		product, err := u.products.FindByExternalID(ctx, externalID)
		if errors.Is(err, shared.ErrNotFound) {
			u.logger.Warn("sale references unknown product, skipping line item",
				zap.String("external_id", externalID),
			)
			return false, nil
		}
		if err != nil {
			return false, err
		}

		if skipped, err := u.decrement(product, variationKey, quantity); err != nil {
			return false, err
		} else if skipped {
			return false, nil
		}

		err = u.products.Update(ctx, product)
		if errors.Is(err, shared.ErrConcurrencyConflict) && attempt < casRetries {
			// Another writer moved the row; reread and decrement again so
			// the sale always lands on the freshest state.
			continue
		}
		if err != nil {
			return false, err
		}

		u.publishDomainEvents(ctx, product)
		u.enqueueCascade(product)
		return true, nil
	}
}

// decrement applies the floor-clamped stock decrement, choosing the
// variation path when a key is given or the product carries variations
func (u *StockUpdater) decrement(product *catalog.Product, variationKey string, quantity int) (skipped bool, err error) {
	if variationKey == "" && len(product.Variations()) == 0 {
		_, err = product.DecrementStock(quantity)
		return false, err
	}

	_, err = product.DecrementVariationStock(variationKey, quantity)
	if errors.Is(err, catalog.ErrVariationNotFound) {
		u.logger.Warn("variation not found for sale line item, skipping",
			zap.String("external_id", product.ExternalID),
			zap.String("variation_key", variationKey),
		)
		return true, nil
	}
	return false, err
}

// enqueueCascade hands the fresh snapshot to the dispatcher's worker pool.
// A full queue is logged and tolerated; the design accepts losing a single
// cascade notification over blocking sale handling.
func (u *StockUpdater) enqueueCascade(product *catalog.Product) {
	if u.dispatcher == nil {
		return
	}
	if !u.dispatcher.Enqueue(SnapshotOf(product)) {
		u.logger.Warn("cascade queue full, notification dropped",
			zap.String("external_id", product.ExternalID),
		)
	}
}

// publishDomainEvents drains the product's pending events onto the bus
func (u *StockUpdater) publishDomainEvents(ctx context.Context, product *catalog.Product) {
	if u.events == nil {
		product.ClearDomainEvents()
		return
	}
	events := product.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = u.events.Publish(ctx, events...)
	product.ClearDomainEvents()
}

// SnapshotOf builds the cascade snapshot for a product's current state
func SnapshotOf(product *catalog.Product) domainsync.StockSnapshot {
	variations := product.Variations()
	snapshots := make([]domainsync.VariationSnapshot, 0, len(variations))
	for _, v := range variations {
		snapshots = append(snapshots, domainsync.VariationSnapshot{
			ID:      v.ID,
			SKU:     v.SKU,
			Name:    v.Name,
			Stock:   v.Stock,
			Barcode: v.Barcode,
		})
	}
	return domainsync.StockSnapshot{
		ExternalID:   product.ExternalID,
		Name:         product.Name,
		Stock:        product.Stock,
		Variations:   snapshots,
		PrimaryImage: product.PrimaryImage,
	}
}
