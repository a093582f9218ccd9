package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/franchise/backend/internal/domain/catalog"
	"github.com/franchise/backend/internal/domain/shared"
	domainsync "github.com/franchise/backend/internal/domain/sync"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// defaultBatchSize is the insert batch size when the config leaves it unset
const defaultBatchSize = 500

// StockTransition records one product's before→after stock change for the
// run log. Transitions are observability output; the batch path never
// cascades them downstream.
type StockTransition struct {
	ExternalID string `json:"external_id"`
	Before     int    `json:"before"`
	After      int    `json:"after"`
}

// ApplyOutcome is the full result of one upsert pass
type ApplyOutcome struct {
	Result      domainsync.UpsertResult
	Transitions []StockTransition
	Errors      []domainsync.RunError
}

// UpsertEngine reconciles normalized products against the canonical catalog.
// Writes happen only when a synced field actually differs, so re-running the
// same feed is a no-op. Store-link rows are never touched here.
type UpsertEngine struct {
	products  catalog.ProductRepository
	batchSize int
	logger    *zap.Logger
}

// NewUpsertEngine creates a new UpsertEngine
func NewUpsertEngine(products catalog.ProductRepository, batchSize int, logger *zap.Logger) *UpsertEngine {
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UpsertEngine{
		products:  products,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Apply upserts one page of normalized products. With dryRun set, the diff is
// computed and counted but nothing is written.
//
// Record-level failures land in the outcome's error list; a failed insert
// batch aborts the remaining batches without rolling back committed ones.
func (e *UpsertEngine) Apply(ctx context.Context, incoming []*catalog.Product, dryRun bool) (ApplyOutcome, error) {
	outcome := ApplyOutcome{}
	if len(incoming) == 0 {
		return outcome, nil
	}

	incoming = dedupeByExternalID(incoming)

	externalIDs := make([]string, 0, len(incoming))
	for _, p := range incoming {
		externalIDs = append(externalIDs, p.ExternalID)
	}

	existing, err := e.products.FindByExternalIDs(ctx, externalIDs)
	if err != nil {
		return outcome, fmt.Errorf("lookup existing products: %w", err)
	}

	toCreate := make([]*catalog.Product, 0)
	for _, product := range incoming {
		current, found := existing[product.ExternalID]
		if !found {
			toCreate = append(toCreate, product)
			continue
		}
		e.applyUpdate(ctx, current, product, dryRun, &outcome)
	}

	e.createInBatches(ctx, toCreate, dryRun, &outcome)

	return outcome, nil
}

// dedupeByExternalID collapses repeated external IDs within one page,
// keeping the last occurrence. Two copies of the same ID in a create batch
// would otherwise trip the unique index and fail the whole batch.
func dedupeByExternalID(incoming []*catalog.Product) []*catalog.Product {
	deduped := make([]*catalog.Product, 0, len(incoming))
	seen := make(map[string]int, len(incoming))
	for _, p := range incoming {
		if idx, ok := seen[p.ExternalID]; ok {
			deduped[idx] = p
			continue
		}
		seen[p.ExternalID] = len(deduped)
		deduped = append(deduped, p)
	}
	return deduped
}

// applyUpdate diffs one incoming product against its stored row and writes
// only when something changed
func (e *UpsertEngine) applyUpdate(ctx context.Context, current, incoming *catalog.Product, dryRun bool, outcome *ApplyOutcome) {
	if !productChanged(current, incoming) {
		outcome.Result.Unchanged++
		return
	}

	stockBefore := current.Stock
	copySyncedFields(current, incoming)

	if dryRun {
		outcome.Result.Updated++
		if stockBefore != current.Stock {
			outcome.Transitions = append(outcome.Transitions, StockTransition{
				ExternalID: current.ExternalID,
				Before:     stockBefore,
				After:      current.Stock,
			})
		}
		return
	}

	err := e.products.Update(ctx, current)
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		// The row moved underneath the batch, meaning a sale decrement
		// landed after our page was fetched. The fresher write wins; the
		// stale feed value is dropped.
		e.logger.Debug("batch update lost version race, keeping newer row",
			zap.String("external_id", current.ExternalID),
		)
		outcome.Result.Unchanged++
		return
	}
	if err != nil {
		outcome.Errors = append(outcome.Errors, domainsync.RunError{
			ExternalID: current.ExternalID,
			Stage:      "update",
			Message:    err.Error(),
		})
		return
	}

	outcome.Result.Updated++
	if stockBefore != current.Stock {
		outcome.Transitions = append(outcome.Transitions, StockTransition{
			ExternalID: current.ExternalID,
			Before:     stockBefore,
			After:      current.Stock,
		})
	}
}

// createInBatches inserts new products in fixed-size batches. A failed batch
// aborts the remaining ones; earlier batches stay committed.
func (e *UpsertEngine) createInBatches(ctx context.Context, toCreate []*catalog.Product, dryRun bool, outcome *ApplyOutcome) {
	if len(toCreate) == 0 {
		return
	}
	if dryRun {
		outcome.Result.Created += len(toCreate)
		for _, p := range toCreate {
			if p.Stock != 0 {
				outcome.Transitions = append(outcome.Transitions, StockTransition{
					ExternalID: p.ExternalID,
					After:      p.Stock,
				})
			}
		}
		return
	}

	for start := 0; start < len(toCreate); start += e.batchSize {
		end := start + e.batchSize
		if end > len(toCreate) {
			end = len(toCreate)
		}
		batch := toCreate[start:end]

		if err := e.products.CreateBatch(ctx, batch); err != nil {
			e.logger.Error("insert batch failed, aborting remaining batches",
				zap.Int("batch_start", start),
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			for _, p := range toCreate[start:] {
				outcome.Errors = append(outcome.Errors, domainsync.RunError{
					ExternalID: p.ExternalID,
					Stage:      "create",
					Message:    err.Error(),
				})
			}
			return
		}

		outcome.Result.Created += len(batch)
		for _, p := range batch {
			if p.Stock != 0 {
				outcome.Transitions = append(outcome.Transitions, StockTransition{
					ExternalID: p.ExternalID,
					After:      p.Stock,
				})
			}
		}
	}
}

// productChanged reports whether any synced field differs between the stored
// row and the incoming normalized product
func productChanged(current, incoming *catalog.Product) bool {
	if current.Stock != incoming.Stock {
		return true
	}
	if current.Active != incoming.Active {
		return true
	}
	if !decimalPtrEqual(current.BasePrice, incoming.BasePrice) {
		return true
	}
	if incoming.Name != "" && current.Name != incoming.Name {
		return true
	}
	if current.PrimaryImage != incoming.PrimaryImage {
		return true
	}
	if current.ImagesJSON != incoming.ImagesJSON {
		return true
	}
	if !variationsEqual(current.Variations(), incoming.Variations()) {
		return true
	}
	return false
}

// copySyncedFields moves the source-owned fields onto the stored row without
// touching identity or version columns
func copySyncedFields(current, incoming *catalog.Product) {
	if incoming.Name != "" {
		current.Name = incoming.Name
	}
	current.BasePrice = incoming.BasePrice
	current.Stock = incoming.Stock
	current.Active = incoming.Active
	current.PrimaryImage = incoming.PrimaryImage
	current.ImagesJSON = incoming.ImagesJSON
	current.VariationsJSON = incoming.VariationsJSON
}

func decimalPtrEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// variationsEqual compares the synced variation fields position by position
func variationsEqual(a, b []catalog.Variation) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Stock != b[i].Stock || a[i].Barcode != b[i].Barcode ||
			a[i].SKU != b[i].SKU || a[i].Name != b[i].Name {
			return false
		}
	}
	return true
}
