package sync

import (
	"context"
	"errors"
	"fmt"

	appstore "github.com/franchise/backend/internal/application/store"
	"github.com/franchise/backend/internal/domain/catalog"
	"github.com/franchise/backend/internal/domain/shared"
	domainsync "github.com/franchise/backend/internal/domain/sync"
	"github.com/franchise/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Reconciler runs link reconciliation across every active store
type Reconciler interface {
	ReconcileAll(ctx context.Context, preview bool) ([]appstore.ReconcileReport, error)
}

// SyncService drives the batch pipeline: fetch pages from the source feed,
// normalize, upsert into the canonical catalog, then reconcile store links.
// The pipeline runs pages sequentially; a transport failure halts the run,
// record-level failures are collected and the run continues.
type SyncService struct {
	source     domainsync.CatalogSource
	engine     *UpsertEngine
	reconciler Reconciler
	runs       domainsync.RunRepository
	cfg        config.SyncConfig
	pageSize   int
	logger     *zap.Logger
}

// NewSyncService creates a new SyncService
func NewSyncService(
	source domainsync.CatalogSource,
	engine *UpsertEngine,
	reconciler Reconciler,
	runs domainsync.RunRepository,
	cfg config.SyncConfig,
	pageSize int,
	logger *zap.Logger,
) *SyncService {
	if pageSize < 1 {
		pageSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		source:     source,
		engine:     engine,
		reconciler: reconciler,
		runs:       runs,
		cfg:        cfg,
		pageSize:   pageSize,
		logger:     logger,
	}
}

// Sync runs the batch pipeline and returns the structured run result.
// A transport failure on the source feed aborts the run and surfaces as an
// error; everything the run managed to commit before that stays committed
// and is recorded in the run log.
func (s *SyncService) Sync(ctx context.Context, req SyncRequest) (*RunResponse, error) {
	run := domainsync.NewRun(req.trigger(), req.DryRun)
	result := domainsync.RunResult{}
	var transitions []StockTransition

	s.logger.Info("catalog sync started",
		zap.Bool("dry_run", req.DryRun),
		zap.String("external_id", req.ExternalID),
	)

	var fetchErr error
	if req.ExternalID != "" {
		transitions, fetchErr = s.syncOne(ctx, req.ExternalID, req.DryRun, &result)
	} else {
		transitions, fetchErr = s.syncPages(ctx, req, &result)
	}
	if fetchErr != nil {
		result.Errors = append(result.Errors, domainsync.RunError{
			Stage:   "fetch",
			Message: fetchErr.Error(),
		})
	}

	// A transport abort skips reconciliation; the next run repairs the
	// link table. Dry runs preview instead of writing.
	if s.reconciler != nil && fetchErr == nil {
		reports, err := s.reconciler.ReconcileAll(ctx, req.DryRun)
		if err != nil {
			result.Errors = append(result.Errors, domainsync.RunError{
				Stage:   "reconcile",
				Message: err.Error(),
			})
		} else {
			for i := range reports {
				result.Reconcile.Merge(domainsync.ReconcileTotals{
					StoresReconciled:   1,
					LinksCreated:       reports[i].LinksCreated,
					OrphansDeactivated: reports[i].OrphansDeactivated,
				})
			}
		}
	}

	run.Finish(result)
	if err := s.runs.Save(ctx, run); err != nil {
		s.logger.Error("failed to persist sync run", zap.Error(err))
	}

	s.logger.Info("catalog sync finished",
		zap.String("status", string(run.Status)),
		zap.Int("pages", result.PagesFetched),
		zap.Int("created", result.Upsert.Created),
		zap.Int("updated", result.Upsert.Updated),
		zap.Int("unchanged", result.Upsert.Unchanged),
		zap.Int("errors", len(result.Errors)),
		zap.Int64("duration_ms", run.DurationMS),
	)

	if fetchErr != nil {
		return ToRunResponse(run, transitions), fetchErr
	}
	return ToRunResponse(run, transitions), nil
}

// HandleProductDeleted deactivates a product removed out-of-band at the
// source. The row is kept; store links referencing it become orphans and the
// next reconciliation pass withdraws them.
func (s *SyncService) HandleProductDeleted(ctx context.Context, externalID string) error {
	for attempt := 0; ; attempt++ {
		product, err := s.engine.products.FindByExternalID(ctx, externalID)
		if errors.Is(err, shared.ErrNotFound) {
			// deleting something we never had is a no-op
			s.logger.Debug("deletion for unknown product", zap.String("external_id", externalID))
			return nil
		}
		if err != nil {
			return err
		}
		if !product.Active {
			return nil
		}

		product.Deactivate()
		err = s.engine.products.Update(ctx, product)
		if errors.Is(err, shared.ErrConcurrencyConflict) && attempt < 3 {
			continue
		}
		if err != nil {
			return err
		}

		s.logger.Info("product deactivated after source deletion",
			zap.String("external_id", externalID),
		)
		return nil
	}
}

// ListRuns returns the most recent entries of the run log
func (s *SyncService) ListRuns(ctx context.Context, limit int) ([]RunResponse, error) {
	runs, err := s.runs.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	responses := make([]RunResponse, 0, len(runs))
	for i := range runs {
		responses = append(responses, *ToRunResponse(&runs[i], nil))
	}
	return responses, nil
}

// syncPages walks the paginated feed until the source reports no more pages
// or the page bound is hit
func (s *SyncService) syncPages(ctx context.Context, req SyncRequest, result *domainsync.RunResult) ([]StockTransition, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = s.pageSize
	}
	maxPages := s.cfg.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}

	var transitions []StockTransition
	for fetched := 0; fetched < maxPages; fetched++ {
		records, hasMore, err := s.source.FetchPage(ctx, page, pageSize)
		if err != nil {
			return transitions, fmt.Errorf("fetch page %d: %w", page, err)
		}
		result.PagesFetched++

		products := s.normalizePage(records, result)
		outcome, err := s.engine.Apply(ctx, products, req.DryRun)
		if err != nil {
			return transitions, fmt.Errorf("apply page %d: %w", page, err)
		}
		result.Upsert.Merge(outcome.Result)
		result.Errors = append(result.Errors, outcome.Errors...)
		transitions = append(transitions, outcome.Transitions...)

		if !hasMore {
			break
		}
		page++
	}
	return transitions, nil
}

// syncOne refreshes a single product by its source ID
func (s *SyncService) syncOne(ctx context.Context, externalID string, dryRun bool, result *domainsync.RunResult) ([]StockTransition, error) {
	record, err := s.source.FetchOne(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", externalID, err)
	}

	product, err := s.source.Normalize(record)
	if err != nil {
		result.Errors = append(result.Errors, domainsync.RunError{
			ExternalID: externalID,
			Stage:      "normalize",
			Message:    err.Error(),
		})
		return nil, nil
	}

	outcome, err := s.engine.Apply(ctx, []*catalog.Product{product}, dryRun)
	if err != nil {
		return nil, err
	}
	result.Upsert.Merge(outcome.Result)
	result.Errors = append(result.Errors, outcome.Errors...)
	return outcome.Transitions, nil
}

// normalizePage converts raw records best-effort; a malformed record costs
// one error entry, never the page
func (s *SyncService) normalizePage(records []domainsync.RawRecord, result *domainsync.RunResult) []*catalog.Product {
	products := make([]*catalog.Product, 0, len(records))
	for _, record := range records {
		product, err := s.source.Normalize(record)
		if err != nil {
			result.Errors = append(result.Errors, domainsync.RunError{
				Stage:   "normalize",
				Message: err.Error(),
			})
			continue
		}
		products = append(products, product)
	}
	return products
}
