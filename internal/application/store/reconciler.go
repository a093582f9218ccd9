package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/franchise/backend/internal/domain/catalog"
	"github.com/franchise/backend/internal/domain/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconcileReport summarizes one reconciliation pass over a single store
type ReconcileReport struct {
	StoreID            uuid.UUID   `json:"store_id"`
	StoreSlug          string      `json:"store_slug"`
	Preview            bool        `json:"preview"`
	OrphansDeactivated int         `json:"orphans_deactivated"`
	OrphanLinkIDs      []uuid.UUID `json:"orphan_link_ids,omitempty"`
	LinksCreated       int         `json:"links_created"`
	MissingProductIDs  []uuid.UUID `json:"missing_product_ids,omitempty"`
}

// LinkReconciler repairs the product-visibility link table after catalog
// changes. Two passes per store: deactivate links whose product went
// inactive, then create links for active products the store has never seen.
// Store-owned fields (is_active on surviving links, margin) are never
// touched.
type LinkReconciler struct {
	storeRepo   store.StoreRepository
	linkRepo    store.StoreLinkRepository
	productRepo catalog.ProductReader
	workers     int
	logger      *zap.Logger
}

// NewLinkReconciler creates a new LinkReconciler. workers bounds the
// concurrency of ReconcileAll.
func NewLinkReconciler(
	storeRepo store.StoreRepository,
	linkRepo store.StoreLinkRepository,
	productRepo catalog.ProductReader,
	workers int,
	logger *zap.Logger,
) *LinkReconciler {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkReconciler{
		storeRepo:   storeRepo,
		linkRepo:    linkRepo,
		productRepo: productRepo,
		workers:     workers,
		logger:      logger,
	}
}

// Reconcile runs both passes for one store. With preview set, the report
// describes what would change and nothing is written.
func (r *LinkReconciler) Reconcile(ctx context.Context, storeID uuid.UUID, preview bool) (*ReconcileReport, error) {
	st, err := r.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{
		StoreID:   st.ID,
		StoreSlug: st.Slug,
		Preview:   preview,
	}

	// Orphan pass: active links pointing at inactive products.
	orphanIDs, err := r.linkRepo.ListOrphanedLinkIDs(ctx, st.ID)
	if err != nil {
		return nil, fmt.Errorf("list orphaned links: %w", err)
	}
	if preview {
		report.OrphansDeactivated = len(orphanIDs)
		report.OrphanLinkIDs = orphanIDs
	} else if len(orphanIDs) > 0 {
		deactivated, err := r.linkRepo.DeactivateByIDs(ctx, orphanIDs)
		if err != nil {
			return nil, fmt.Errorf("deactivate orphaned links: %w", err)
		}
		report.OrphansDeactivated = int(deactivated)
	}

	// Missing-link pass: active products with no link row for this store.
	missingIDs, err := r.missingProductIDs(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	if preview {
		report.LinksCreated = len(missingIDs)
		report.MissingProductIDs = missingIDs
		return report, nil
	}

	if len(missingIDs) > 0 {
		links := make([]*store.StoreLink, 0, len(missingIDs))
		for _, productID := range missingIDs {
			link, err := store.NewStoreLink(st.ID, productID)
			if err != nil {
				return nil, err
			}
			links = append(links, link)
		}
		if err := r.linkRepo.CreateBatch(ctx, links); err != nil {
			return nil, fmt.Errorf("create missing links: %w", err)
		}
		report.LinksCreated = len(links)
	}

	return report, nil
}

// ReconcileAll reconciles every active store using a bounded worker pool.
// A failure in one store is logged and does not stop the others.
func (r *LinkReconciler) ReconcileAll(ctx context.Context, preview bool) ([]ReconcileReport, error) {
	stores, err := r.storeRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active stores: %w", err)
	}
	if len(stores) == 0 {
		return []ReconcileReport{}, nil
	}

	reports := make([]ReconcileReport, 0, len(stores))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, r.workers)

	for i := range stores {
		st := stores[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			report, err := r.Reconcile(ctx, st.ID, preview)
			if err != nil {
				r.logger.Error("store reconciliation failed",
					zap.String("store_slug", st.Slug),
					zap.Error(err),
				)
				return
			}
			mu.Lock()
			reports = append(reports, *report)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return reports, nil
}

// missingProductIDs computes active products minus already-linked products
func (r *LinkReconciler) missingProductIDs(ctx context.Context, storeID uuid.UUID) ([]uuid.UUID, error) {
	activeIDs, err := r.productRepo.ListActiveIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}
	linkedIDs, err := r.linkRepo.ListLinkedProductIDs(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("list linked products: %w", err)
	}

	linked := make(map[uuid.UUID]struct{}, len(linkedIDs))
	for _, id := range linkedIDs {
		linked[id] = struct{}{}
	}

	missing := make([]uuid.UUID, 0)
	for _, id := range activeIDs {
		if _, ok := linked[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
