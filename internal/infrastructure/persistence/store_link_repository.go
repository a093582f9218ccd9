package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/franchise/backend/internal/domain/shared"
	"github.com/franchise/backend/internal/domain/store"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStoreLinkRepository implements store.StoreLinkRepository using GORM
type GormStoreLinkRepository struct {
	db *gorm.DB
}

// NewGormStoreLinkRepository creates a new GormStoreLinkRepository
func NewGormStoreLinkRepository(db *gorm.DB) *GormStoreLinkRepository {
	return &GormStoreLinkRepository{db: db}
}

// FindByStoreAndProduct finds one link by its composite key
func (r *GormStoreLinkRepository) FindByStoreAndProduct(ctx context.Context, storeID, productID uuid.UUID) (*store.StoreLink, error) {
	var link store.StoreLink
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND product_id = ?", storeID, productID).
		First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &link, nil
}

// ListLinkedProductIDs returns the product IDs already linked to a store
func (r *GormStoreLinkRepository) ListLinkedProductIDs(ctx context.Context, storeID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&store.StoreLink{}).
		Where("store_id = ?", storeID).
		Pluck("product_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ListOrphanedLinkIDs returns links that are active while their product is
// inactive. The join keeps the orphan rule in one place instead of loading
// both tables into memory.
func (r *GormStoreLinkRepository) ListOrphanedLinkIDs(ctx context.Context, storeID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&store.StoreLink{}).
		Joins("JOIN products ON products.id = store_links.product_id").
		Where("store_links.store_id = ? AND store_links.is_active = ? AND products.active = ?",
			storeID, true, false).
		Pluck("store_links.id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// DeactivateByIDs flips is_active off for the given links in one batched
// update and returns the number of rows changed
func (r *GormStoreLinkRepository) DeactivateByIDs(ctx context.Context, linkIDs []uuid.UUID) (int64, error) {
	if len(linkIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&store.StoreLink{}).
		Where("id IN ?", linkIDs).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CreateBatch inserts new links
func (r *GormStoreLinkRepository) CreateBatch(ctx context.Context, links []*store.StoreLink) error {
	if len(links) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(links, createBatchSize).Error
}

// Save persists a single link
func (r *GormStoreLinkRepository) Save(ctx context.Context, link *store.StoreLink) error {
	return r.db.WithContext(ctx).Save(link).Error
}

// Ensure GormStoreLinkRepository implements StoreLinkRepository
var _ store.StoreLinkRepository = (*GormStoreLinkRepository)(nil)
