package persistence

import (
	"context"
	"errors"

	"github.com/franchise/backend/internal/domain/catalog"
	"github.com/franchise/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// createBatchSize bounds the rows per INSERT when persisting a sync batch
const createBatchSize = 500

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its internal ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByExternalID finds a product by its source-provider ID
func (r *GormProductRepository) FindByExternalID(ctx context.Context, externalID string) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByExternalIDs returns the existing products among the given external
// IDs, keyed by external ID
func (r *GormProductRepository) FindByExternalIDs(ctx context.Context, externalIDs []string) (map[string]*catalog.Product, error) {
	result := make(map[string]*catalog.Product, len(externalIDs))
	if len(externalIDs) == 0 {
		return result, nil
	}

	var products []catalog.Product
	if err := r.db.WithContext(ctx).
		Where("external_id IN ?", externalIDs).
		Find(&products).Error; err != nil {
		return nil, err
	}

	for i := range products {
		result[products[i].ExternalID] = &products[i]
	}
	return result, nil
}

// ListActiveIDs returns the internal IDs of all active products
func (r *GormProductRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("active = ?", true).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// CountActive returns the number of active products
func (r *GormProductRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("active = ?", true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new product
func (r *GormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// CreateBatch inserts multiple products in bounded batches
func (r *GormProductRepository) CreateBatch(ctx context.Context, products []*catalog.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(products, createBatchSize).Error
}

// Update persists a mutated product with a compare-and-swap on the version
// column. A zero-row update means another writer advanced the row since it
// was loaded, and the caller must re-read and retry.
func (r *GormProductRepository) Update(ctx context.Context, product *catalog.Product) error {
	result := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("id = ? AND version = ?", product.ID, product.Version).
		Updates(map[string]any{
			"external_id":   product.ExternalID,
			"name":          product.Name,
			"base_price":    product.BasePrice,
			"stock":         product.Stock,
			"active":        product.Active,
			"primary_image": product.PrimaryImage,
			"images":        product.ImagesJSON,
			"variations":    product.VariationsJSON,
			"updated_at":    product.UpdatedAt,
			"version":       product.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	product.Version++
	return nil
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
