package persistence

import (
	"context"
	"errors"

	"github.com/franchise/backend/internal/domain/shared"
	"github.com/franchise/backend/internal/domain/store"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormWebhookEndpointRepository implements store.WebhookEndpointRepository using GORM
type GormWebhookEndpointRepository struct {
	db *gorm.DB
}

// NewGormWebhookEndpointRepository creates a new GormWebhookEndpointRepository
func NewGormWebhookEndpointRepository(db *gorm.DB) *GormWebhookEndpointRepository {
	return &GormWebhookEndpointRepository{db: db}
}

// FindByID finds an endpoint by its ID
func (r *GormWebhookEndpointRepository) FindByID(ctx context.Context, id uuid.UUID) (*store.WebhookEndpoint, error) {
	var endpoint store.WebhookEndpoint
	if err := r.db.WithContext(ctx).First(&endpoint, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &endpoint, nil
}

// ListEnabled returns all enabled endpoints across active stores. Disabled
// stores drop out of the cascade even when their endpoints stay enabled.
func (r *GormWebhookEndpointRepository) ListEnabled(ctx context.Context) ([]store.WebhookEndpoint, error) {
	var endpoints []store.WebhookEndpoint
	if err := r.db.WithContext(ctx).
		Joins("JOIN stores ON stores.id = webhook_endpoints.store_id").
		Where("webhook_endpoints.enabled = ? AND stores.active = ?", true, true).
		Find(&endpoints).Error; err != nil {
		return nil, err
	}
	return endpoints, nil
}

// ListByStore returns all endpoints registered for a store
func (r *GormWebhookEndpointRepository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]store.WebhookEndpoint, error) {
	var endpoints []store.WebhookEndpoint
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at ASC").
		Find(&endpoints).Error; err != nil {
		return nil, err
	}
	return endpoints, nil
}

// Save creates or updates an endpoint
func (r *GormWebhookEndpointRepository) Save(ctx context.Context, endpoint *store.WebhookEndpoint) error {
	return r.db.WithContext(ctx).Save(endpoint).Error
}

// Delete removes an endpoint
func (r *GormWebhookEndpointRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&store.WebhookEndpoint{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormWebhookEndpointRepository implements WebhookEndpointRepository
var _ store.WebhookEndpointRepository = (*GormWebhookEndpointRepository)(nil)
