package store

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/franchise/backend/internal/domain/shared"
	"github.com/google/uuid"
)

var (
	ErrEndpointNotFound      = errors.New("store: webhook endpoint not found")
	ErrEndpointInvalidURL    = errors.New("store: webhook endpoint URL must be absolute http(s)")
	ErrEndpointMissingSecret = errors.New("store: webhook endpoint secret is required")
)

// WebhookEndpoint is a downstream storefront URL that receives cascade
// notifications. Each endpoint carries its own shared secret; one endpoint
// failing or timing out never affects delivery to the others.
type WebhookEndpoint struct {
	shared.BaseAggregateRoot
	StoreID uuid.UUID `gorm:"type:uuid;not null;index:idx_webhook_endpoints_store"`
	URL     string    `gorm:"type:text;not null"`
	Secret  string    `gorm:"type:varchar(255);not null"`
	Enabled bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (WebhookEndpoint) TableName() string {
	return "webhook_endpoints"
}

// NewWebhookEndpoint creates a new cascade target for a store
func NewWebhookEndpoint(storeID uuid.UUID, rawURL, secret string) (*WebhookEndpoint, error) {
	if storeID == uuid.Nil {
		return nil, ErrLinkInvalidStoreID
	}
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, ErrEndpointInvalidURL
	}
	if secret == "" {
		return nil, ErrEndpointMissingSecret
	}

	return &WebhookEndpoint{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StoreID:           storeID,
		URL:               rawURL,
		Secret:            secret,
		Enabled:           true,
	}, nil
}

// Disable stops deliveries to this endpoint without deleting its history
func (e *WebhookEndpoint) Disable() {
	e.Enabled = false
	e.UpdatedAt = time.Now()
}

// Enable resumes deliveries
func (e *WebhookEndpoint) Enable() {
	e.Enabled = true
	e.UpdatedAt = time.Now()
}

// WebhookEndpointRepository persists cascade targets
type WebhookEndpointRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*WebhookEndpoint, error)
	ListEnabled(ctx context.Context) ([]WebhookEndpoint, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]WebhookEndpoint, error)
	Save(ctx context.Context, endpoint *WebhookEndpoint) error
	Delete(ctx context.Context, id uuid.UUID) error
}
