package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrLinkNotFound         = errors.New("store: store link not found")
	ErrLinkAlreadyExists    = errors.New("store: store link already exists")
	ErrLinkInactiveProduct  = errors.New("store: cannot activate link for inactive product")
	ErrLinkNegativeMargin   = errors.New("store: margin cannot be negative")
	ErrLinkInvalidStoreID   = errors.New("store: invalid store ID")
	ErrLinkInvalidProductID = errors.New("store: invalid product ID")
)

// StoreLink controls whether, and at what margin, a canonical product is
// exposed in one downstream store. IsActive and MarginPercent are owned by
// the store operator; catalog re-syncs never overwrite them outside the
// reconciler's orphan and missing-link rules.
type StoreLink struct {
	ID            uuid.UUID        `gorm:"type:uuid;primary_key"`
	StoreID       uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_store_links_store_product,priority:1"`
	ProductID     uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_store_links_store_product,priority:2;index:idx_store_links_product"`
	IsActive      bool             `gorm:"not null;default:false"`
	MarginPercent *decimal.Decimal `gorm:"type:decimal(8,4)"`
	LinkedAt      time.Time        `gorm:"not null"`
	UpdatedAt     time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StoreLink) TableName() string {
	return "store_links"
}

// NewStoreLink creates a link in the safe default state: inactive, no margin.
// New products never ship pre-activated into a store's catalog; a human sets
// the margin and flips the link on.
func NewStoreLink(storeID, productID uuid.UUID) (*StoreLink, error) {
	if storeID == uuid.Nil {
		return nil, ErrLinkInvalidStoreID
	}
	if productID == uuid.Nil {
		return nil, ErrLinkInvalidProductID
	}

	now := time.Now()
	return &StoreLink{
		ID:            uuid.New(),
		StoreID:       storeID,
		ProductID:     productID,
		IsActive:      false,
		MarginPercent: nil,
		LinkedAt:      now,
		UpdatedAt:     now,
	}, nil
}

// Activate exposes the product in the store. The caller must have verified
// that the referenced product is active; an active link on an inactive
// product is an orphan by definition.
func (l *StoreLink) Activate() {
	l.IsActive = true
	l.UpdatedAt = time.Now()
}

// Deactivate withdraws the product from the store
func (l *StoreLink) Deactivate() {
	l.IsActive = false
	l.UpdatedAt = time.Now()
}

// SetMargin sets the store-owned margin percentage
func (l *StoreLink) SetMargin(margin decimal.Decimal) error {
	if margin.IsNegative() {
		return ErrLinkNegativeMargin
	}
	l.MarginPercent = &margin
	l.UpdatedAt = time.Now()
	return nil
}

// ClearMargin resets the margin to unset. A link without a margin stays
// inactive until an operator prices it.
func (l *StoreLink) ClearMargin() {
	l.MarginPercent = nil
	l.UpdatedAt = time.Now()
}

// ---------------------------------------------------------------------------
// Repositories
// ---------------------------------------------------------------------------

// StoreRepository persists downstream stores
type StoreRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Store, error)
	FindBySlug(ctx context.Context, slug string) (*Store, error)
	ListActive(ctx context.Context) ([]Store, error)
	Save(ctx context.Context, store *Store) error
}

// StoreLinkRepository persists the product-visibility link table
type StoreLinkRepository interface {
	// FindByStoreAndProduct finds one link by its composite key
	FindByStoreAndProduct(ctx context.Context, storeID, productID uuid.UUID) (*StoreLink, error)

	// ListLinkedProductIDs returns the product IDs already linked to a store
	ListLinkedProductIDs(ctx context.Context, storeID uuid.UUID) ([]uuid.UUID, error)

	// ListOrphanedLinkIDs returns links that are active while their product
	// is inactive
	ListOrphanedLinkIDs(ctx context.Context, storeID uuid.UUID) ([]uuid.UUID, error)

	// DeactivateByIDs flips is_active off for the given links in one
	// batched update and returns the number of rows changed
	DeactivateByIDs(ctx context.Context, linkIDs []uuid.UUID) (int64, error)

	// CreateBatch inserts new links. Existing (store, product) pairs must
	// not be passed; the reconciler computes a set difference first.
	CreateBatch(ctx context.Context, links []*StoreLink) error

	// Save persists a single link (store-owned field updates)
	Save(ctx context.Context, link *StoreLink) error
}
