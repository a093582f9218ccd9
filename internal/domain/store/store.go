package store

import (
	"errors"
	"strings"
	"time"

	"github.com/franchise/backend/internal/domain/shared"
)

var (
	ErrStoreNotFound    = errors.New("store: store not found")
	ErrStoreInvalidName = errors.New("store: store name is required")
	ErrStoreInvalidSlug = errors.New("store: store slug is required")
)

// Store is a downstream storefront (franchisee or reseller shop) that
// exposes a subset of the canonical catalog through its StoreLinks.
type Store struct {
	shared.BaseAggregateRoot
	Name   string `gorm:"type:varchar(200);not null"`
	Slug   string `gorm:"type:varchar(100);not null;uniqueIndex:idx_stores_slug"`
	Active bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Store) TableName() string {
	return "stores"
}

// NewStore creates a new downstream store
func NewStore(name, slug string) (*Store, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrStoreInvalidName
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, ErrStoreInvalidSlug
	}

	return &Store{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              slug,
		Active:            true,
	}, nil
}

// Deactivate removes the store from reconciliation and cascade fan-out
func (s *Store) Deactivate() {
	s.Active = false
	s.UpdatedAt = time.Now()
}
