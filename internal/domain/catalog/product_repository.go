package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductReader defines read access to the canonical catalog
type ProductReader interface {
	// FindByID finds a product by its internal ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByExternalID finds a product by its source-provider ID
	FindByExternalID(ctx context.Context, externalID string) (*Product, error)

	// FindByExternalIDs returns the existing products among the given
	// external IDs, keyed by external ID. Missing IDs are simply absent.
	FindByExternalIDs(ctx context.Context, externalIDs []string) (map[string]*Product, error)

	// ListActiveIDs returns the internal IDs of all active products
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)

	// CountActive returns the number of active products
	CountActive(ctx context.Context) (int64, error)
}

// ProductWriter defines write access to the canonical catalog
type ProductWriter interface {
	// Create inserts a new product
	Create(ctx context.Context, product *Product) error

	// CreateBatch inserts multiple products in one statement
	CreateBatch(ctx context.Context, products []*Product) error

	// Update persists a mutated product using an optimistic
	// compare-and-swap on the version column. Returns
	// shared.ErrConcurrencyConflict when the row moved underneath us.
	Update(ctx context.Context, product *Product) error
}

// ProductRepository defines the full catalog persistence interface
type ProductRepository interface {
	ProductReader
	ProductWriter
}
