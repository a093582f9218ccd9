package sync

import (
	"context"
	"errors"

	"github.com/franchise/backend/internal/domain/catalog"
)

// ---------------------------------------------------------------------------
// Source errors
// ---------------------------------------------------------------------------

var (
	ErrSourceNotConfigured   = errors.New("sync: source feed not configured")
	ErrSourceUnavailable     = errors.New("sync: source feed temporarily unavailable")
	ErrSourceRequestFailed   = errors.New("sync: source feed request failed")
	ErrSourceInvalidResponse = errors.New("sync: invalid source feed response")
	ErrSourceRecordNotFound  = errors.New("sync: source record not found")
)

// RawRecord is one undecoded product record from the external feed. The
// provider's schema drifts between records, so the adapter keeps the raw
// shape and resolves each field through an ordered rule chain.
type RawRecord map[string]any

// CatalogSource is the port to the external catalog provider. Implementations
// live in infrastructure; the batch pipeline only sees normalized products.
type CatalogSource interface {
	// FetchPage returns one page of raw records and whether more pages
	// remain. A transport failure surfaces as an error and halts the run;
	// pages are never silently dropped.
	FetchPage(ctx context.Context, page, pageSize int) ([]RawRecord, bool, error)

	// FetchOne returns the raw record for a single product
	FetchOne(ctx context.Context, externalID string) (RawRecord, error)

	// Normalize converts a raw record into a canonical product using
	// best-effort defaults; a malformed record yields a degraded product,
	// not an error.
	Normalize(record RawRecord) (*catalog.Product, error)
}
