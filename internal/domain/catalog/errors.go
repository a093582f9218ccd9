package catalog

import "errors"

var (
	ErrProductInvalidExternalID = errors.New("catalog: invalid external product ID")
	ErrProductNotFound          = errors.New("catalog: product not found")
	ErrProductNegativeStock     = errors.New("catalog: stock cannot be negative")
	ErrProductNegativePrice     = errors.New("catalog: price cannot be negative")
	ErrProductStockNotScalar    = errors.New("catalog: product stock is derived from variations")
	ErrProductInvalidQuantity   = errors.New("catalog: quantity cannot be negative")
	ErrVariationNotFound        = errors.New("catalog: variation not found")
)
