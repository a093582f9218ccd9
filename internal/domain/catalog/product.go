package catalog

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/franchise/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product is the canonical, store-independent representation of a catalog
// item after normalization. It is the aggregate root for catalog operations;
// per-store exposure lives in store.StoreLink.
type Product struct {
	shared.BaseAggregateRoot
	ExternalID     string           `gorm:"type:varchar(100);not null;uniqueIndex:idx_products_external_id"`
	Name           string           `gorm:"type:varchar(255);not null"`
	BasePrice      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Stock          int              `gorm:"not null;default:0"`
	Active         bool             `gorm:"not null;default:true"`
	PrimaryImage   string           `gorm:"type:text"`
	ImagesJSON     string           `gorm:"type:jsonb;column:images"`
	VariationsJSON string           `gorm:"type:jsonb;column:variations"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// Variation is a sellable variant of a product (size, color, ...).
// Variations are value objects embedded in the product row.
type Variation struct {
	ID      string `json:"id,omitempty"`
	SKU     string `json:"sku,omitempty"`
	Name    string `json:"name,omitempty"`
	Stock   int    `json:"stock"`
	Barcode string `json:"barcode,omitempty"`
}

// Matches reports whether the variation is addressed by the given compound
// key. SKU takes priority; the variation name is the fallback for providers
// that do not assign SKUs.
func (v *Variation) Matches(key string) bool {
	if key == "" {
		return false
	}
	if v.SKU != "" && strings.EqualFold(v.SKU, key) {
		return true
	}
	return v.Name != "" && strings.EqualFold(v.Name, key)
}

// NewProduct creates a new canonical product from a normalized source record
func NewProduct(externalID, name string) (*Product, error) {
	if externalID == "" {
		return nil, ErrProductInvalidExternalID
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ExternalID:        externalID,
		Name:              name,
		Stock:             0,
		Active:            true,
		ImagesJSON:        "[]",
		VariationsJSON:    "[]",
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// Images returns the ordered image URLs
func (p *Product) Images() []string {
	if p.ImagesJSON == "" {
		return nil
	}
	var images []string
	if err := json.Unmarshal([]byte(p.ImagesJSON), &images); err != nil {
		return nil
	}
	return images
}

// SetImages replaces the image list. The first URL becomes the primary image.
func (p *Product) SetImages(images []string) {
	if images == nil {
		images = []string{}
	}
	raw, err := json.Marshal(images)
	if err != nil {
		return
	}
	p.ImagesJSON = string(raw)
	if len(images) > 0 {
		p.PrimaryImage = images[0]
	} else {
		p.PrimaryImage = ""
	}
	p.touch()
}

// Variations returns the product's variations
func (p *Product) Variations() []Variation {
	if p.VariationsJSON == "" {
		return nil
	}
	var variations []Variation
	if err := json.Unmarshal([]byte(p.VariationsJSON), &variations); err != nil {
		return nil
	}
	return variations
}

// SetVariations replaces the variation list and re-derives the aggregate
// stock so that stock == sum of variation stock whenever variations exist.
func (p *Product) SetVariations(variations []Variation) error {
	for i := range variations {
		if variations[i].Stock < 0 {
			return ErrProductNegativeStock
		}
	}

	if variations == nil {
		variations = []Variation{}
	}
	raw, err := json.Marshal(variations)
	if err != nil {
		return err
	}
	p.VariationsJSON = string(raw)

	if len(variations) > 0 {
		total := 0
		for i := range variations {
			total += variations[i].Stock
		}
		p.Stock = total
	}
	p.touch()

	return nil
}

// SetStock sets the scalar stock for products without variations
func (p *Product) SetStock(stock int) error {
	if stock < 0 {
		return ErrProductNegativeStock
	}
	if len(p.Variations()) > 0 {
		return ErrProductStockNotScalar
	}

	before := p.Stock
	p.Stock = stock
	p.touch()

	if before != stock {
		p.AddDomainEvent(NewProductStockChangedEvent(p, before, stock))
	}
	return nil
}

// SetBasePrice sets the base price resolved from the source feed
func (p *Product) SetBasePrice(price *decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return ErrProductNegativePrice
	}
	p.BasePrice = price
	p.touch()
	return nil
}

// Rename updates the product name
func (p *Product) Rename(name string) {
	p.Name = name
	p.touch()
}

// Activate marks the product visible to downstream reconciliation
func (p *Product) Activate() {
	if p.Active {
		return
	}
	p.Active = true
	p.touch()
	p.AddDomainEvent(NewProductUpdatedEvent(p))
}

// Deactivate hides the product. Store links referencing it become orphans
// until the next reconciliation pass.
func (p *Product) Deactivate() {
	if !p.Active {
		return
	}
	p.Active = false
	p.touch()
	p.AddDomainEvent(NewProductDeactivatedEvent(p))
}

// DecrementVariationStock decrements the stock of the variation addressed by
// key, floor-clamped at zero, and re-derives the aggregate stock.
// Returns the variation's new stock. ErrVariationNotFound is returned when no
// variation matches the key.
func (p *Product) DecrementVariationStock(key string, quantity int) (int, error) {
	if quantity < 0 {
		return 0, ErrProductInvalidQuantity
	}

	variations := p.Variations()
	if len(variations) == 0 {
		return 0, ErrVariationNotFound
	}

	matched := -1
	for i := range variations {
		if variations[i].Matches(key) {
			matched = i
			break
		}
	}
	if matched == -1 {
		return 0, ErrVariationNotFound
	}

	before := p.Stock
	newStock := variations[matched].Stock - quantity
	if newStock < 0 {
		newStock = 0
	}
	variations[matched].Stock = newStock

	if err := p.SetVariations(variations); err != nil {
		return 0, err
	}

	if before != p.Stock {
		p.AddDomainEvent(NewProductStockChangedEvent(p, before, p.Stock))
	}

	return newStock, nil
}

// DecrementStock decrements the scalar stock of a variation-less product,
// floor-clamped at zero. Returns the new stock.
func (p *Product) DecrementStock(quantity int) (int, error) {
	if quantity < 0 {
		return 0, ErrProductInvalidQuantity
	}
	if len(p.Variations()) > 0 {
		return 0, ErrProductStockNotScalar
	}

	before := p.Stock
	newStock := before - quantity
	if newStock < 0 {
		newStock = 0
	}
	p.Stock = newStock
	p.touch()

	if before != newStock {
		p.AddDomainEvent(NewProductStockChangedEvent(p, before, newStock))
	}
	return newStock, nil
}

// touch refreshes the update timestamp. The version column is advanced by the
// repository's compare-and-swap update, not by in-memory mutation.
func (p *Product) touch() {
	p.UpdatedAt = time.Now()
}
