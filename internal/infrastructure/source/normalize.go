package source

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/franchise/backend/internal/domain/catalog"
	domainsync "github.com/franchise/backend/internal/domain/sync"
)

// Normalizer converts raw feed records into canonical products. The provider
// scatters the same logical field across several optional, differently-typed
// locations, so each field is resolved by an ordered rule chain: first rule
// that yields a value wins, the rest are ignored.
type Normalizer struct {
	assetHost string
}

// NewNormalizer creates a normalizer. assetHost is prefixed onto relative
// image paths; it may be empty when the provider always returns absolute URLs.
func NewNormalizer(assetHost string) *Normalizer {
	return &Normalizer{assetHost: strings.TrimRight(assetHost, "/")}
}

// Normalize converts one raw record into a canonical product. A malformed
// record degrades to defaults (nil price, zero stock) instead of failing;
// only a missing external ID is unrecoverable.
func (n *Normalizer) Normalize(record domainsync.RawRecord) (*catalog.Product, error) {
	externalID := externalIDOf(record)

	product, err := catalog.NewProduct(externalID, resolveName(record))
	if err != nil {
		return nil, err
	}

	if price := resolvePrice(record); price != nil {
		if err := product.SetBasePrice(price); err != nil {
			_ = product.SetBasePrice(nil)
		}
	}

	if enabled := resolveActive(record); !enabled {
		product.Deactivate()
	}

	product.SetImages(n.resolveImages(record))

	variations := resolveVariations(record)
	if len(variations) > 0 {
		if err := product.SetVariations(variations); err != nil {
			return nil, err
		}
	} else {
		stock := resolveScalarStock(record)
		if err := product.SetStock(stock); err != nil {
			return nil, err
		}
	}

	// Normalization is not a business mutation; drop the construction events
	// so the upsert engine decides what actually changed.
	product.ClearDomainEvents()

	return product, nil
}

// ---------------------------------------------------------------------------
// Name
// ---------------------------------------------------------------------------

func resolveName(record domainsync.RawRecord) string {
	for _, key := range []string{"name", "title", "nome"} {
		if s, ok := record[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// Price
// ---------------------------------------------------------------------------

// resolvePrice resolves the base price through the provider's three known
// locations, in fixed priority order:
//  1. catalogs[0].prices.price
//  2. variations[0].price
//  3. top-level price
func resolvePrice(record domainsync.RawRecord) *decimal.Decimal {
	if catalogs, ok := record["catalogs"].([]any); ok && len(catalogs) > 0 {
		if first, ok := catalogs[0].(map[string]any); ok {
			if prices, ok := first["prices"].(map[string]any); ok {
				if price := parsePrice(prices["price"]); price != nil {
					return price
				}
			}
		}
	}

	if variations, ok := record["variations"].([]any); ok && len(variations) > 0 {
		if first, ok := variations[0].(map[string]any); ok {
			if price := parsePrice(first["price"]); price != nil {
				return price
			}
		}
	}

	return parsePrice(record["price"])
}

// parsePrice accepts numbers and permissively-formatted numeric strings
func parsePrice(v any) *decimal.Decimal {
	switch value := v.(type) {
	case float64:
		d := decimal.NewFromFloat(value)
		return &d
	case string:
		if d, ok := parseNumericString(value); ok {
			return &d
		}
	}
	return nil
}

// parseNumericString strips everything except digits, comma, dot, and minus,
// then treats the comma as the decimal separator ("R$ 1.234,56" -> 1234.56)
func parseNumericString(s string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "-" {
		return decimal.Decimal{}, false
	}

	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ---------------------------------------------------------------------------
// Active flag
// ---------------------------------------------------------------------------

// resolveActive prefers a boolean enabled field, then boolean active, then
// defaults to true
func resolveActive(record domainsync.RawRecord) bool {
	if enabled, ok := record["enabled"].(bool); ok {
		return enabled
	}
	if active, ok := record["active"].(bool); ok {
		return active
	}
	return true
}

// ---------------------------------------------------------------------------
// Stock
// ---------------------------------------------------------------------------

// stockKeys is the deterministic scan order for stock-bearing fields
var stockKeys = []string{"stock", "estoque", "quantity", "available"}

// resolveScalarStock normalizes the top-level stock of a variation-less
// record. The field may be a number, a numeric string, or an object exposing
// .stock or .available. Absence and garbage both resolve to zero.
func resolveScalarStock(record domainsync.RawRecord) int {
	for _, key := range stockKeys {
		if v, ok := record[key]; ok {
			if stock, ok := parseStockValue(v); ok {
				return stock
			}
		}
	}
	return 0
}

// parseStockValue normalizes one stock value of unknown shape
func parseStockValue(v any) (int, bool) {
	switch value := v.(type) {
	case float64:
		return clampStock(int(value)), true
	case string:
		if d, ok := parseNumericString(value); ok {
			return clampStock(int(d.IntPart())), true
		}
	case map[string]any:
		for _, key := range []string{"stock", "available"} {
			if inner, ok := value[key]; ok {
				if stock, ok := parseStockValue(inner); ok {
					return stock, true
				}
			}
		}
	}
	return 0, false
}

func clampStock(stock int) int {
	if stock < 0 {
		return 0
	}
	return stock
}

// ---------------------------------------------------------------------------
// Variations
// ---------------------------------------------------------------------------

// resolveVariations normalizes the variation list. Each variation's stock
// goes through the same rule chain as the top-level field.
func resolveVariations(record domainsync.RawRecord) []catalog.Variation {
	raw, ok := record["variations"].([]any)
	if !ok || len(raw) == 0 {
		return nil
	}

	variations := make([]catalog.Variation, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}

		variation := catalog.Variation{
			ID:      stringField(entry, "id"),
			SKU:     stringField(entry, "sku"),
			Name:    stringField(entry, "name"),
			Barcode: resolveBarcode(entry),
		}
		for _, key := range stockKeys {
			if v, ok := entry[key]; ok {
				if stock, parsed := parseStockValue(v); parsed {
					variation.Stock = stock
					break
				}
			}
		}
		variations = append(variations, variation)
	}

	if len(variations) == 0 {
		return nil
	}
	return variations
}

// stringField reads a string-or-number field as a string
func stringField(entry map[string]any, key string) string {
	switch v := entry[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// ---------------------------------------------------------------------------
// Barcode
// ---------------------------------------------------------------------------

// Barcode scan order. Array-valued fields are checked before scalar fields,
// and only then the key-substring sweep runs.
var (
	barcodeArrayKeys  = []string{"barcodes", "eans", "gtins", "codes"}
	barcodeScalarKeys = []string{"barcode", "ean", "gtin", "codigo_barras", "cod_barras"}
	barcodeKeyTokens  = []string{"cod", "ean", "bar", "gtin"}
)

// resolveBarcode extracts a barcode from one variation entry. First non-empty
// match wins; absence yields "".
func resolveBarcode(entry map[string]any) string {
	for _, key := range barcodeArrayKeys {
		if items, ok := entry[key].([]any); ok {
			for _, item := range items {
				if code := barcodeValue(item); code != "" {
					return code
				}
			}
		}
	}

	for _, key := range barcodeScalarKeys {
		if code := barcodeValue(entry[key]); code != "" {
			return code
		}
	}

	// Last resort: any key containing a barcode-ish token. Keys are sorted
	// so the sweep order is deterministic across runs.
	keys := make([]string, 0, len(entry))
	for key := range entry {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		lower := strings.ToLower(key)
		for _, token := range barcodeKeyTokens {
			if strings.Contains(lower, token) {
				if code := barcodeValue(entry[key]); code != "" {
					return code
				}
				break
			}
		}
	}

	return ""
}

// barcodeValue reads one barcode candidate: a string, a number, or an object
// with a number-like field
func barcodeValue(v any) string {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case map[string]any:
		for _, key := range []string{"number", "code", "value"} {
			if s := barcodeValue(value[key]); s != "" {
				return s
			}
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// Images
// ---------------------------------------------------------------------------

// resolveImages accepts an array of strings or an array of objects exposing
// url/file/path/src. Relative paths are prefixed with the asset host.
func (n *Normalizer) resolveImages(record domainsync.RawRecord) []string {
	var raw []any
	for _, key := range []string{"images", "photos", "imagens"} {
		if items, ok := record[key].([]any); ok && len(items) > 0 {
			raw = items
			break
		}
	}
	if raw == nil {
		return nil
	}

	images := make([]string, 0, len(raw))
	for _, item := range raw {
		var candidate string
		switch value := item.(type) {
		case string:
			candidate = value
		case map[string]any:
			for _, key := range []string{"url", "file", "path", "src"} {
				if s, ok := value[key].(string); ok && s != "" {
					candidate = s
					break
				}
			}
		}
		if resolved := n.resolveImageURL(candidate); resolved != "" {
			images = append(images, resolved)
		}
	}

	if len(images) == 0 {
		return nil
	}
	return images
}

// resolveImageURL absolutizes one image reference
func (n *Normalizer) resolveImageURL(candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return ""
	}
	if strings.HasPrefix(candidate, "http://") || strings.HasPrefix(candidate, "https://") {
		return candidate
	}
	candidate = strings.TrimPrefix(candidate, "/")
	if n.assetHost == "" {
		return candidate
	}
	return n.assetHost + "/" + candidate
}
