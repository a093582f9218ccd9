package sales

// SaleLineItem is one sold item inside a confirmed sale. ProductID is the
// source-provider external ID; VariationKey addresses the variation by SKU,
// falling back to the variation name.
type SaleLineItem struct {
	ProductID    string `json:"product_id" binding:"required"`
	VariationKey string `json:"variation_key"`
	Quantity     int    `json:"quantity" binding:"required,min=1"`
}

// SaleConfirmed is the payment-confirmed payload delivered by the gateway
type SaleConfirmed struct {
	SaleID    string         `json:"sale_id" binding:"required"`
	LineItems []SaleLineItem `json:"line_items" binding:"required,min=1,dive"`
}

// SaleResult reports how the line items of one sale were handled
type SaleResult struct {
	SaleID    string `json:"sale_id"`
	Duplicate bool   `json:"duplicate"`
	Updated   int    `json:"updated"`
	Skipped   int    `json:"skipped"`
}
