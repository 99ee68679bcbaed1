package models

import "github.com/shopspring/decimal"

// PopularItem is one entry of the best-seller ranking shown on the storefront.
type PopularItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Thumbnail string          `json:"thumbnail,omitempty"`
	Price     decimal.Decimal `json:"price"`
	UnitsSold int             `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}
