package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is written once at purchase time and never changed afterwards.
type Sale struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	CustomerID   string          `json:"customer_id"`
	ShopkeeperID string          `json:"shopkeeper_id"`
	Quantity     int             `json:"quantity"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	PurchasedAt  time.Time       `json:"purchased_at"`
}

// SaleRecord is a Sale with its parties resolved for history views.
type SaleRecord struct {
	Sale
	CustomerEmail string `json:"customer_email"`
}

type SaleFilter struct {
	CustomerID   string
	ShopkeeperID string
	ProductID    string
	NewestFirst  bool
}
