// Request and response bodies of the shop API. These use camelCase keys, which
// is the contract clients already speak; stored entities (Product, Sale,
// CartItem) keep snake_case.

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RegisterReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     Role   `json:"role" validate:"omitempty,oneof=shopkeeper customer"`
}

type LoginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateProductReq struct {
	Name      string          `json:"name" validate:"required,max=200"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock" validate:"gte=0,lte=1000000000"`
	Thumbnail string          `json:"thumbnail" validate:"omitempty,url"`
}

type UpdateProductReq struct {
	ProductID string       `json:"productId" validate:"required"`
	NewData   ProductPatch `json:"newdata"`
}

type ProductIDReq struct {
	ProductID string `json:"productId" validate:"required"`
}

type CartItemReq struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1,max=1000000"`
}

type CartUpdateReq struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=1000000"`
}

type CheckoutReq struct {
	Comment string `json:"comment" validate:"max=1000"`
}

type PurchaseResp struct {
	SaleID      string          `json:"saleId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	PurchasedAt time.Time       `json:"purchasedAt"`
}

type BillLine struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

func (l BillLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type FailedLine struct {
	ProductID string `json:"productId"`
	Reason    string `json:"reason"`
}

type CheckoutResp struct {
	Total    decimal.Decimal `json:"total"`
	Bill     []BillLine      `json:"bill"`
	Comment  string          `json:"comment"`
	SaleIDs  []string        `json:"saleIds"`
	BillSent bool            `json:"billSent"`
	Failed   []FailedLine    `json:"failed,omitempty"`
}

// ProductCustomer is one row of a product's buyer history.
type ProductCustomer struct {
	CustomerEmail string          `json:"customerEmail"`
	Quantity      int             `json:"quantity"`
	Total         decimal.Decimal `json:"total"`
	Date          time.Time       `json:"date"`
}
