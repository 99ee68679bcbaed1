package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// MaxQuantity bounds one cart entry and one purchase line.
	MaxQuantity = 1_000_000
	// MaxStock keeps stock inside the Postgres INTEGER column.
	MaxStock = 1_000_000_000
)

type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart keeps entries in insertion order with at most one entry per product.
type Cart []CartItem

func (c Cart) Find(productID string) int {
	for i := range c {
		if c[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Add merges quantity into an existing entry or appends a new one. The merged
// entry may not exceed MaxQuantity.
func (c Cart) Add(productID string, quantity int) (Cart, error) {
	if quantity < 1 || quantity > MaxQuantity {
		return c, fmt.Errorf("%w: quantity must be between 1 and %d", ErrValidation, MaxQuantity)
	}
	if i := c.Find(productID); i >= 0 {
		if c[i].Quantity > MaxQuantity-quantity {
			return c, fmt.Errorf("%w: cart quantity would exceed %d", ErrValidation, MaxQuantity)
		}
		c[i].Quantity += quantity
		return c, nil
	}
	return append(c, CartItem{ProductID: productID, Quantity: quantity}), nil
}

func (c Cart) Remove(productID string) Cart {
	out := make(Cart, 0, len(c))
	for _, item := range c {
		if item.ProductID != productID {
			out = append(out, item)
		}
	}
	return out
}

// Update overwrites the quantity of an existing entry. It reports false when the
// product is not in the cart.
func (c Cart) Update(productID string, quantity int) (Cart, bool) {
	i := c.Find(productID)
	if i < 0 {
		return c, false
	}
	c[i].Quantity = quantity
	return c, true
}

type CartLine struct {
	Product  Product         `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CartView struct {
	Items []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
}
