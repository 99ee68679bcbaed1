package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// prices go over the wire as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID         string          `json:"id"`
	OwnerID    string          `json:"owner_id"`
	OwnerEmail string          `json:"owner_email,omitempty"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	Thumbnail  string          `json:"thumbnail,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ProductPatch carries the fields a shopkeeper may change; nil means unchanged.
type ProductPatch struct {
	Name      *string          `json:"name"`
	Price     *decimal.Decimal `json:"price"`
	Stock     *int             `json:"stock"`
	Thumbnail *string          `json:"thumbnail"`
}

func (p *Product) Apply(patch ProductPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Thumbnail != nil {
		p.Thumbnail = *patch.Thumbnail
	}
}
