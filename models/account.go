package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleShopkeeper Role = "shopkeeper"
	RoleCustomer   Role = "customer"
)

func (r Role) Valid() bool {
	return r == RoleShopkeeper || r == RoleCustomer
}

type Account struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	ProductIDs   []string   `json:"products"`
	SaleIDs      []string   `json:"sales"`
	Cart         []CartItem `json:"cart"`
}

// Identity is the caller as proven by a verified session token.
type Identity struct {
	AccountID string
	Role      Role
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
