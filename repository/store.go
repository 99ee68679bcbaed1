// Package repository persists accounts, products, carts and sales.
//
// Two implementations exist: Postgres (pgx) for production and an in-memory store
// used when no DATABASE_URL is configured and in tests. Both honour the same
// contract, including the guarded stock decrement and transactional rollback.
package repository

import (
	"context"

	"storefront/models"
)

type Store interface {
	CreateAccount(ctx context.Context, a *models.Account) error
	// AccountByID returns the account with its derived product ids, sale ids and
	// cart. Inside a transaction the account row stays locked until commit.
	AccountByID(ctx context.Context, id string) (*models.Account, error)
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)
	SaveCart(ctx context.Context, accountID string, cart models.Cart) error

	CreateProduct(ctx context.Context, p *models.Product) error
	ProductByID(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListProductsByOwner(ctx context.Context, ownerID string) ([]models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	// DecrementStock subtracts qty only if at least qty units remain, and returns
	// the product as it is after the decrement. It fails with
	// models.ErrInsufficientStock otherwise, leaving stock untouched.
	DecrementStock(ctx context.Context, productID string, qty int) (*models.Product, error)

	CreateSale(ctx context.Context, s *models.Sale) error
	ListSales(ctx context.Context, f models.SaleFilter) ([]models.SaleRecord, error)

	// RunInTx runs fn against a transactional view of the store. Any error
	// returned by fn rolls back every write fn made. Calling RunInTx on a
	// transactional view joins the outer transaction.
	RunInTx(ctx context.Context, fn func(tx Store) error) error
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*memTx)(nil)
	_ Store = (*Postgres)(nil)
)
