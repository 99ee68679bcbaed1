package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"storefront/models"
	"storefront/repository"
)

type CartService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewCartService(store repository.Store, logger *slog.Logger) *CartService {
	return &CartService{store: store, logger: logger}
}

// Add puts quantity units of a product in the caller's cart, merging with an
// existing entry for the same product.
func (s *CartService) Add(ctx context.Context, id models.Identity, productID string, quantity int) (models.Cart, error) {
	if quantity < 1 || quantity > models.MaxQuantity {
		return nil, validationError("quantity must be between 1 and %d", models.MaxQuantity)
	}
	return s.mutate(ctx, id, func(tx repository.Store, cart models.Cart) (models.Cart, error) {
		if _, err := tx.ProductByID(ctx, productID); err != nil {
			return nil, err
		}
		return cart.Add(productID, quantity)
	})
}

// Remove drops a product from the cart. Removing an absent product is a no-op.
func (s *CartService) Remove(ctx context.Context, id models.Identity, productID string) (models.Cart, error) {
	return s.mutate(ctx, id, func(_ repository.Store, cart models.Cart) (models.Cart, error) {
		return cart.Remove(productID), nil
	})
}

// Update overwrites the quantity of a product already in the cart.
func (s *CartService) Update(ctx context.Context, id models.Identity, productID string, quantity int) (models.Cart, error) {
	if quantity > models.MaxQuantity {
		return nil, validationError("quantity must be at most %d", models.MaxQuantity)
	}
	return s.mutate(ctx, id, func(_ repository.Store, cart models.Cart) (models.Cart, error) {
		next, ok := cart.Update(productID, quantity)
		if !ok {
			return nil, fmt.Errorf("%w: product not in cart", models.ErrNotFound)
		}
		return next, nil
	})
}

func (s *CartService) mutate(ctx context.Context, id models.Identity, fn func(tx repository.Store, cart models.Cart) (models.Cart, error)) (models.Cart, error) {
	var out models.Cart
	err := s.store.RunInTx(ctx, func(tx repository.Store) error {
		acct, err := customerAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		next, err := fn(tx, models.Cart(acct.Cart))
		if err != nil {
			return err
		}
		if err := tx.SaveCart(ctx, acct.ID, next); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = models.Cart{}
	}
	return out, nil
}

// List returns the cart with each entry's product resolved.
func (s *CartService) List(ctx context.Context, id models.Identity) (*models.CartView, error) {
	acct, err := customerAccount(ctx, s.store, id)
	if err != nil {
		return nil, err
	}

	view := &models.CartView{Items: []models.CartLine{}, Total: decimal.Zero}
	for _, item := range acct.Cart {
		p, err := s.store.ProductByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				// deleted between the account read and this lookup
				continue
			}
			return nil, err
		}
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		view.Items = append(view.Items, models.CartLine{Product: *p, Quantity: item.Quantity, Subtotal: subtotal})
		view.Total = view.Total.Add(subtotal)
	}
	return view, nil
}
