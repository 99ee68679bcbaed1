package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/config"
	"storefront/models"
	"storefront/repository"
)

func TestCheckout_PenScenario(t *testing.T) {
	env := newTestEnv(t, config.AllOrNothing)
	ctx := context.Background()
	shop := env.register(t, "shop@test.io", models.RoleShopkeeper)
	cust := env.register(t, "cust@test.io", models.RoleCustomer)
	pen := env.product(t, shop, "Pen", "10", 5)

	_, err := env.cart.Add(ctx, cust, pen.ID, 2)
	require.NoError(t, err)
	cart, err := env.cart.Add(ctx, cust, pen.ID, 3)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	require.Equal(t, 5, cart[0].Quantity)

	resp, err := env.checkout.Checkout(ctx, cust, "leave at the door")
	require.NoError(t, err)

	assert.True(t, resp.Total.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, []models.BillLine{{Name: "Pen", Price: pen.Price, Quantity: 5}}, resp.Bill)
	assert.Equal(t, "leave at the door", resp.Comment)
	assert.True(t, resp.BillSent)
	assert.Equal(t, 0, env.stock(t, pen.ID))

	sales, err := env.store.ListSales(ctx, models.SaleFilter{CustomerID: cust.AccountID})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.True(t, sales[0].TotalPrice.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, shop.AccountID, sales[0].ShopkeeperID)

	customer, err := env.store.AccountByID(ctx, cust.AccountID)
	require.NoError(t, err)
	assert.Empty(t, customer.Cart)
	assert.Equal(t, []string{sales[0].ID}, customer.SaleIDs)

	shopkeeper, err := env.store.AccountByID(ctx, shop.AccountID)
	require.NoError(t, err)
	assert.Equal(t, []string{sales[0].ID}, shopkeeper.SaleIDs)

	require.Len(t, env.notifier.bills, 1)
	bill := env.notifier.bills[0]
	assert.Equal(t, "cust@test.io", bill.To)
	assert.True(t, bill.Total.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "leave at the door", bill.Comment)
}

func TestPurchase_InsufficientStockLeavesStateUntouched(t *testing.T) {
	env := newTestEnv(t, config.AllOrNothing)
	ctx := context.Background()
	shop := env.register(t, "shop@test.io", models.RoleShopkeeper)
	cust := env.register(t, "cust@test.io", models.RoleCustomer)
	pen := env.product(t, shop, "Pen", "10", 5)

	_, err := env.checkout.Purchase(ctx, cust, pen.ID, 6)
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
	assert.Equal(t, 5, env.stock(t, pen.ID))
	assert.Equal(t, 0, env.salesCount(t))
}

func TestPurchase_Succeeds(t *testing.T) {
	env := newTestEnv(t, config.AllOrNothing)
	ctx := context.Background()
	shop := env.register(t, "shop@test.io", models.RoleShopkeeper)
	cust := env.register(t, "cust@test.io", models.RoleCustomer)
	pen := env.product(t, shop, "Pen", "12.25", 5)

	resp, err := env.checkout.Purchase(ctx, cust, pen.ID, 2)
	require.NoError(t, err)

	assert.NotEmpty(t, resp.SaleID)
	assert.Equal(t, "Pen", resp.ProductName)
	assert.Equal(t, 2, resp.Quantity)
	assert.True(t, resp.TotalPrice.Equal(decimal.RequireFromString("24.5")))
	assert.Equal(t, 3, env.stock(t, pen.ID))
	assert.Empty(t, env.notifier.bills, "direct purchases are not billed by email")
}

func TestPurchase_Errors(t *testing.T) {
	env := newTestEnv(t, config.AllOrNothing)
	ctx := context.Background()
	shop := env.register(t, "shop@test.io", models.RoleShopkeeper)
	cust := env.register(t, "cust@test.io", models.RoleCustomer)
	pen := env.product(t, shop, "Pen", "10", 5)

	tests := []struct {
		name    string
		id      models.Identity
		product string
		qty     int
		want    error
	}{
		{"shopkeeper cannot buy", shop, pen.ID, 1, models.ErrForbidden},
		{"unknown product", cust, "nope", 1, models.ErrNotFound},
		{"unknown account", models.Identity{AccountID: "ghost"}, pen.ID, 1, models.ErrNotFound},
		{"zero quantity", cust, pen.ID, 0, models.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.checkout.Purchase(ctx, tt.id, tt.product, tt.qty)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 5, env.stock(t, pen.ID))
		})
	}
}

func TestSaleTotal_IgnoresLaterPriceChanges(t *testing.T) {
	env := newTestEnv(t, config.AllOrNothing)
	ctx := context.Background()
	shop := env.register(t, "shop@test.io", models.RoleShopkeeper)
	cust := env.register(t, "cust@test.io", models.RoleCustomer)
	pen := env.product(t, shop, "Pen", "10", 5)

	_, err := env.checkout.Purchase(ctx, cust, pen.ID, 3)
	require.NoError(t, err)

	newPrice := decimal.NewFromInt(99)
	_, err = env.catalog.Update(ctx, shop, pen.ID, models.ProductPatch{Price: &newPrice})
	require.NoError(t, err)

	history, err := env.ledger.PurchaseHistory(ctx, cust)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].TotalPrice.Equal(decimal.NewFromInt(30)))
	assert.True(t, history[0].UnitPrice.Equal(decimal.NewFromInt(10)))
}

func TestCheckout_AllOrNothingRollsBack(t *testing.T) {
	env := newTestEnv(t, config.AllOrNothing)
	ctx := context.Background()
	shop := env.register(t, "shop@test.io", models.RoleShopkeeper)
	cust := env.register(t, "cust@test.io", models.RoleCustomer)
	pen := env.product(t, shop, "Pen", "10", 5)
	ink := env.product(t, shop, "Ink", "3", 1)

	_, err := env.cart.Add(ctx, cust, pen.ID, 2)
	require.NoError(t, err)
	_, err = env.cart.Add(ctx, cust, ink.ID, 4)
	require.NoError(t, err)

	_, err = env.checkout.Checkout(ctx, cust, "")
	assert.ErrorIs(t, err, models.ErrInsufficientStock)

	assert.Equal(t, 5, env.stock(t, pen.ID), "earlier line must be rolled back")
	assert.Equal(t, 1, env.stock(t, ink.ID))
	assert.Equal(t, 0, env.salesCount(t))
	assert.Empty(t, env.notifier.bills)

	customer, err := env.store.AccountByID(ctx, cust.AccountID)
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{{ProductID: pen.ID, Quantity: 2}, {ProductID: ink.ID, Quantity: 4}}, customer.Cart)
}

func TestCheckout_BestEffortKeepsFailedLines(t *testing.T) {
	env := newTestEnv(t, config.BestEffort)
	ctx := context.Background()
	shop := env.register(t, "shop@test.io", models.RoleShopkeeper)
	cust := env.register(t, "cust@test.io", models.RoleCustomer)
	pen := env.product(t, shop, "Pen", "10", 5)
	ink := env.product(t, shop, "Ink", "3", 1)

	_, err := env.cart.Add(ctx, cust, pen.ID, 2)
	require.NoError(t, err)
	_, err = env.cart.Add(ctx, cust, ink.ID, 4)
	require.NoError(t, err)

	resp, err := env.checkout.Checkout(ctx, cust, "")
	require.NoError(t, err)

	assert.True(t, resp.Total.Equal(decimal.NewFromInt(20)))
	require.Len(t, resp.Failed, 1)
	assert.Equal(t, ink.ID, resp.Failed[0].ProductID)
	assert.Equal(t, 3, env.stock(t, pen.ID))
	assert.Equal(t, 1, env.stock(t, ink.ID))

	customer, err := env.store.AccountByID(ctx, cust.AccountID)
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{{ProductID: ink.ID, Quantity: 4}}, customer.Cart)
}

func TestCheckout_BestEffortAllFail(t *testing.T) {
	env := newTestEnv(t, config.BestEffort)
	ctx := context.Background()
	shop := env.register(t, "shop@test.io", models.RoleShopkeeper)
	cust := env.register(t, "cust@test.io", models.RoleCustomer)
	ink := env.product(t, shop, "Ink", "3", 1)

	_, err := env.cart.Add(ctx, cust, ink.ID, 4)
	require.NoError(t, err)

	_, err = env.checkout.Checkout(ctx, cust, "")
	assert.ErrorIs(t, err, models.ErrInsufficientStock)

	customer, err := env.store.AccountByID(ctx, cust.AccountID)
	require.NoError(t, err)
	assert.Len(t, customer.Cart, 1)
	assert.Empty(t, env.notifier.bills)
}

func TestCheckout_EmptyCart(t *testing.T) {
	for _, policy := range []config.CheckoutPolicy{config.AllOrNothing, config.BestEffort} {
		t.Run(string(policy), func(t *testing.T) {
			env := newTestEnv(t, policy)
			cust := env.register(t, "cust@test.io", models.RoleCustomer)

			_, err := env.checkout.Checkout(context.Background(), cust, "")
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestCheckout_NotificationFailureIsDistinct(t *testing.T) {
	env := newTestEnv(t, config.AllOrNothing)
	env.notifier.err = errors.New("smtp down")
	ctx := context.Background()
	shop := env.register(t, "shop@test.io", models.RoleShopkeeper)
	cust := env.register(t, "cust@test.io", models.RoleCustomer)
	pen := env.product(t, shop, "Pen", "10", 5)

	_, err := env.cart.Add(ctx, cust, pen.ID, 1)
	require.NoError(t, err)

	resp, err := env.checkout.Checkout(ctx, cust, "")
	assert.ErrorIs(t, err, models.ErrBillNotSent)
	require.NotNil(t, resp)
	assert.False(t, resp.BillSent)
	assert.Equal(t, 4, env.stock(t, pen.ID), "sale stays committed")
	assert.Equal(t, 1, env.salesCount(t))
}

func TestPurchase_ConcurrentBuyersNeverOversell(t *testing.T) {
	env := newTestEnv(t, config.AllOrNothing)
	ctx := context.Background()
	shop := env.register(t, "shop@test.io", models.RoleShopkeeper)
	pen := env.product(t, shop, "Pen", "10", 3)

	buyers := make([]models.Identity, 10)
	for i := range buyers {
		buyers[i] = env.register(t, "buyer"+string(rune('a'+i))+"@test.io", models.RoleCustomer)
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for _, b := range buyers {
		wg.Add(1)
		go func(id models.Identity) {
			defer wg.Done()
			if _, err := env.checkout.Purchase(ctx, id, pen.ID, 1); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}(b)
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, 0, env.stock(t, pen.ID))
	assert.Equal(t, 3, env.salesCount(t))
}

// brokenStockStore fails stock decrements for one product with a driver-level error.
type brokenStockStore struct {
	repository.Store
	productID string
}

func (s brokenStockStore) RunInTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.RunInTx(ctx, func(tx repository.Store) error {
		return fn(brokenStockStore{Store: tx, productID: s.productID})
	})
}

func (s brokenStockStore) DecrementStock(ctx context.Context, productID string, qty int) (*models.Product, error) {
	if productID == s.productID {
		return nil, errors.New("write tcp 10.0.0.5:5432: connection reset by peer")
	}
	return s.Store.DecrementStock(ctx, productID, qty)
}

func TestCheckout_BestEffortHidesDriverErrors(t *testing.T) {
	env := newTestEnv(t, config.BestEffort)
	ctx := context.Background()
	shop := env.register(t, "shop@test.io", models.RoleShopkeeper)
	cust := env.register(t, "cust@test.io", models.RoleCustomer)
	pen := env.product(t, shop, "Pen", "10", 5)
	ink := env.product(t, shop, "Ink", "3", 5)

	_, err := env.cart.Add(ctx, cust, pen.ID, 1)
	require.NoError(t, err)
	_, err = env.cart.Add(ctx, cust, ink.ID, 1)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	checkout := NewCheckoutService(brokenStockStore{Store: env.store, productID: ink.ID}, env.notifier, config.BestEffort, nil, logger)

	resp, err := checkout.Checkout(ctx, cust, "")
	require.NoError(t, err)
	require.Len(t, resp.Failed, 1)
	assert.Equal(t, ink.ID, resp.Failed[0].ProductID)
	assert.Equal(t, "internal error", resp.Failed[0].Reason)
	assert.NotContains(t, resp.Failed[0].Reason, "connection reset")
}
