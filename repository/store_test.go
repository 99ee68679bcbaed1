package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/models"
)

var (
	epoch      = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	productSeq int
)

// testStore runs the behaviour every Store implementation must share.
func testStore(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("accounts", func(t *testing.T) { testAccounts(t, newStore(t)) })
	t.Run("products", func(t *testing.T) { testProducts(t, newStore(t)) })
	t.Run("decrement guard", func(t *testing.T) { testDecrementGuard(t, newStore(t)) })
	t.Run("rollback", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("cart", func(t *testing.T) { testCart(t, newStore(t)) })
	t.Run("sales", func(t *testing.T) { testSales(t, newStore(t)) })
}

func seedAccount(t *testing.T, st Store, email string, role models.Role) *models.Account {
	t.Helper()
	a := &models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
		CreatedAt:    epoch,
	}
	require.NoError(t, st.CreateAccount(context.Background(), a))
	return a
}

func seedProduct(t *testing.T, st Store, owner *models.Account, name, price string, stock int) *models.Product {
	t.Helper()
	productSeq++
	created := epoch.Add(time.Duration(productSeq) * time.Second)
	p := &models.Product{
		ID:        uuid.NewString(),
		OwnerID:   owner.ID,
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, st.CreateProduct(context.Background(), p))
	return p
}

func seedSale(t *testing.T, st Store, p *models.Product, customer *models.Account, qty int, at time.Time) *models.Sale {
	t.Helper()
	s := &models.Sale{
		ID:           uuid.NewString(),
		ProductID:    p.ID,
		ProductName:  p.Name,
		UnitPrice:    p.Price,
		CustomerID:   customer.ID,
		ShopkeeperID: p.OwnerID,
		Quantity:     qty,
		TotalPrice:   p.Price.Mul(decimal.NewFromInt(int64(qty))),
		PurchasedAt:  at,
	}
	require.NoError(t, st.CreateSale(context.Background(), s))
	return s
}

func testAccounts(t *testing.T, st Store) {
	ctx := context.Background()
	shop := seedAccount(t, st, "shop@test.io", models.RoleShopkeeper)

	err := st.CreateAccount(ctx, &models.Account{ID: uuid.NewString(), Email: "shop@test.io", PasswordHash: "x", Role: models.RoleCustomer, CreatedAt: epoch})
	assert.ErrorIs(t, err, models.ErrConflict)

	got, err := st.AccountByEmail(ctx, "shop@test.io")
	require.NoError(t, err)
	assert.Equal(t, shop.ID, got.ID)
	assert.Equal(t, models.RoleShopkeeper, got.Role)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Empty(t, got.ProductIDs)
	assert.Empty(t, got.SaleIDs)
	assert.Empty(t, got.Cart)

	_, err = st.AccountByID(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = st.AccountByEmail(ctx, "missing@test.io")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func testProducts(t *testing.T, st Store) {
	ctx := context.Background()
	a := seedAccount(t, st, "a@test.io", models.RoleShopkeeper)
	b := seedAccount(t, st, "b@test.io", models.RoleShopkeeper)
	pen := seedProduct(t, st, a, "Pen", "10", 5)
	ink := seedProduct(t, st, b, "Ink", "2.5", 1)

	all, err := st.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, pen.ID, all[0].ID)
	assert.Equal(t, "a@test.io", all[0].OwnerEmail)
	assert.Equal(t, "b@test.io", all[1].OwnerEmail)

	own, err := st.ListProductsByOwner(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, ink.ID, own[0].ID)

	owner, err := st.AccountByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{pen.ID}, owner.ProductIDs)

	pen.Name = "Blue Pen"
	pen.Price = decimal.RequireFromString("12.75")
	require.NoError(t, st.UpdateProduct(ctx, pen))
	got, err := st.ProductByID(ctx, pen.ID)
	require.NoError(t, err)
	assert.Equal(t, "Blue Pen", got.Name)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("12.75")))
	assert.Equal(t, a.ID, got.OwnerID)

	require.NoError(t, st.DeleteProduct(ctx, pen.ID))
	_, err = st.ProductByID(ctx, pen.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, st.DeleteProduct(ctx, pen.ID), models.ErrNotFound)
	assert.ErrorIs(t, st.UpdateProduct(ctx, pen), models.ErrNotFound)
}

func testDecrementGuard(t *testing.T, st Store) {
	ctx := context.Background()
	shop := seedAccount(t, st, "shop@test.io", models.RoleShopkeeper)
	pen := seedProduct(t, st, shop, "Pen", "10", 3)

	_, err := st.DecrementStock(ctx, pen.ID, 4)
	assert.ErrorIs(t, err, models.ErrInsufficientStock)

	got, err := st.DecrementStock(ctx, pen.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(10)))

	_, err = st.DecrementStock(ctx, pen.ID, 1)
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
}

func testRollback(t *testing.T, st Store) {
	ctx := context.Background()
	shop := seedAccount(t, st, "shop@test.io", models.RoleShopkeeper)
	cust := seedAccount(t, st, "cust@test.io", models.RoleCustomer)
	pen := seedProduct(t, st, shop, "Pen", "10", 5)
	require.NoError(t, st.SaveCart(ctx, cust.ID, models.Cart{{ProductID: pen.ID, Quantity: 2}}))

	boom := errors.New("boom")
	err := st.RunInTx(ctx, func(tx Store) error {
		if _, err := tx.DecrementStock(ctx, pen.ID, 2); err != nil {
			return err
		}
		seedSale(t, tx, pen, cust, 2, epoch)
		if err := tx.SaveCart(ctx, cust.ID, nil); err != nil {
			return err
		}
		// nested calls join the outer transaction
		return tx.RunInTx(ctx, func(Store) error { return boom })
	})
	assert.ErrorIs(t, err, boom)

	got, err := st.ProductByID(ctx, pen.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
	sales, err := st.ListSales(ctx, models.SaleFilter{})
	require.NoError(t, err)
	assert.Empty(t, sales)
	acct, err := st.AccountByID(ctx, cust.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{{ProductID: pen.ID, Quantity: 2}}, acct.Cart)

	require.NoError(t, st.RunInTx(ctx, func(tx Store) error {
		_, err := tx.DecrementStock(ctx, pen.ID, 2)
		return err
	}))
	got, err = st.ProductByID(ctx, pen.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
}

func testCart(t *testing.T, st Store) {
	ctx := context.Background()
	shop := seedAccount(t, st, "shop@test.io", models.RoleShopkeeper)
	cust := seedAccount(t, st, "cust@test.io", models.RoleCustomer)
	pen := seedProduct(t, st, shop, "Pen", "10", 5)
	ink := seedProduct(t, st, shop, "Ink", "3", 5)

	cart := models.Cart{{ProductID: ink.ID, Quantity: 1}, {ProductID: pen.ID, Quantity: 4}}
	require.NoError(t, st.SaveCart(ctx, cust.ID, cart))
	acct, err := st.AccountByID(ctx, cust.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem(cart), acct.Cart, "cart keeps insertion order")

	require.NoError(t, st.DeleteProduct(ctx, ink.ID))
	acct, err = st.AccountByID(ctx, cust.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{{ProductID: pen.ID, Quantity: 4}}, acct.Cart, "deleted products leave carts")

	require.NoError(t, st.SaveCart(ctx, cust.ID, nil))
	acct, err = st.AccountByID(ctx, cust.ID)
	require.NoError(t, err)
	assert.Empty(t, acct.Cart)

	assert.ErrorIs(t, st.SaveCart(ctx, "missing", cart[:1]), models.ErrNotFound)
}

func testSales(t *testing.T, st Store) {
	ctx := context.Background()
	shop := seedAccount(t, st, "shop@test.io", models.RoleShopkeeper)
	other := seedAccount(t, st, "other@test.io", models.RoleShopkeeper)
	ann := seedAccount(t, st, "ann@test.io", models.RoleCustomer)
	bob := seedAccount(t, st, "bob@test.io", models.RoleCustomer)
	pen := seedProduct(t, st, shop, "Pen", "10", 50)
	cup := seedProduct(t, st, other, "Cup", "4", 50)

	s1 := seedSale(t, st, pen, ann, 1, epoch)
	s2 := seedSale(t, st, pen, bob, 2, epoch.Add(time.Minute))
	s3 := seedSale(t, st, cup, ann, 3, epoch.Add(2*time.Minute))
	s4 := seedSale(t, st, pen, ann, 4, epoch.Add(time.Minute))

	ids := func(records []models.SaleRecord) []string {
		out := make([]string, len(records))
		for i, r := range records {
			out[i] = r.ID
		}
		return out
	}

	byAnn, err := st.ListSales(ctx, models.SaleFilter{CustomerID: ann.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{s1.ID, s3.ID, s4.ID}, ids(byAnn), "commit order")

	byShop, err := st.ListSales(ctx, models.SaleFilter{ShopkeeperID: shop.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{s1.ID, s2.ID, s4.ID}, ids(byShop))
	assert.Equal(t, "bob@test.io", byShop[1].CustomerEmail)
	assert.True(t, byShop[1].TotalPrice.Equal(decimal.NewFromInt(20)))

	newest, err := st.ListSales(ctx, models.SaleFilter{ShopkeeperID: shop.ID, ProductID: pen.ID, NewestFirst: true})
	require.NoError(t, err)
	assert.Equal(t, []string{s4.ID, s2.ID, s1.ID}, ids(newest), "ties broken by later commit")

	none, err := st.ListSales(ctx, models.SaleFilter{ShopkeeperID: other.ID, ProductID: pen.ID})
	require.NoError(t, err)
	assert.Empty(t, none)

	acct, err := st.AccountByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{s1.ID, s3.ID, s4.ID}, acct.SaleIDs)
	acct, err = st.AccountByID(ctx, shop.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{s1.ID, s2.ID, s4.ID}, acct.SaleIDs)
}
