package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/config"
	"storefront/metrics"
	"storefront/models"
	"storefront/notify"
	"storefront/repository"
	"storefront/utils"
)

type fakeNotifier struct {
	mu    sync.Mutex
	bills []notify.Bill
	err   error
}

func (n *fakeNotifier) SendBill(ctx context.Context, bill notify.Bill) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.bills = append(n.bills, bill)
	return nil
}

type testEnv struct {
	store    *repository.Memory
	notifier *fakeNotifier
	auth     *AuthService
	catalog  *CatalogService
	cart     *CartService
	checkout *CheckoutService
	ledger   *LedgerService
	clock    time.Time
}

func newTestEnv(t *testing.T, policy config.CheckoutPolicy) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewMemory()
	env := &testEnv{
		store:    store,
		notifier: &fakeNotifier{},
		clock:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	now := func() time.Time {
		env.clock = env.clock.Add(time.Minute)
		return env.clock
	}

	env.auth = NewAuthService(store, utils.NewPasswordHasher(bcrypt.MinCost),
		utils.NewTokenManager("test-secret", time.Hour, false), logger)
	env.auth.now = now
	env.catalog = NewCatalogService(store, logger)
	env.catalog.now = now
	env.cart = NewCartService(store, logger)
	env.checkout = NewCheckoutService(store, env.notifier, policy, metrics.New(), logger)
	env.checkout.now = now
	env.ledger = NewLedgerService(store, logger)
	return env
}

func (e *testEnv) register(t *testing.T, email string, role models.Role) models.Identity {
	t.Helper()
	acct, err := e.auth.Register(context.Background(), models.RegisterReq{Email: email, Password: "secret123", Role: role})
	require.NoError(t, err)
	return models.Identity{AccountID: acct.ID, Role: acct.Role}
}

func (e *testEnv) product(t *testing.T, owner models.Identity, name string, price string, stock int) *models.Product {
	t.Helper()
	p, err := e.catalog.Create(context.Background(), owner, models.CreateProductReq{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) stock(t *testing.T, productID string) int {
	t.Helper()
	p, err := e.store.ProductByID(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func (e *testEnv) salesCount(t *testing.T) int {
	t.Helper()
	all, err := e.store.ListSales(context.Background(), models.SaleFilter{})
	require.NoError(t, err)
	return len(all)
}
