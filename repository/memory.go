package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"storefront/models"
)

type memData struct {
	accounts map[string]models.Account
	emails   map[string]string
	carts    map[string]models.Cart
	products map[string]models.Product
	order    []string // product ids in creation order
	sales    []models.Sale
}

func newMemData() *memData {
	return &memData{
		accounts: map[string]models.Account{},
		emails:   map[string]string{},
		carts:    map[string]models.Cart{},
		products: map[string]models.Product{},
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	for k, v := range d.accounts {
		c.accounts[k] = v
	}
	for k, v := range d.emails {
		c.emails[k] = v
	}
	for k, v := range d.carts {
		c.carts[k] = append(models.Cart(nil), v...)
	}
	for k, v := range d.products {
		c.products[k] = v
	}
	c.order = append([]string(nil), d.order...)
	c.sales = append([]models.Sale(nil), d.sales...)
	return c
}

// Memory is a mutex-guarded in-process Store. Transactions run on a private copy
// of the data that replaces the live data only when fn succeeds.
type Memory struct {
	mu   sync.Mutex
	data *memData
}

func NewMemory() *Memory {
	return &Memory{data: newMemData()}
}

func (m *Memory) view(fn func(v *memView) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&memView{d: m.data})
}

func (m *Memory) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	draft := m.data.clone()
	if err := fn(&memTx{v: &memView{d: draft}}); err != nil {
		return err
	}
	m.data = draft
	return nil
}

func (m *Memory) CreateAccount(ctx context.Context, a *models.Account) error {
	return m.view(func(v *memView) error { return v.createAccount(a) })
}

func (m *Memory) AccountByID(ctx context.Context, id string) (*models.Account, error) {
	var out *models.Account
	err := m.view(func(v *memView) (err error) { out, err = v.accountByID(id); return })
	return out, err
}

func (m *Memory) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var out *models.Account
	err := m.view(func(v *memView) (err error) { out, err = v.accountByEmail(email); return })
	return out, err
}

func (m *Memory) SaveCart(ctx context.Context, accountID string, cart models.Cart) error {
	return m.view(func(v *memView) error { return v.saveCart(accountID, cart) })
}

func (m *Memory) CreateProduct(ctx context.Context, p *models.Product) error {
	return m.view(func(v *memView) error { return v.createProduct(p) })
}

func (m *Memory) ProductByID(ctx context.Context, id string) (*models.Product, error) {
	var out *models.Product
	err := m.view(func(v *memView) (err error) { out, err = v.productByID(id); return })
	return out, err
}

func (m *Memory) ListProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := m.view(func(v *memView) error { out = v.listProducts(""); return nil })
	return out, err
}

func (m *Memory) ListProductsByOwner(ctx context.Context, ownerID string) ([]models.Product, error) {
	var out []models.Product
	err := m.view(func(v *memView) error { out = v.listProducts(ownerID); return nil })
	return out, err
}

func (m *Memory) UpdateProduct(ctx context.Context, p *models.Product) error {
	return m.view(func(v *memView) error { return v.updateProduct(p) })
}

func (m *Memory) DeleteProduct(ctx context.Context, id string) error {
	return m.view(func(v *memView) error { return v.deleteProduct(id) })
}

func (m *Memory) DecrementStock(ctx context.Context, productID string, qty int) (*models.Product, error) {
	var out *models.Product
	err := m.view(func(v *memView) (err error) { out, err = v.decrementStock(productID, qty); return })
	return out, err
}

func (m *Memory) CreateSale(ctx context.Context, s *models.Sale) error {
	return m.view(func(v *memView) error { return v.createSale(s) })
}

func (m *Memory) ListSales(ctx context.Context, f models.SaleFilter) ([]models.SaleRecord, error) {
	var out []models.SaleRecord
	err := m.view(func(v *memView) error { out = v.listSales(f); return nil })
	return out, err
}

// memTx is the Store handed to RunInTx callbacks. The outer lock is already held.
type memTx struct {
	v *memView
}

func (t *memTx) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (t *memTx) CreateAccount(ctx context.Context, a *models.Account) error {
	return t.v.createAccount(a)
}

func (t *memTx) AccountByID(ctx context.Context, id string) (*models.Account, error) {
	return t.v.accountByID(id)
}

func (t *memTx) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return t.v.accountByEmail(email)
}

func (t *memTx) SaveCart(ctx context.Context, accountID string, cart models.Cart) error {
	return t.v.saveCart(accountID, cart)
}

func (t *memTx) CreateProduct(ctx context.Context, p *models.Product) error {
	return t.v.createProduct(p)
}

func (t *memTx) ProductByID(ctx context.Context, id string) (*models.Product, error) {
	return t.v.productByID(id)
}

func (t *memTx) ListProducts(ctx context.Context) ([]models.Product, error) {
	return t.v.listProducts(""), nil
}

func (t *memTx) ListProductsByOwner(ctx context.Context, ownerID string) ([]models.Product, error) {
	return t.v.listProducts(ownerID), nil
}

func (t *memTx) UpdateProduct(ctx context.Context, p *models.Product) error {
	return t.v.updateProduct(p)
}

func (t *memTx) DeleteProduct(ctx context.Context, id string) error {
	return t.v.deleteProduct(id)
}

func (t *memTx) DecrementStock(ctx context.Context, productID string, qty int) (*models.Product, error) {
	return t.v.decrementStock(productID, qty)
}

func (t *memTx) CreateSale(ctx context.Context, s *models.Sale) error {
	return t.v.createSale(s)
}

func (t *memTx) ListSales(ctx context.Context, f models.SaleFilter) ([]models.SaleRecord, error) {
	return t.v.listSales(f), nil
}

// memView implements the operations over one memData without locking.
type memView struct {
	d *memData
}

func (v *memView) createAccount(a *models.Account) error {
	if _, ok := v.d.emails[a.Email]; ok {
		return fmt.Errorf("account %s: %w", a.Email, models.ErrConflict)
	}
	stored := *a
	stored.ProductIDs, stored.SaleIDs, stored.Cart = nil, nil, nil
	v.d.accounts[a.ID] = stored
	v.d.emails[a.Email] = a.ID
	return nil
}

func (v *memView) accountByID(id string) (*models.Account, error) {
	a, ok := v.d.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, models.ErrNotFound)
	}
	a.ProductIDs = []string{}
	for _, pid := range v.d.order {
		if v.d.products[pid].OwnerID == id {
			a.ProductIDs = append(a.ProductIDs, pid)
		}
	}
	a.SaleIDs = []string{}
	for _, s := range v.d.sales {
		if s.CustomerID == id || s.ShopkeeperID == id {
			a.SaleIDs = append(a.SaleIDs, s.ID)
		}
	}
	a.Cart = append([]models.CartItem{}, v.d.carts[id]...)
	return &a, nil
}

func (v *memView) accountByEmail(email string) (*models.Account, error) {
	id, ok := v.d.emails[email]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", email, models.ErrNotFound)
	}
	return v.accountByID(id)
}

func (v *memView) saveCart(accountID string, cart models.Cart) error {
	if _, ok := v.d.accounts[accountID]; !ok {
		return fmt.Errorf("account %s: %w", accountID, models.ErrNotFound)
	}
	if len(cart) == 0 {
		delete(v.d.carts, accountID)
		return nil
	}
	v.d.carts[accountID] = append(models.Cart(nil), cart...)
	return nil
}

func (v *memView) createProduct(p *models.Product) error {
	if _, ok := v.d.accounts[p.OwnerID]; !ok {
		return fmt.Errorf("owner %s: %w", p.OwnerID, models.ErrNotFound)
	}
	if _, ok := v.d.products[p.ID]; ok {
		return fmt.Errorf("product %s: %w", p.ID, models.ErrConflict)
	}
	stored := *p
	stored.OwnerEmail = ""
	v.d.products[p.ID] = stored
	v.d.order = append(v.d.order, p.ID)
	return nil
}

func (v *memView) productByID(id string) (*models.Product, error) {
	p, ok := v.d.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, models.ErrNotFound)
	}
	return &p, nil
}

func (v *memView) listProducts(ownerID string) []models.Product {
	out := []models.Product{}
	for _, id := range v.d.order {
		p := v.d.products[id]
		if ownerID != "" && p.OwnerID != ownerID {
			continue
		}
		if ownerID == "" {
			p.OwnerEmail = v.d.accounts[p.OwnerID].Email
		}
		out = append(out, p)
	}
	return out
}

func (v *memView) updateProduct(p *models.Product) error {
	cur, ok := v.d.products[p.ID]
	if !ok {
		return fmt.Errorf("product %s: %w", p.ID, models.ErrNotFound)
	}
	next := *p
	next.OwnerID = cur.OwnerID
	next.OwnerEmail = ""
	next.CreatedAt = cur.CreatedAt
	v.d.products[p.ID] = next
	return nil
}

func (v *memView) deleteProduct(id string) error {
	if _, ok := v.d.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id, models.ErrNotFound)
	}
	delete(v.d.products, id)
	for i, pid := range v.d.order {
		if pid == id {
			v.d.order = append(v.d.order[:i:i], v.d.order[i+1:]...)
			break
		}
	}
	for acct, cart := range v.d.carts {
		if cart.Find(id) >= 0 {
			v.d.carts[acct] = cart.Remove(id)
		}
	}
	return nil
}

func (v *memView) decrementStock(productID string, qty int) (*models.Product, error) {
	p, ok := v.d.products[productID]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", productID, models.ErrNotFound)
	}
	if p.Stock < qty {
		return nil, fmt.Errorf("product %s has %d left: %w", productID, p.Stock, models.ErrInsufficientStock)
	}
	p.Stock -= qty
	v.d.products[productID] = p
	return &p, nil
}

func (v *memView) createSale(s *models.Sale) error {
	for _, id := range []string{s.CustomerID, s.ShopkeeperID} {
		if _, ok := v.d.accounts[id]; !ok {
			return fmt.Errorf("account %s: %w", id, models.ErrNotFound)
		}
	}
	v.d.sales = append(v.d.sales, *s)
	return nil
}

func (v *memView) listSales(f models.SaleFilter) []models.SaleRecord {
	out := []models.SaleRecord{}
	for _, s := range v.d.sales {
		if f.CustomerID != "" && s.CustomerID != f.CustomerID {
			continue
		}
		if f.ShopkeeperID != "" && s.ShopkeeperID != f.ShopkeeperID {
			continue
		}
		if f.ProductID != "" && s.ProductID != f.ProductID {
			continue
		}
		out = append(out, models.SaleRecord{Sale: s, CustomerEmail: v.d.accounts[s.CustomerID].Email})
	}
	if f.NewestFirst {
		// sales are appended in commit order, so reversing first keeps later
		// commits ahead of earlier ones that share a timestamp
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].PurchasedAt.After(out[j].PurchasedAt)
		})
	}
	return out
}
