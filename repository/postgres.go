package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"storefront/models"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Postgres is a Store backed by a pgx pool. Inside RunInTx the same type wraps
// the pgx.Tx and reads of the account row take a row lock.
type Postgres struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, q: pool}
}

func (s *Postgres) RunInTx(ctx context.Context, fn func(tx Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(&Postgres{pool: s.pool, q: tx, inTx: true}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Postgres) CreateAccount(ctx context.Context, a *models.Account) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO accounts (id, email, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Email, a.PasswordHash, string(a.Role), a.CreatedAt,
	)
	if err != nil {
		if pgCode(err) == uniqueViolation {
			return fmt.Errorf("account %s: %w", a.Email, models.ErrConflict)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Postgres) AccountByID(ctx context.Context, id string) (*models.Account, error) {
	return s.account(ctx, `id = $1`, id)
}

func (s *Postgres) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.account(ctx, `email = $1`, email)
}

func (s *Postgres) account(ctx context.Context, where string, arg string) (*models.Account, error) {
	sql := `SELECT id, email, password_hash, role, created_at FROM accounts WHERE ` + where
	if s.inTx {
		sql += ` FOR UPDATE`
	}

	var a models.Account
	var role string
	err := s.q.QueryRow(ctx, sql, arg).Scan(&a.ID, &a.Email, &a.PasswordHash, &role, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", arg, models.ErrNotFound)
		}
		return nil, fmt.Errorf("select account: %w", err)
	}
	a.Role = models.Role(role)

	if a.ProductIDs, err = s.ids(ctx,
		`SELECT id FROM products WHERE owner_id = $1 ORDER BY created_at, id`, a.ID); err != nil {
		return nil, err
	}
	if a.SaleIDs, err = s.ids(ctx,
		`SELECT id FROM sales WHERE customer_id = $1 OR shopkeeper_id = $1 ORDER BY seq`, a.ID); err != nil {
		return nil, err
	}
	if a.Cart, err = s.cart(ctx, a.ID); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Postgres) ids(ctx context.Context, sql string, arg string) ([]string, error) {
	rows, err := s.q.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("select ids: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Postgres) cart(ctx context.Context, accountID string) ([]models.CartItem, error) {
	rows, err := s.q.Query(ctx,
		`SELECT product_id, quantity FROM cart_items WHERE account_id = $1 ORDER BY position`, accountID)
	if err != nil {
		return nil, fmt.Errorf("select cart: %w", err)
	}
	defer rows.Close()

	out := []models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// SaveCart replaces the stored cart. Outside a transaction it opens one so the
// delete and the inserts land together.
func (s *Postgres) SaveCart(ctx context.Context, accountID string, cart models.Cart) error {
	return s.RunInTx(ctx, func(tx Store) error {
		q := tx.(*Postgres).q
		if _, err := q.Exec(ctx, `DELETE FROM cart_items WHERE account_id = $1`, accountID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		for i, item := range cart {
			if _, err := q.Exec(ctx,
				`INSERT INTO cart_items (account_id, product_id, quantity, position) VALUES ($1, $2, $3, $4)`,
				accountID, item.ProductID, item.Quantity, i,
			); err != nil {
				if pgCode(err) == foreignKeyViolation {
					return fmt.Errorf("cart of %s: %w", accountID, models.ErrNotFound)
				}
				return fmt.Errorf("insert cart item: %w", err)
			}
		}
		return nil
	})
}

const productColumns = `p.id, p.owner_id, p.name, p.price, p.stock, p.thumbnail, p.created_at, p.updated_at`

func scanProduct(row pgx.Row, extra ...interface{}) (*models.Product, error) {
	var p models.Product
	dest := append([]interface{}{
		&p.ID, &p.OwnerID, &p.Name, &p.Price, &p.Stock, &p.Thumbnail, &p.CreatedAt, &p.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Postgres) CreateProduct(ctx context.Context, p *models.Product) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO products (id, owner_id, name, price, stock, thumbnail, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.OwnerID, p.Name, p.Price, p.Stock, p.Thumbnail, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		switch pgCode(err) {
		case foreignKeyViolation:
			return fmt.Errorf("owner %s: %w", p.OwnerID, models.ErrNotFound)
		case uniqueViolation:
			return fmt.Errorf("product %s: %w", p.ID, models.ErrConflict)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *Postgres) ProductByID(ctx context.Context, id string) (*models.Product, error) {
	p, err := scanProduct(s.q.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

func (s *Postgres) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.products(ctx,
		`SELECT `+productColumns+`, a.email FROM products p
		 JOIN accounts a ON a.id = p.owner_id
		 ORDER BY p.created_at, p.id`, true)
}

func (s *Postgres) ListProductsByOwner(ctx context.Context, ownerID string) ([]models.Product, error) {
	return s.products(ctx,
		`SELECT `+productColumns+` FROM products p WHERE p.owner_id = $1 ORDER BY p.created_at, p.id`,
		false, ownerID)
}

func (s *Postgres) products(ctx context.Context, sql string, withOwner bool, args ...interface{}) ([]models.Product, error) {
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	out := []models.Product{}
	for rows.Next() {
		var ownerEmail string
		var extra []interface{}
		if withOwner {
			extra = append(extra, &ownerEmail)
		}
		p, err := scanProduct(rows, extra...)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.OwnerEmail = ownerEmail
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *Postgres) UpdateProduct(ctx context.Context, p *models.Product) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE products SET name = $1, price = $2, stock = $3, thumbnail = $4, updated_at = $5 WHERE id = $6`,
		p.Name, p.Price, p.Stock, p.Thumbnail, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", p.ID, models.ErrNotFound)
	}
	return nil
}

func (s *Postgres) DeleteProduct(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (s *Postgres) DecrementStock(ctx context.Context, productID string, qty int) (*models.Product, error) {
	p, err := scanProduct(s.q.QueryRow(ctx,
		`UPDATE products p SET stock = p.stock - $1, updated_at = NOW()
		 WHERE p.id = $2 AND p.stock >= $1
		 RETURNING `+productColumns,
		qty, productID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", productID, models.ErrInsufficientStock)
		}
		return nil, fmt.Errorf("decrement stock: %w", err)
	}
	return p, nil
}

func (s *Postgres) CreateSale(ctx context.Context, sale *models.Sale) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO sales (id, product_id, product_name, unit_price, customer_id, shopkeeper_id, quantity, total_price, purchased_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sale.ID, sale.ProductID, sale.ProductName, sale.UnitPrice, sale.CustomerID, sale.ShopkeeperID,
		sale.Quantity, sale.TotalPrice, sale.PurchasedAt,
	)
	if err != nil {
		if pgCode(err) == foreignKeyViolation {
			return fmt.Errorf("sale %s: %w", sale.ID, models.ErrNotFound)
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

func (s *Postgres) ListSales(ctx context.Context, f models.SaleFilter) ([]models.SaleRecord, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		where = append(where, fmt.Sprintf("s.%s = $%d", col, len(args)))
	}
	add("customer_id", f.CustomerID)
	add("shopkeeper_id", f.ShopkeeperID)
	add("product_id", f.ProductID)

	sql := `SELECT s.id, s.product_id, s.product_name, s.unit_price, s.customer_id, s.shopkeeper_id,
	               s.quantity, s.total_price, s.purchased_at, c.email
	        FROM sales s JOIN accounts c ON c.id = s.customer_id`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	if f.NewestFirst {
		sql += ` ORDER BY s.purchased_at DESC, s.seq DESC`
	} else {
		sql += ` ORDER BY s.seq`
	}

	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select sales: %w", err)
	}
	defer rows.Close()

	out := []models.SaleRecord{}
	for rows.Next() {
		var r models.SaleRecord
		if err := rows.Scan(
			&r.ID, &r.ProductID, &r.ProductName, &r.UnitPrice, &r.CustomerID, &r.ShopkeeperID,
			&r.Quantity, &r.TotalPrice, &r.PurchasedAt, &r.CustomerEmail,
		); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
