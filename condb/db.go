package condb

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Connect opens a pgx pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL CHECK (role IN ('shopkeeper', 'customer')),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS products (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL REFERENCES accounts(id),
	name       TEXT NOT NULL,
	price      NUMERIC NOT NULL CHECK (price >= 0),
	stock      INTEGER NOT NULL CHECK (stock >= 0),
	thumbnail  TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS products_owner_idx ON products (owner_id);

CREATE TABLE IF NOT EXISTS cart_items (
	account_id TEXT NOT NULL REFERENCES accounts(id),
	product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	quantity   INTEGER NOT NULL CHECK (quantity >= 1),
	position   INTEGER NOT NULL,
	PRIMARY KEY (account_id, product_id)
);

CREATE TABLE IF NOT EXISTS sales (
	id            TEXT PRIMARY KEY,
	seq           BIGSERIAL,
	product_id    TEXT NOT NULL,
	product_name  TEXT NOT NULL,
	unit_price    NUMERIC NOT NULL CHECK (unit_price >= 0),
	customer_id   TEXT NOT NULL REFERENCES accounts(id),
	shopkeeper_id TEXT NOT NULL REFERENCES accounts(id),
	quantity      INTEGER NOT NULL CHECK (quantity >= 1),
	total_price   NUMERIC NOT NULL CHECK (total_price >= 0),
	purchased_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS sales_customer_idx ON sales (customer_id);
CREATE INDEX IF NOT EXISTS sales_shopkeeper_idx ON sales (shopkeeper_id, product_id);
`

// Migrate creates the tables when they are missing. It is safe to run on every boot.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
