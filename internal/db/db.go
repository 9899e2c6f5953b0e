package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnLifetime = time.Hour
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		cash NUMERIC(18,2) NOT NULL,
		trade_count INTEGER NOT NULL DEFAULT 0,
		realized_pl NUMERIC(18,2) NOT NULL DEFAULT 0,
		best_trade NUMERIC(18,2),
		worst_trade NUMERIC(18,2),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_login TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS positions (
		account_id UUID NOT NULL REFERENCES accounts(id),
		symbol TEXT NOT NULL,
		quantity NUMERIC(24,8) NOT NULL CHECK (quantity > 0),
		avg_cost NUMERIC(18,6) NOT NULL CHECK (avg_cost > 0),
		display_name TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (account_id, symbol)
	)`,
	`CREATE TABLE IF NOT EXISTS trades (
		id UUID PRIMARY KEY,
		account_id UUID NOT NULL REFERENCES accounts(id),
		side TEXT NOT NULL CHECK (side IN ('BUY','SELL')),
		symbol TEXT NOT NULL,
		quantity NUMERIC(24,8) NOT NULL,
		price NUMERIC(18,6) NOT NULL,
		amount NUMERIC(18,2) NOT NULL,
		commission NUMERIC(18,2) NOT NULL,
		profit_loss NUMERIC(18,2) NOT NULL DEFAULT 0,
		display_name TEXT NOT NULL DEFAULT '',
		executed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS trades_account_executed_idx
		ON trades (account_id, executed_at DESC)`,
	`CREATE TABLE IF NOT EXISTS game_settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		starting_cash NUMERIC(18,2) NOT NULL,
		commission NUMERIC(18,2) NOT NULL,
		game_duration_days INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the schema and seeds the game_settings singleton. The
// seed values apply only on first run; an existing row wins afterwards.
func Migrate(ctx context.Context, pool *pgxpool.Pool, startingCash, commission decimal.Decimal, durationDays int) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	_, err := pool.Exec(ctx, `
		INSERT INTO game_settings (id, starting_cash, commission, game_duration_days)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, startingCash, commission, durationDays)
	if err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}
