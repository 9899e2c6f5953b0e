package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"paper-trader/internal/model"
	"paper-trader/internal/types"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres implements Store over a pgx pool. Inside Atomic all calls run
// on the same serializable transaction.
type Postgres struct {
	pool *pgxpool.Pool
	q    querier
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, q: pool}
}

func (s *Postgres) Atomic(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		return errors.New("store: nested atomic call")
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(&Postgres{q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Postgres) CreateAccount(ctx context.Context, acc *model.Account, passwordHash string) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO accounts (id, username, email, password_hash, cash, trade_count, realized_pl, best_trade, worst_trade, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, acc.ID, acc.Username, acc.Email, passwordHash, acc.Cash, acc.TradeCount, acc.RealizedPL, acc.BestTrade, acc.WorstTrade, acc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

const accountColumns = `id, username, email, cash, trade_count, realized_pl, best_trade, worst_trade, created_at, last_login`

func scanAccount(row pgx.Row, acc *model.Account) error {
	return row.Scan(&acc.ID, &acc.Username, &acc.Email, &acc.Cash, &acc.TradeCount,
		&acc.RealizedPL, &acc.BestTrade, &acc.WorstTrade, &acc.CreatedAt, &acc.LastLogin)
}

func (s *Postgres) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	var acc model.Account
	err := scanAccount(s.q.QueryRow(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = $1", id), &acc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}

func (s *Postgres) GetCredentials(ctx context.Context, username string) (string, string, error) {
	var id, hash string
	err := s.q.QueryRow(ctx, "SELECT id, password_hash FROM accounts WHERE username = $1", username).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", ErrNotFound
		}
		return "", "", err
	}
	return id, hash, nil
}

func (s *Postgres) UpdateAccount(ctx context.Context, acc *model.Account) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE accounts
		SET cash = $1, trade_count = $2, realized_pl = $3, best_trade = $4, worst_trade = $5
		WHERE id = $6
	`, acc.Cash, acc.TradeCount, acc.RealizedPL, acc.BestTrade, acc.WorstTrade, acc.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) TouchLastLogin(ctx context.Context, id string) error {
	_, err := s.q.Exec(ctx, "UPDATE accounts SET last_login = NOW() WHERE id = $1", id)
	return err
}

func (s *Postgres) ListAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := s.q.Query(ctx, "SELECT "+accountColumns+" FROM accounts ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Account
	for rows.Next() {
		var acc model.Account
		if err := scanAccount(rows, &acc); err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (s *Postgres) GetPosition(ctx context.Context, accountID, symbol string) (*model.Position, error) {
	var p model.Position
	err := s.q.QueryRow(ctx, `
		SELECT account_id, symbol, quantity, avg_cost, display_name, updated_at
		FROM positions
		WHERE account_id = $1 AND symbol = $2
	`, accountID, symbol).Scan(&p.AccountID, &p.Symbol, &p.Quantity, &p.AvgCost, &p.DisplayName, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Postgres) UpsertPosition(ctx context.Context, pos *model.Position) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO positions (account_id, symbol, quantity, avg_cost, display_name, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account_id, symbol)
		DO UPDATE SET quantity = EXCLUDED.quantity, avg_cost = EXCLUDED.avg_cost,
			display_name = EXCLUDED.display_name, updated_at = EXCLUDED.updated_at
	`, pos.AccountID, pos.Symbol, pos.Quantity, pos.AvgCost, pos.DisplayName, pos.UpdatedAt)
	return err
}

func (s *Postgres) DeletePosition(ctx context.Context, accountID, symbol string) error {
	_, err := s.q.Exec(ctx, "DELETE FROM positions WHERE account_id = $1 AND symbol = $2", accountID, symbol)
	return err
}

func (s *Postgres) ListPositions(ctx context.Context, accountID string) ([]model.Position, error) {
	rows, err := s.q.Query(ctx, `
		SELECT account_id, symbol, quantity, avg_cost, display_name, updated_at
		FROM positions
		WHERE account_id = $1
		ORDER BY symbol ASC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Position
	for rows.Next() {
		var p model.Position
		if err := rows.Scan(&p.AccountID, &p.Symbol, &p.Quantity, &p.AvgCost, &p.DisplayName, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) InsertTrade(ctx context.Context, trade *model.Trade) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO trades (id, account_id, side, symbol, quantity, price, amount, commission, profit_loss, display_name, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, trade.ID, trade.AccountID, string(trade.Side), trade.Symbol, trade.Quantity, trade.Price,
		trade.Amount, trade.Commission, trade.ProfitLoss, trade.DisplayName, trade.ExecutedAt)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

func (s *Postgres) ListTrades(ctx context.Context, accountID string) ([]model.Trade, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, account_id, side, symbol, quantity, price, amount, commission, profit_loss, display_name, executed_at
		FROM trades
		WHERE account_id = $1
		ORDER BY executed_at DESC, id DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Trade
	for rows.Next() {
		var t model.Trade
		var side string
		if err := rows.Scan(&t.ID, &t.AccountID, &side, &t.Symbol, &t.Quantity, &t.Price,
			&t.Amount, &t.Commission, &t.ProfitLoss, &t.DisplayName, &t.ExecutedAt); err != nil {
			return nil, err
		}
		t.Side = types.TradeSide(side)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Postgres) GetSettings(ctx context.Context) (*model.GameSettings, error) {
	var gs model.GameSettings
	err := s.q.QueryRow(ctx, `
		SELECT starting_cash, commission, game_duration_days
		FROM game_settings
		WHERE id = 1
	`).Scan(&gs.StartingCash, &gs.Commission, &gs.GameDurationDays)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &gs, nil
}
