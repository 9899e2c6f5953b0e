package model

import (
	"time"

	"github.com/shopspring/decimal"

	"paper-trader/internal/types"
)

// Account is one participant's ledger record. Cash and the realized-P&L
// statistics are mutated only by the execution engine.
type Account struct {
	ID         string          `json:"id"`
	Username   string          `json:"username"`
	Email      string          `json:"email"`
	Cash       decimal.Decimal `json:"cash"`
	TradeCount int             `json:"trade_count"`
	RealizedPL decimal.Decimal `json:"realized_pl"`
	// BestTrade/WorstTrade are unset until the first sell realizes a P&L.
	BestTrade  decimal.NullDecimal `json:"best_trade"`
	WorstTrade decimal.NullDecimal `json:"worst_trade"`
	CreatedAt  time.Time           `json:"created_at"`
	LastLogin  *time.Time          `json:"last_login,omitempty"`
}

// Position is one account's holding in one symbol. A row exists iff
// quantity > 0.
type Position struct {
	AccountID   string          `json:"account_id"`
	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	AvgCost     decimal.Decimal `json:"avg_cost"`
	DisplayName string          `json:"display_name"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Trade is an immutable record of one executed order. Amount is the gross
// cost including commission for buys and the net proceeds for sells.
type Trade struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Side        types.TradeSide `json:"side"`
	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Amount      decimal.Decimal `json:"amount"`
	Commission  decimal.Decimal `json:"commission"`
	ProfitLoss  decimal.Decimal `json:"profit_loss"`
	DisplayName string          `json:"display_name"`
	ExecutedAt  time.Time       `json:"executed_at"`
}

// GameSettings is the singleton game configuration row. Loaded once at
// startup; the engine treats it as immutable.
type GameSettings struct {
	StartingCash     decimal.Decimal `json:"starting_cash"`
	Commission       decimal.Decimal `json:"commission"`
	GameDurationDays int             `json:"game_duration_days"`
}
