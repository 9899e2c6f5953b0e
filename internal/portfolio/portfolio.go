// Package portfolio is the read side of the ledger: mark-to-market
// valuation of one account and the cross-account leaderboard. It never
// writes; it may run concurrently with the execution engine and treats a
// missing position row as a zero position.
package portfolio

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paper-trader/internal/marketdata"
	"paper-trader/internal/metrics"
	"paper-trader/internal/model"
	"paper-trader/internal/store"
)

type Service struct {
	store  store.Store
	oracle marketdata.Oracle
	log    *zap.Logger
}

func NewService(st store.Store, oracle marketdata.Oracle, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: st, oracle: oracle, log: log}
}

// Summary is one account's valuation snapshot.
type Summary struct {
	Cash          decimal.Decimal `json:"cash"`
	Invested      decimal.Decimal `json:"invested"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	UnrealizedPL  decimal.Decimal `json:"unrealized_pl"`
	HoldingsCount int             `json:"holdings_count"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// Row is one leaderboard entry.
type Row struct {
	Rank       int             `json:"rank"`
	AccountID  string          `json:"account_id"`
	Username   string          `json:"username"`
	Cash       decimal.Decimal `json:"cash"`
	TradeCount int             `json:"trade_count"`
	RealizedPL decimal.Decimal `json:"realized_pl"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// ValueOf computes an account's invested amount, mark-to-market value,
// and unrealized P&L. A symbol the oracle cannot price contributes zero
// to the current value; its book value still counts as invested.
func (s *Service) ValueOf(ctx context.Context, accountID string) (Summary, error) {
	acc, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return Summary{}, fmt.Errorf("load account: %w", err)
	}
	positions, err := s.store.ListPositions(ctx, accountID)
	if err != nil {
		return Summary{}, fmt.Errorf("load positions: %w", err)
	}

	sum := Summary{Cash: acc.Cash, HoldingsCount: len(positions)}
	for _, pos := range positions {
		sum.Invested = sum.Invested.Add(pos.AvgCost.Mul(pos.Quantity))
		sum.CurrentValue = sum.CurrentValue.Add(s.markValue(ctx, pos))
	}
	sum.UnrealizedPL = sum.CurrentValue.Sub(sum.Invested)
	sum.TotalValue = sum.Cash.Add(sum.CurrentValue)
	return sum, nil
}

// Rank returns every account ordered by total value (cash plus
// mark-to-market holdings), rank 1 first. Ties keep registration order.
func (s *Service) Rank(ctx context.Context) ([]Row, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	rows := make([]Row, 0, len(accounts))
	for _, acc := range accounts {
		positions, err := s.store.ListPositions(ctx, acc.ID)
		if err != nil {
			return nil, fmt.Errorf("load positions for %s: %w", acc.ID, err)
		}
		total := acc.Cash
		for _, pos := range positions {
			total = total.Add(s.markValue(ctx, pos))
		}
		rows = append(rows, Row{
			AccountID:  acc.ID,
			Username:   acc.Username,
			Cash:       acc.Cash,
			TradeCount: acc.TradeCount,
			RealizedPL: acc.RealizedPL,
			TotalValue: total,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalValue.GreaterThan(rows[j].TotalValue)
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

// markValue is price*quantity for a position, or zero when the oracle
// has no price. Degraded, not fatal: a dark symbol must not take the
// whole leaderboard down.
func (s *Service) markValue(ctx context.Context, pos model.Position) decimal.Decimal {
	quote, err := s.oracle.GetQuote(ctx, pos.Symbol)
	if err != nil {
		metrics.QuoteFetchErrors.Inc()
		s.log.Warn("no price for held symbol, valuing at zero",
			zap.String("symbol", pos.Symbol),
			zap.String("account_id", pos.AccountID),
		)
		return decimal.Zero
	}
	return quote.Price.Mul(pos.Quantity)
}

// Account returns the account snapshot for the read API.
func (s *Service) Account(ctx context.Context, accountID string) (*model.Account, error) {
	return s.store.GetAccount(ctx, accountID)
}

// Positions returns the account's open positions.
func (s *Service) Positions(ctx context.Context, accountID string) ([]model.Position, error) {
	return s.store.ListPositions(ctx, accountID)
}

// Trades returns the account's trade history, most recent first.
func (s *Service) Trades(ctx context.Context, accountID string) ([]model.Trade, error) {
	return s.store.ListTrades(ctx, accountID)
}
