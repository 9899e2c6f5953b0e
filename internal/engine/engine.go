// Package engine executes buy and sell orders against an account's cash
// and positions. All monetary values use shopspring/decimal — never
// float64 for money.
//
// An order mutates cash, the position book, the trade ledger, and the
// account statistics as one atomic unit: either every write commits or
// none does. Prices arrive as input; the engine never calls the price
// oracle itself.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paper-trader/internal/marketdata"
	"paper-trader/internal/metrics"
	"paper-trader/internal/model"
	"paper-trader/internal/store"
	"paper-trader/internal/types"
)

// Business-rule rejections. Reported verbatim to the caller; no state
// changes, no retries.
var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrNoPosition         = errors.New("no position in this symbol")
	ErrInsufficientShares = errors.New("insufficient shares")
)

// Validation rejections, caught before any storage access.
var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidPrice    = errors.New("price must be positive")
	ErrInvalidSide     = errors.New("side must be BUY or SELL")
	ErrInvalidSymbol   = errors.New("symbol is required")
)

// Order is one execution request. Price comes from the price oracle (or
// an equivalent collaborator), fetched before the engine is invoked.
type Order struct {
	AccountID   string
	Symbol      string
	Side        types.TradeSide
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	DisplayName string
}

// Execution is the outcome of a successful order.
type Execution struct {
	TradeID    string          `json:"trade_id"`
	Side       types.TradeSide `json:"side"`
	Symbol     string          `json:"symbol"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	RealizedPL decimal.Decimal `json:"realized_pl"`
	Cash       decimal.Decimal `json:"cash"`
}

type Service struct {
	store    store.Store
	settings model.GameSettings
	bus      *marketdata.Bus
	log      *zap.Logger
}

// NewService creates the execution engine. Pass nil for bus if event
// broadcasting is not needed.
func NewService(st store.Store, settings model.GameSettings, bus *marketdata.Bus, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: st, settings: settings, bus: bus, log: log}
}

// Settings returns the game configuration the engine was started with.
func (s *Service) Settings() model.GameSettings {
	return s.settings
}

// ExecuteOrder validates and applies one order. Business-rule rejections
// (ErrInsufficientFunds, ErrNoPosition, ErrInsufficientShares) and
// validation errors leave all state unchanged; storage faults roll the
// whole transaction back.
func (s *Service) ExecuteOrder(ctx context.Context, order Order) (Execution, error) {
	if err := validate(order); err != nil {
		return Execution{}, err
	}

	start := time.Now()
	commission := s.settings.Commission
	exec := Execution{
		TradeID:  uuid.New().String(),
		Side:     order.Side,
		Symbol:   order.Symbol,
		Quantity: order.Quantity,
		Price:    order.Price,
	}

	err := s.store.Atomic(ctx, func(tx store.Store) error {
		acc, err := tx.GetAccount(ctx, order.AccountID)
		if err != nil {
			return fmt.Errorf("load account: %w", err)
		}

		var trade *model.Trade
		switch order.Side {
		case types.TradeSideBuy:
			trade, err = s.applyBuy(ctx, tx, acc, order, commission)
		case types.TradeSideSell:
			trade, err = s.applySell(ctx, tx, acc, order, commission)
		}
		if err != nil {
			return err
		}

		acc.TradeCount++
		if err := tx.UpdateAccount(ctx, acc); err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		trade.ID = exec.TradeID
		if err := tx.InsertTrade(ctx, trade); err != nil {
			return err
		}
		exec.RealizedPL = trade.ProfitLoss
		exec.Cash = acc.Cash
		return nil
	})
	if err != nil {
		if reason := rejectionReason(err); reason != "" {
			metrics.TradeRejections.WithLabelValues(reason).Inc()
		}
		return Execution{}, err
	}

	metrics.TradesTotal.WithLabelValues(string(order.Side)).Inc()
	metrics.TradeLatency.WithLabelValues(string(order.Side)).Observe(time.Since(start).Seconds())
	s.log.Info("order executed",
		zap.String("trade_id", exec.TradeID),
		zap.String("account_id", order.AccountID),
		zap.String("side", string(order.Side)),
		zap.String("symbol", order.Symbol),
		zap.String("qty", order.Quantity.String()),
		zap.String("price", order.Price.String()),
		zap.String("realized_pl", exec.RealizedPL.String()),
	)
	if s.bus != nil {
		s.bus.Publish(marketdata.Event{Type: "trade_executed", AccountID: order.AccountID, Data: exec})
	}
	return exec, nil
}

func (s *Service) applyBuy(ctx context.Context, tx store.Store, acc *model.Account, order Order, commission decimal.Decimal) (*model.Trade, error) {
	gross := order.Price.Mul(order.Quantity).Add(commission)
	if acc.Cash.LessThan(gross) {
		return nil, ErrInsufficientFunds
	}
	acc.Cash = acc.Cash.Sub(gross)

	now := time.Now().UTC()
	pos, err := tx.GetPosition(ctx, acc.ID, order.Symbol)
	switch {
	case err == nil:
		// Volume-weighted average cost across all accumulation events.
		// Commission is expensed, never folded into the basis.
		newQty := pos.Quantity.Add(order.Quantity)
		pos.AvgCost = pos.Quantity.Mul(pos.AvgCost).
			Add(order.Quantity.Mul(order.Price)).
			Div(newQty)
		pos.Quantity = newQty
		pos.DisplayName = order.DisplayName
		pos.UpdatedAt = now
	case errors.Is(err, store.ErrNotFound):
		pos = &model.Position{
			AccountID:   acc.ID,
			Symbol:      order.Symbol,
			Quantity:    order.Quantity,
			AvgCost:     order.Price,
			DisplayName: order.DisplayName,
			UpdatedAt:   now,
		}
	default:
		return nil, fmt.Errorf("load position: %w", err)
	}
	if err := tx.UpsertPosition(ctx, pos); err != nil {
		return nil, fmt.Errorf("save position: %w", err)
	}

	return &model.Trade{
		AccountID:   acc.ID,
		Side:        types.TradeSideBuy,
		Symbol:      order.Symbol,
		Quantity:    order.Quantity,
		Price:       order.Price,
		Amount:      gross,
		Commission:  commission,
		ProfitLoss:  decimal.Zero,
		DisplayName: order.DisplayName,
		ExecutedAt:  now,
	}, nil
}

func (s *Service) applySell(ctx context.Context, tx store.Store, acc *model.Account, order Order, commission decimal.Decimal) (*model.Trade, error) {
	pos, err := tx.GetPosition(ctx, acc.ID, order.Symbol)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoPosition
		}
		return nil, fmt.Errorf("load position: %w", err)
	}
	if pos.Quantity.LessThan(order.Quantity) {
		return nil, ErrInsufficientShares
	}

	proceeds := order.Price.Mul(order.Quantity).Sub(commission)
	realized := order.Price.Sub(pos.AvgCost).Mul(order.Quantity).Sub(commission)
	acc.Cash = acc.Cash.Add(proceeds)

	now := time.Now().UTC()
	remaining := pos.Quantity.Sub(order.Quantity)
	if remaining.IsZero() {
		if err := tx.DeletePosition(ctx, acc.ID, order.Symbol); err != nil {
			return nil, fmt.Errorf("delete position: %w", err)
		}
	} else {
		// Sells never touch the average cost.
		pos.Quantity = remaining
		pos.UpdatedAt = now
		if err := tx.UpsertPosition(ctx, pos); err != nil {
			return nil, fmt.Errorf("save position: %w", err)
		}
	}

	acc.RealizedPL = acc.RealizedPL.Add(realized)
	if !acc.BestTrade.Valid || realized.GreaterThan(acc.BestTrade.Decimal) {
		acc.BestTrade = decimal.NewNullDecimal(realized)
	}
	if !acc.WorstTrade.Valid || realized.LessThan(acc.WorstTrade.Decimal) {
		acc.WorstTrade = decimal.NewNullDecimal(realized)
	}

	return &model.Trade{
		AccountID:   acc.ID,
		Side:        types.TradeSideSell,
		Symbol:      order.Symbol,
		Quantity:    order.Quantity,
		Price:       order.Price,
		Amount:      proceeds,
		Commission:  commission,
		ProfitLoss:  realized,
		DisplayName: order.DisplayName,
		ExecutedAt:  now,
	}, nil
}

func validate(order Order) error {
	if order.AccountID == "" {
		return errors.New("account_id is required")
	}
	if order.Symbol == "" {
		return ErrInvalidSymbol
	}
	if !order.Side.Valid() {
		return ErrInvalidSide
	}
	if order.Quantity.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidQuantity
	}
	if order.Price.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidPrice
	}
	return nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrInsufficientShares):
		return "insufficient_shares"
	case errors.Is(err, ErrNoPosition):
		return "no_position"
	default:
		return ""
	}
}

// IsBusinessError reports whether err is an expected business-rule
// rejection rather than a storage or programming fault.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrNoPosition) ||
		errors.Is(err, ErrInsufficientShares)
}
