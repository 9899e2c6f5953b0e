package portfolio_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-trader/internal/marketdata"
	"paper-trader/internal/model"
	"paper-trader/internal/portfolio"
	"paper-trader/internal/store"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// stubOracle serves fixed prices; unknown symbols are unavailable.
type stubOracle struct {
	prices map[string]string
}

func (o stubOracle) GetQuote(_ context.Context, symbol string) (marketdata.Quote, error) {
	p, ok := o.prices[symbol]
	if !ok {
		return marketdata.Quote{}, marketdata.ErrQuoteUnavailable
	}
	return marketdata.Quote{Symbol: symbol, Price: d(p), LastUpdated: time.Now()}, nil
}

func seedAccount(t *testing.T, mem *store.Memory, id, username, cash string) {
	t.Helper()
	err := mem.CreateAccount(context.Background(), &model.Account{
		ID:       id,
		Username: username,
		Email:    username + "@example.com",
		Cash:     d(cash),
	}, "h")
	require.NoError(t, err)
}

func seedPosition(t *testing.T, mem *store.Memory, accountID, symbol, qty, avgCost string) {
	t.Helper()
	err := mem.UpsertPosition(context.Background(), &model.Position{
		AccountID: accountID,
		Symbol:    symbol,
		Quantity:  d(qty),
		AvgCost:   d(avgCost),
	})
	require.NoError(t, err)
}

func TestValueOfCashOnlyAccount(t *testing.T) {
	mem := store.NewMemory(store.DefaultTestSettings())
	seedAccount(t, mem, "a1", "alice", "100000.00")
	svc := portfolio.NewService(mem, stubOracle{}, nil)

	sum, err := svc.ValueOf(context.Background(), "a1")
	require.NoError(t, err)
	assert.True(t, sum.Cash.Equal(d("100000.00")))
	assert.True(t, sum.Invested.IsZero())
	assert.True(t, sum.CurrentValue.IsZero())
	assert.True(t, sum.UnrealizedPL.IsZero())
	assert.Equal(t, 0, sum.HoldingsCount)
	assert.True(t, sum.TotalValue.Equal(d("100000.00")), "no holdings means total equals cash")
}

func TestValueOfMarksToMarket(t *testing.T) {
	mem := store.NewMemory(store.DefaultTestSettings())
	seedAccount(t, mem, "a1", "alice", "1000.00")
	seedPosition(t, mem, "a1", "AAPL", "10", "50.00")
	seedPosition(t, mem, "a1", "MSFT", "2", "200.00")
	svc := portfolio.NewService(mem, stubOracle{prices: map[string]string{
		"AAPL": "60.00",
		"MSFT": "190.00",
	}}, nil)

	sum, err := svc.ValueOf(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.HoldingsCount)
	assert.True(t, sum.Invested.Equal(d("900")), "invested = %s", sum.Invested)
	assert.True(t, sum.CurrentValue.Equal(d("980")), "current = %s", sum.CurrentValue)
	assert.True(t, sum.UnrealizedPL.Equal(d("80")))
	assert.True(t, sum.TotalValue.Equal(d("1980")))
}

// A symbol the oracle cannot price contributes zero to current value but
// its book value still counts as invested.
func TestValueOfUnpriceableSymbol(t *testing.T) {
	mem := store.NewMemory(store.DefaultTestSettings())
	seedAccount(t, mem, "a1", "alice", "500.00")
	seedPosition(t, mem, "a1", "AAPL", "10", "50.00")
	seedPosition(t, mem, "a1", "DELISTED", "4", "25.00")
	svc := portfolio.NewService(mem, stubOracle{prices: map[string]string{
		"AAPL": "55.00",
	}}, nil)

	sum, err := svc.ValueOf(context.Background(), "a1")
	require.NoError(t, err)
	assert.True(t, sum.Invested.Equal(d("600")), "invested = %s", sum.Invested)
	assert.True(t, sum.CurrentValue.Equal(d("550")), "current = %s", sum.CurrentValue)
	assert.True(t, sum.UnrealizedPL.Equal(d("-50")))
	assert.True(t, sum.TotalValue.Equal(d("1050")))
}

func TestRankOrdersByTotalValue(t *testing.T) {
	mem := store.NewMemory(store.DefaultTestSettings())
	seedAccount(t, mem, "a1", "alice", "1000.00")
	seedAccount(t, mem, "a2", "bob", "500.00")
	seedAccount(t, mem, "a3", "carol", "2000.00")
	seedPosition(t, mem, "a2", "AAPL", "20", "40.00")
	svc := portfolio.NewService(mem, stubOracle{prices: map[string]string{
		"AAPL": "100.00",
	}}, nil)

	rows, err := svc.Rank(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// bob: 500 + 20*100 = 2500, carol: 2000, alice: 1000
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "bob", rows[0].Username)
	assert.True(t, rows[0].TotalValue.Equal(d("2500")))
	assert.Equal(t, 2, rows[1].Rank)
	assert.Equal(t, "carol", rows[1].Username)
	assert.Equal(t, 3, rows[2].Rank)
	assert.Equal(t, "alice", rows[2].Username)
}

// Ties keep registration order.
func TestRankTiesAreStable(t *testing.T) {
	mem := store.NewMemory(store.DefaultTestSettings())
	seedAccount(t, mem, "a1", "first", "1000.00")
	seedAccount(t, mem, "a2", "second", "1000.00")
	seedAccount(t, mem, "a3", "third", "1000.00")
	svc := portfolio.NewService(mem, stubOracle{}, nil)

	rows, err := svc.Rank(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "first", rows[0].Username)
	assert.Equal(t, "second", rows[1].Username)
	assert.Equal(t, "third", rows[2].Username)
}

// An account holding only unpriceable symbols ranks by cash alone.
func TestRankUnpriceableValuedAtZero(t *testing.T) {
	mem := store.NewMemory(store.DefaultTestSettings())
	seedAccount(t, mem, "a1", "alice", "100.00")
	seedAccount(t, mem, "a2", "bob", "50.00")
	seedPosition(t, mem, "a2", "GHOST", "1000", "90.00")
	svc := portfolio.NewService(mem, stubOracle{}, nil)

	rows, err := svc.Rank(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[0].Username)
	assert.True(t, rows[1].TotalValue.Equal(d("50.00")))
}
