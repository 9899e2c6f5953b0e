package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-trader/internal/model"
	"paper-trader/internal/store"
	"paper-trader/internal/types"
)

func newAccount(id, username string) *model.Account {
	return &model.Account{
		ID:        id,
		Username:  username,
		Email:     username + "@example.com",
		Cash:      decimal.RequireFromString("100000.00"),
		CreatedAt: time.Now().UTC(),
	}
}

func TestCreateAccountDuplicate(t *testing.T) {
	mem := store.NewMemory(store.DefaultTestSettings())
	ctx := context.Background()

	require.NoError(t, mem.CreateAccount(ctx, newAccount("a1", "alice"), "h1"))

	dup := newAccount("a2", "alice")
	assert.ErrorIs(t, mem.CreateAccount(ctx, dup, "h2"), store.ErrDuplicate)

	sameEmail := newAccount("a3", "bob")
	sameEmail.Email = "alice@example.com"
	assert.ErrorIs(t, mem.CreateAccount(ctx, sameEmail, "h3"), store.ErrDuplicate)
}

func TestGetCredentials(t *testing.T) {
	mem := store.NewMemory(store.DefaultTestSettings())
	ctx := context.Background()
	require.NoError(t, mem.CreateAccount(ctx, newAccount("a1", "alice"), "hash-1"))

	id, hash, err := mem.GetCredentials(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "a1", id)
	assert.Equal(t, "hash-1", hash)

	_, _, err = mem.GetCredentials(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListAccountsKeepsRegistrationOrder(t *testing.T) {
	mem := store.NewMemory(store.DefaultTestSettings())
	ctx := context.Background()
	for _, name := range []string{"carol", "alice", "bob"} {
		require.NoError(t, mem.CreateAccount(ctx, newAccount("id-"+name, name), "h"))
	}

	accounts, err := mem.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, "carol", accounts[0].Username)
	assert.Equal(t, "alice", accounts[1].Username)
	assert.Equal(t, "bob", accounts[2].Username)
}

func TestAtomicRollsBackOnError(t *testing.T) {
	mem := store.NewMemory(store.DefaultTestSettings())
	ctx := context.Background()
	require.NoError(t, mem.CreateAccount(ctx, newAccount("a1", "alice"), "h"))

	boom := errors.New("boom")
	err := mem.Atomic(ctx, func(tx store.Store) error {
		acc, err := tx.GetAccount(ctx, "a1")
		require.NoError(t, err)
		acc.Cash = decimal.Zero
		acc.TradeCount = 99
		require.NoError(t, tx.UpdateAccount(ctx, acc))
		require.NoError(t, tx.UpsertPosition(ctx, &model.Position{
			AccountID: "a1", Symbol: "AAPL",
			Quantity: decimal.NewFromInt(10), AvgCost: decimal.NewFromInt(50),
		}))
		require.NoError(t, tx.InsertTrade(ctx, &model.Trade{
			ID: "t1", AccountID: "a1", Side: types.TradeSideBuy, Symbol: "AAPL",
			Quantity: decimal.NewFromInt(10), Price: decimal.NewFromInt(50),
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	acc, err := mem.GetAccount(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, acc.Cash.Equal(decimal.RequireFromString("100000.00")))
	assert.Equal(t, 0, acc.TradeCount)
	_, err = mem.GetPosition(ctx, "a1", "AAPL")
	assert.ErrorIs(t, err, store.ErrNotFound)
	trades, err := mem.ListTrades(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestAtomicCommitsOnSuccess(t *testing.T) {
	mem := store.NewMemory(store.DefaultTestSettings())
	ctx := context.Background()
	require.NoError(t, mem.CreateAccount(ctx, newAccount("a1", "alice"), "h"))

	err := mem.Atomic(ctx, func(tx store.Store) error {
		return tx.UpsertPosition(ctx, &model.Position{
			AccountID: "a1", Symbol: "AAPL",
			Quantity: decimal.NewFromInt(5), AvgCost: decimal.NewFromInt(42),
		})
	})
	require.NoError(t, err)

	pos, err := mem.GetPosition(ctx, "a1", "AAPL")
	require.NoError(t, err)
	assert.True(t, pos.Quantity.Equal(decimal.NewFromInt(5)))
}

func TestPositionCRUD(t *testing.T) {
	mem := store.NewMemory(store.DefaultTestSettings())
	ctx := context.Background()
	require.NoError(t, mem.CreateAccount(ctx, newAccount("a1", "alice"), "h"))

	require.NoError(t, mem.UpsertPosition(ctx, &model.Position{
		AccountID: "a1", Symbol: "MSFT",
		Quantity: decimal.NewFromInt(3), AvgCost: decimal.NewFromInt(200),
	}))
	require.NoError(t, mem.UpsertPosition(ctx, &model.Position{
		AccountID: "a1", Symbol: "AAPL",
		Quantity: decimal.NewFromInt(7), AvgCost: decimal.NewFromInt(150),
	}))

	list, err := mem.ListPositions(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "AAPL", list[0].Symbol, "positions listed by symbol")
	assert.Equal(t, "MSFT", list[1].Symbol)

	require.NoError(t, mem.DeletePosition(ctx, "a1", "AAPL"))
	_, err = mem.GetPosition(ctx, "a1", "AAPL")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTouchLastLogin(t *testing.T) {
	mem := store.NewMemory(store.DefaultTestSettings())
	ctx := context.Background()
	require.NoError(t, mem.CreateAccount(ctx, newAccount("a1", "alice"), "h"))

	acc, err := mem.GetAccount(ctx, "a1")
	require.NoError(t, err)
	assert.Nil(t, acc.LastLogin)

	require.NoError(t, mem.TouchLastLogin(ctx, "a1"))
	acc, err = mem.GetAccount(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, acc.LastLogin)
}

func TestGetSettings(t *testing.T) {
	mem := store.NewMemory(store.DefaultTestSettings())
	gs, err := mem.GetSettings(context.Background())
	require.NoError(t, err)
	assert.True(t, gs.StartingCash.Equal(decimal.RequireFromString("100000.00")))
	assert.True(t, gs.Commission.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, 30, gs.GameDurationDays)
}
