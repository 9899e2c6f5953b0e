package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-trader/internal/auth"
	"paper-trader/internal/store"
)

func newTestService(t *testing.T) (*auth.Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory(store.DefaultTestSettings())
	svc := auth.NewService(mem, store.DefaultTestSettings(), "paper-trader", []byte("test-secret"), time.Hour)
	return svc, mem
}

func TestRegisterFundsAccount(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, "alice", "hunter2hunter2", "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	acc, err := mem.GetAccount(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", acc.Username)
	assert.True(t, acc.Cash.Equal(decimal.RequireFromString("100000.00")))
	assert.Equal(t, 0, acc.TradeCount)
	assert.True(t, acc.RealizedPL.IsZero())
	assert.False(t, acc.BestTrade.Valid)
	assert.False(t, acc.WorstTrade.Valid)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "short", "alice@example.com")
	assert.Error(t, err, "password under 8 chars")

	_, err = svc.Register(ctx, "alice", "hunter2hunter2", "not-an-email")
	assert.Error(t, err)

	_, err = svc.Register(ctx, "", "hunter2hunter2", "alice@example.com")
	assert.Error(t, err)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "hunter2hunter2", "alice@example.com")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "hunter2hunter2", "other@example.com")
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestLoginRoundTrip(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, "alice", "hunter2hunter2", "alice@example.com")
	require.NoError(t, err)

	token, acc, err := svc.Login(ctx, "alice", "hunter2hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, id, acc.ID)
	require.NotNil(t, acc.LastLogin)

	parsed, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	stored, err := mem.GetAccount(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "hunter2hunter2", "alice@example.com")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody", "hunter2hunter2")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestParseTokenRejectsForgedIssuer(t *testing.T) {
	svc, mem := newTestService(t)
	other := auth.NewService(mem, store.DefaultTestSettings(), "someone-else", []byte("test-secret"), time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "hunter2hunter2", "alice@example.com")
	require.NoError(t, err)
	token, _, err := other.Login(ctx, "alice", "hunter2hunter2")
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.Error(t, err, "issuer mismatch must fail")
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ParseToken("not.a.token")
	assert.Error(t, err)
}
