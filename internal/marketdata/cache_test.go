package marketdata_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-trader/internal/marketdata"
)

// countingOracle serves a scripted sequence of quotes or errors and
// counts calls.
type countingOracle struct {
	calls int
	quote marketdata.Quote
	err   error
}

func (o *countingOracle) GetQuote(_ context.Context, symbol string) (marketdata.Quote, error) {
	o.calls++
	if o.err != nil {
		return marketdata.Quote{}, o.err
	}
	q := o.quote
	q.Symbol = symbol
	return q, nil
}

func TestCacheServesFreshEntryWithoutRefetch(t *testing.T) {
	upstream := &countingOracle{quote: marketdata.Quote{Price: decimal.NewFromInt(100)}}
	cache := marketdata.NewCache(upstream, time.Minute)
	ctx := context.Background()

	q1, err := cache.GetQuote(ctx, "AAPL")
	require.NoError(t, err)
	q2, err := cache.GetQuote(ctx, "AAPL")
	require.NoError(t, err)

	assert.Equal(t, 1, upstream.calls, "second read must hit the cache")
	assert.True(t, q1.Price.Equal(q2.Price))
}

func TestCacheIsPerSymbol(t *testing.T) {
	upstream := &countingOracle{quote: marketdata.Quote{Price: decimal.NewFromInt(100)}}
	cache := marketdata.NewCache(upstream, time.Minute)
	ctx := context.Background()

	_, err := cache.GetQuote(ctx, "AAPL")
	require.NoError(t, err)
	_, err = cache.GetQuote(ctx, "MSFT")
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.calls)
}

func TestCacheFallsBackToStaleOnFetchFailure(t *testing.T) {
	upstream := &countingOracle{quote: marketdata.Quote{Price: decimal.NewFromInt(100)}}
	cache := marketdata.NewCache(upstream, time.Nanosecond)
	ctx := context.Background()

	q1, err := cache.GetQuote(ctx, "AAPL")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	// Upstream starts failing; the stale entry keeps serving.
	upstream.err = marketdata.ErrQuoteUnavailable
	q2, err := cache.GetQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, q1.Price.Equal(q2.Price))

	// With no prior entry there is nothing to fall back to.
	_, err = cache.GetQuote(ctx, "NEW")
	assert.ErrorIs(t, err, marketdata.ErrQuoteUnavailable)
}

func TestIsCrypto(t *testing.T) {
	assert.True(t, marketdata.IsCrypto("BTC-USD"))
	assert.True(t, marketdata.IsCrypto("eth-usd"))
	assert.False(t, marketdata.IsCrypto("AAPL"))
	assert.False(t, marketdata.IsCrypto("USD"))
}
