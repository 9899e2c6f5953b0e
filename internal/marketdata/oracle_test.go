package marketdata_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-trader/internal/marketdata"
)

func newQuoteServer(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientFetchesQuote(t *testing.T) {
	srv := newQuoteServer(t, map[string]string{
		"/quotes/AAPL": `{"symbol":"AAPL","name":"Apple Inc.","price":"189.50","change":"1.20","volume":1000000,"sector":"Technology"}`,
	})
	client := marketdata.NewClient(srv.URL)

	q, err := client.GetQuote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, "Apple Inc.", q.Name)
	assert.True(t, q.Price.Equal(decimal.RequireFromString("189.50")))
	assert.False(t, q.IsCrypto)
	assert.False(t, q.LastUpdated.IsZero())
}

func TestClientFlagsCrypto(t *testing.T) {
	srv := newQuoteServer(t, map[string]string{
		"/quotes/BTC-USD": `{"symbol":"BTC-USD","price":"64000"}`,
	})
	client := marketdata.NewClient(srv.URL)

	q, err := client.GetQuote(context.Background(), "BTC-USD")
	require.NoError(t, err)
	assert.True(t, q.IsCrypto)
}

func TestClientUnknownSymbol(t *testing.T) {
	srv := newQuoteServer(t, nil)
	client := marketdata.NewClient(srv.URL)

	_, err := client.GetQuote(context.Background(), "NOPE")
	assert.ErrorIs(t, err, marketdata.ErrQuoteUnavailable)
}

func TestClientRejectsNonPositivePrice(t *testing.T) {
	srv := newQuoteServer(t, map[string]string{
		"/quotes/BAD": `{"symbol":"BAD","price":"0"}`,
	})
	client := marketdata.NewClient(srv.URL)

	_, err := client.GetQuote(context.Background(), "BAD")
	assert.ErrorIs(t, err, marketdata.ErrQuoteUnavailable)
}

func TestClientRejectsEmptySymbol(t *testing.T) {
	client := marketdata.NewClient("http://localhost:0")
	_, err := client.GetQuote(context.Background(), "  ")
	assert.ErrorIs(t, err, marketdata.ErrQuoteUnavailable)
}
