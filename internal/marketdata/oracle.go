// Package marketdata supplies current prices and display metadata for
// symbols. The engine never talks to the upstream feed directly: it
// receives an Oracle, typically the HTTP client wrapped in a TTL cache.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrQuoteUnavailable is returned when no price can be produced for a
// symbol. Callers on the read side treat the position value as zero;
// order placement refuses to proceed without a price.
var ErrQuoteUnavailable = errors.New("quote unavailable")

// Quote is one symbol's current price and display metadata.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Volume        int64           `json:"volume"`
	DayHigh       decimal.Decimal `json:"day_high"`
	DayLow        decimal.Decimal `json:"day_low"`
	MarketCap     decimal.Decimal `json:"market_cap"`
	Sector        string          `json:"sector"`
	IsCrypto      bool            `json:"is_crypto"`
	LastUpdated   time.Time       `json:"last_updated"`
}

// Oracle produces a current quote for a symbol.
type Oracle interface {
	GetQuote(ctx context.Context, symbol string) (Quote, error)
}

// IsCrypto reports whether a symbol names a crypto asset. Crypto symbols
// trade in fractional quantities; equities trade in whole shares.
func IsCrypto(symbol string) bool {
	return strings.HasSuffix(strings.ToUpper(symbol), "-USD")
}

// Client fetches quotes from the upstream quote API. It owns its own
// timeout policy; callers hold no locks while a fetch is in flight.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) GetQuote(ctx context.Context, symbol string) (Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Quote{}, ErrQuoteUnavailable
	}
	endpoint := c.baseURL + "/quotes/" + url.PathEscape(symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return Quote{}, ErrQuoteUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("%w: upstream status %d", ErrQuoteUnavailable, resp.StatusCode)
	}
	var q Quote
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return Quote{}, fmt.Errorf("%w: bad payload", ErrQuoteUnavailable)
	}
	if q.Symbol == "" {
		q.Symbol = symbol
	}
	if q.Name == "" {
		q.Name = symbol
	}
	if q.Price.LessThanOrEqual(decimal.Zero) {
		return Quote{}, ErrQuoteUnavailable
	}
	q.IsCrypto = IsCrypto(symbol)
	if q.LastUpdated.IsZero() {
		q.LastUpdated = time.Now().UTC()
	}
	return q, nil
}
