package engine

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"paper-trader/internal/httputil"
	"paper-trader/internal/marketdata"
	"paper-trader/internal/metrics"
	"paper-trader/internal/types"
)

type Handler struct {
	svc    *Service
	oracle marketdata.Oracle
}

func NewHandler(svc *Service, oracle marketdata.Oracle) *Handler {
	return &Handler{svc: svc, oracle: oracle}
}

type placeOrderRequest struct {
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Quantity string `json:"quantity"`
}

// Place handles POST /v1/orders. The current price is fetched from the
// oracle before the engine runs, so no network call happens inside the
// bookkeeping transaction.
func (h *Handler) Place(w http.ResponseWriter, r *http.Request, accountID string) {
	var req placeOrderRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "symbol is required"})
		return
	}
	side := types.TradeSide(strings.ToUpper(strings.TrimSpace(req.Side)))
	if !side.Valid() {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: ErrInvalidSide.Error()})
		return
	}
	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil || qty.LessThanOrEqual(decimal.Zero) {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: ErrInvalidQuantity.Error()})
		return
	}
	// Equities trade in whole shares; crypto quantities may be fractional.
	if !marketdata.IsCrypto(symbol) && !qty.IsInteger() {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "quantity must be a whole number of shares"})
		return
	}

	quote, err := h.oracle.GetQuote(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, marketdata.ErrQuoteUnavailable) {
			metrics.QuoteFetchErrors.Inc()
			httputil.WriteJSON(w, http.StatusBadGateway, httputil.ErrorResponse{Error: "no price available for " + symbol})
			return
		}
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}

	exec, err := h.svc.ExecuteOrder(r.Context(), Order{
		AccountID:   accountID,
		Symbol:      symbol,
		Side:        side,
		Quantity:    qty,
		Price:       quote.Price,
		DisplayName: quote.Name,
	})
	if err != nil {
		if IsBusinessError(err) {
			httputil.WriteJSON(w, http.StatusUnprocessableEntity, httputil.ErrorResponse{Error: err.Error()})
			return
		}
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, exec)
}
