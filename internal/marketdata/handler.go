package marketdata

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"paper-trader/internal/httputil"
)

type Handler struct {
	oracle Oracle
}

func NewHandler(oracle Oracle) *Handler {
	return &Handler{oracle: oracle}
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	if symbol == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "symbol is required"})
		return
	}
	q, err := h.oracle.GetQuote(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, ErrQuoteUnavailable) {
			httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "quote unavailable for " + symbol})
			return
		}
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, q)
}
