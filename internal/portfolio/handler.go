package portfolio

import (
	"errors"
	"net/http"

	"paper-trader/internal/httputil"
	"paper-trader/internal/model"
	"paper-trader/internal/store"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request, accountID string) {
	acc, err := h.svc.Account(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "account not found"})
			return
		}
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, acc)
}

func (h *Handler) Positions(w http.ResponseWriter, r *http.Request, accountID string) {
	positions, err := h.svc.Positions(r.Context(), accountID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if positions == nil {
		positions = []model.Position{}
	}
	httputil.WriteJSON(w, http.StatusOK, positions)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request, accountID string) {
	sum, err := h.svc.ValueOf(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "account not found"})
			return
		}
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sum)
}

func (h *Handler) Trades(w http.ResponseWriter, r *http.Request, accountID string) {
	trades, err := h.svc.Trades(r.Context(), accountID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if trades == nil {
		trades = []model.Trade{}
	}
	httputil.WriteJSON(w, http.StatusOK, trades)
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Rank(r.Context())
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if rows == nil {
		rows = []Row{}
	}
	httputil.WriteJSON(w, http.StatusOK, rows)
}
