package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"paper-trader/internal/auth"
	"paper-trader/internal/engine"
	"paper-trader/internal/httputil"
	"paper-trader/internal/marketdata"
	"paper-trader/internal/metrics"
	"paper-trader/internal/portfolio"
)

type RouterDeps struct {
	AuthHandler      *auth.Handler
	OrderHandler     *engine.Handler
	PortfolioHandler *portfolio.Handler
	MarketHandler    *marketdata.Handler
	AuthService      *auth.Service
	WSHandler        http.Handler
	Logger           *zap.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS middleware for development
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				origin = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Use(SecurityHeaders)
	r.Use(RateLimitMiddleware)
	r.Use(metrics.Middleware)
	if d.Logger != nil {
		r.Use(RequestLogger(d.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.AuthHandler.Register)
			r.Post("/login", d.AuthHandler.Login)
		})
		r.Get("/quotes/{symbol}", d.MarketHandler.Quote)
		r.Get("/leaderboard", d.PortfolioHandler.Leaderboard)
		r.Get("/feed/ws", d.WSHandler.ServeHTTP)
		r.Group(func(r chi.Router) {
			r.Use(WithAuth(d.AuthService))
			r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
				accountID, ok := AccountID(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.PortfolioHandler.Me(w, r, accountID)
			})
			r.Get("/portfolio", func(w http.ResponseWriter, r *http.Request) {
				accountID, ok := AccountID(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.PortfolioHandler.Positions(w, r, accountID)
			})
			r.Get("/portfolio/summary", func(w http.ResponseWriter, r *http.Request) {
				accountID, ok := AccountID(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.PortfolioHandler.Summary(w, r, accountID)
			})
			r.Get("/trades", func(w http.ResponseWriter, r *http.Request) {
				accountID, ok := AccountID(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.PortfolioHandler.Trades(w, r, accountID)
			})
			r.Post("/orders", func(w http.ResponseWriter, r *http.Request) {
				accountID, ok := AccountID(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.OrderHandler.Place(w, r, accountID)
			})
		})
	})
	return r
}
