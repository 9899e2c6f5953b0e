package httpserver

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"paper-trader/internal/auth"
	"paper-trader/internal/marketdata"
	"paper-trader/internal/metrics"
)

// WSHandler streams trade and quote events to authenticated clients.
type WSHandler struct {
	bus      *marketdata.Bus
	authSvc  *auth.Service
	origin   string
	upgrader websocket.Upgrader
}

func NewWSHandler(bus *marketdata.Bus, authSvc *auth.Service, origin string) *WSHandler {
	return &WSHandler{
		bus:     bus,
		authSvc: authSvc,
		origin:  origin,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return allowOrigin(r, origin) },
		},
	}
}

func allowOrigin(r *http.Request, origin string) bool {
	if origin == "*" {
		return true
	}
	reqOrigin := r.Header.Get("Origin")
	// Allow both localhost and 127.0.0.1 variants for development
	if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
		if strings.Contains(reqOrigin, "localhost") || strings.Contains(reqOrigin, "127.0.0.1") {
			return true
		}
	}
	return strings.EqualFold(reqOrigin, origin)
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Authenticate via query param (standard for browser WS)
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	accountID, err := h.authSvc.ParseToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	metrics.WebSocketClients.Inc()
	defer metrics.WebSocketClients.Dec()

	sub := h.bus.Subscribe()
	defer h.bus.Unsubscribe(sub)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	for {
		select {
		case evt := <-sub:
			// Trade events carry the owning account; only forward your own.
			if evt.Type == "trade_executed" && evt.AccountID != "" && evt.AccountID != accountID {
				continue
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
