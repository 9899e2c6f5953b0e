// Package metrics provides Prometheus instrumentation for the trading
// service.
package metrics

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TradesTotal counts executed orders, partitioned by side.
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "papertrader_trades_total",
		Help: "Total number of orders executed",
	}, []string{"side"})

	// TradeRejections counts business-rule rejections by reason.
	TradeRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "papertrader_trade_rejections_total",
		Help: "Orders rejected by business rules",
	}, []string{"reason"})

	// TradeLatency tracks order execution latency.
	TradeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "papertrader_trade_latency_seconds",
		Help:    "Order execution latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"side"})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "papertrader_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "papertrader_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})

	// WebSocketClients tracks connected feed subscribers.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "papertrader_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// QuoteFetchErrors counts oracle failures seen by the read side.
	QuoteFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "papertrader_quote_fetch_errors_total",
		Help: "Price oracle lookups that returned no usable price",
	})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack is needed so WebSocket upgrades work through the wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hj.Hijack()
}

// Middleware records request counts and latencies. The route pattern is
// not available before routing, so the raw path is used; cardinality is
// bounded by the small fixed API surface.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
