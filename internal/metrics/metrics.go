package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "feed_events_total", Help: "Token creation events received from the feed"},
	)
	EventsMatchedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "feed_events_matched_total", Help: "Events that satisfied the trigger"},
	)
	DecodeFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "feed_decode_failures_total", Help: "Feed frames that failed to decode"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trades_total", Help: "Trade attempts by action and outcome"},
		[]string{"action", "status"},
	)
	WalletBalanceSol = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "wallet_balance_sol", Help: "Wallet SOL balance at last check"},
	)
)

func init() {
	prometheus.MustRegister(EventsTotal, EventsMatchedTotal, DecodeFailuresTotal, TradesTotal, WalletBalanceSol)
}

// Handler returns the scrape handler for the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
