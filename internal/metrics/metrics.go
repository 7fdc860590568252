package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Order books processed per instrument"},
		[]string{"symbol"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted"},
		[]string{"symbol", "side"},
	)
	StateResetsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "state_resets_total", Help: "Ticks whose trader data could not be fully decoded"},
	)
	InstrumentFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "instrument_failures_total", Help: "Instruments skipped because their book was unusable"},
		[]string{"symbol"},
	)
	ReferencePrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "reference_price", Help: "Latest moving-average fair value"},
		[]string{"symbol"},
	)
	Volatility = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "mid_price_volatility", Help: "Latest rolling mid-price standard deviation of quoting instruments"},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal, OrdersTotal, StateResetsTotal, InstrumentFailuresTotal, ReferencePrice, Volatility)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
